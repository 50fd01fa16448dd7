package cli

import (
	"github.com/spf13/cobra"

	"github.com/tatianab/kitchen-wars/internal/logger"
	"github.com/tatianab/kitchen-wars/internal/service"
	"github.com/tatianab/kitchen-wars/internal/tui"
)

func init() {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Run:   runPlay,
	}
	cmd.Flags().StringP("player", "p", "", "Player id (default: a new guest id)")
	cmd.Flags().StringP("session", "s", "", "Resume an existing session")
	RootCmd.AddCommand(cmd)
}

func runPlay(cmd *cobra.Command, args []string) {
	player, _ := cmd.Flags().GetString("player")
	sessionID, _ := cmd.Flags().GetString("session")
	if player == "" {
		player = service.NewGuestID()
	}

	// The TUI owns the terminal, so logs are discarded.
	log := logger.Discard()
	a, err := openApp(cmd.Context(), log, nil)
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	if err := tui.Run(cmd.Context(), a.svc, player, sessionID); err != nil {
		exitErr("play", err)
	}
}
