package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tatianab/kitchen-wars/internal/models"
)

func init() {
	RootCmd.AddCommand(
		&cobra.Command{
			Use:   "new <player>",
			Short: "Start a session and print its state",
			Args:  cobra.ExactArgs(1),
			Run:   runNew,
		},
		&cobra.Command{
			Use:   "state <session>",
			Short: "Print a session's state and current card",
			Args:  cobra.ExactArgs(1),
			Run:   runState,
		},
		&cobra.Command{
			Use:   "history <player>",
			Short: "List a player's recent sessions",
			Args:  cobra.ExactArgs(1),
			Run:   runHistory,
		},
		&cobra.Command{
			Use:   "endings",
			Short: "List every ending",
			Args:  cobra.NoArgs,
			Run:   runEndings,
		},
	)

	choose := &cobra.Command{
		Use:   "choose <session> left|right",
		Short: "Resolve the current card",
		Args:  cobra.ExactArgs(2),
		Run:   runChoose,
	}
	choose.Flags().String("event", "", "Expected event card id")
	RootCmd.AddCommand(choose)
}

func runNew(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	sess, err := a.svc.CreateSession(cmd.Context(), args[0])
	if err != nil {
		exitErr("new", err)
	}
	state, err := a.svc.GetState(cmd.Context(), sess.ID)
	if err != nil {
		exitErr("state", err)
	}
	printJSON(state)
}

func runState(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	state, err := a.svc.GetState(cmd.Context(), args[0])
	if err != nil {
		exitErr("state", err)
	}
	printJSON(state)
}

func runChoose(cmd *cobra.Command, args []string) {
	side, err := models.ParseSide(args[1])
	if err != nil {
		exitErr("choose", err)
	}
	var eventID *int
	if raw, _ := cmd.Flags().GetString("event"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			exitErr("event", err)
		}
		eventID = &id
	}

	a := mustOpen(cmd)
	defer a.Close()

	res, err := a.svc.ResolveChoice(cmd.Context(), args[0], side, eventID)
	if err != nil {
		exitErr("choose", err)
	}
	printJSON(res)
}

func runHistory(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()

	sessions, err := a.svc.History(cmd.Context(), args[0])
	if err != nil {
		exitErr("history", err)
	}
	achievements, err := a.svc.Achievements(cmd.Context(), args[0])
	if err != nil {
		exitErr("achievements", err)
	}
	printJSON(map[string]any{"sessions": sessions, "achievements": achievements})
}

func runEndings(cmd *cobra.Command, args []string) {
	a := mustOpen(cmd)
	defer a.Close()
	printJSON(a.svc.Endings())
}
