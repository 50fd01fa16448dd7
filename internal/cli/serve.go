package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tatianab/kitchen-wars/internal/logger"
	"github.com/tatianab/kitchen-wars/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and websocket updates",
		Run:   runServe,
	}
	cmd.Flags().String("addr", "", "Listen address (default: $KW_ADDR or :8080)")
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New()
	hub := server.NewHub(log)

	a, err := openApp(ctx, log, hub)
	if err != nil {
		exitErr("open", err)
	}
	defer a.Close()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Addr
	}

	hubCtx, cancelHub := context.WithCancel(ctx)
	defer cancelHub()
	go hub.Run(hubCtx)

	log.Info("storage: %s, generation: %t", a.cfg.DBDialect, !a.cfg.Offline())
	if err := server.New(a.svc, hub, log).ListenAndServe(ctx, addr); err != nil {
		exitErr("serve", err)
	}
}
