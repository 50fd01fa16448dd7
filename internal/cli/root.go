// Package cli implements the kitchen-wars commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tatianab/kitchen-wars/internal/config"
	"github.com/tatianab/kitchen-wars/internal/engine"
	"github.com/tatianab/kitchen-wars/internal/logger"
	"github.com/tatianab/kitchen-wars/internal/service"
	"github.com/tatianab/kitchen-wars/internal/store"
)

var dbDialect string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "kitchen-wars",
	Short: "Run a restaurant one decision at a time",
	Long:  "后厨风云: a card-swipe restaurant management game. Serve it over HTTP, play it in the terminal, or drive it from scripts.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dbDialect, "db", "", "Storage backend: sqlite, postgres or file (default: $DB_DIALECT or sqlite)")
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// app bundles everything a command needs to talk to the game.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	store  store.Store
	gemini *engine.Gemini
	svc    *service.Service
}

// openApp loads configuration, opens storage and builds the content provider.
// notifier may be nil.
func openApp(ctx context.Context, log *logger.Logger, notifier service.Notifier) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dbDialect != "" {
		cfg.DBDialect = dbDialect
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.DBDialect, err)
	}

	a := &app{cfg: cfg, log: log, store: st}
	opts := engine.Options{Timeout: cfg.GenerationTimeout, Logger: log}
	if cfg.Offline() {
		log.Info("no GEMINI_API_KEY set, serving authored events only")
	} else {
		g, err := engine.NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("creating Gemini client: %w", err)
		}
		a.gemini = g
		opts.Events = g.Events
		opts.Commentary = g.Commentary
	}

	a.svc = service.New(st, engine.NewProvider(opts), service.Options{Logger: log, Notifier: notifier})
	return a, nil
}

func (a *app) Close() {
	if a.gemini != nil {
		if err := a.gemini.Close(); err != nil {
			a.log.Warn("closing Gemini client: %v", err)
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing store: %v", err)
	}
}

// mustOpen is openApp for commands that write JSON to stdout; logs go to stderr.
func mustOpen(cmd *cobra.Command) *app {
	a, err := openApp(cmd.Context(), logger.NewWithWriters(os.Stderr, os.Stderr), nil)
	if err != nil {
		exitErr("open", err)
	}
	return a
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
