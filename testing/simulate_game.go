// Command simulate_game plays many offline sessions with a fixed strategy and reports
// how they ended.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tatianab/kitchen-wars/internal/engine"
	"github.com/tatianab/kitchen-wars/internal/game"
	"github.com/tatianab/kitchen-wars/internal/logger"
	"github.com/tatianab/kitchen-wars/internal/models"
	"github.com/tatianab/kitchen-wars/internal/service"
	"github.com/tatianab/kitchen-wars/internal/store"
)

// Sessions still running after this many days are reported as survivors.
const maxDays = 365

type strategy func(day int, rng *rand.Rand) models.Side

var strategies = map[string]strategy{
	"left":  func(int, *rand.Rand) models.Side { return models.Left },
	"right": func(int, *rand.Rand) models.Side { return models.Right },
	"alternate": func(day int, _ *rand.Rand) models.Side {
		if day%2 == 1 {
			return models.Left
		}
		return models.Right
	},
	"random": func(_ int, rng *rand.Rand) models.Side {
		if rng.IntN(2) == 0 {
			return models.Left
		}
		return models.Right
	},
}

func main() {
	cmd := &cobra.Command{
		Use:   "simulate_game",
		Short: "Play offline sessions with a fixed strategy",
		RunE:  run,
	}
	cmd.Flags().StringP("strategy", "s", "random", "left, right, alternate or random")
	cmd.Flags().IntP("games", "n", 20, "Number of sessions to play")
	cmd.Flags().Uint64("seed", 1, "Seed for the random strategy")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("strategy")
	games, _ := cmd.Flags().GetInt("games")
	seed, _ := cmd.Flags().GetUint64("seed")

	pick, ok := strategies[name]
	if !ok {
		return fmt.Errorf("unknown strategy %q", name)
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	dir, err := os.MkdirTemp("", "kitchen-wars-sim")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	ctx := context.Background()
	st, err := store.OpenSQLite(ctx, filepath.Join(dir, "sim.sqlite"))
	if err != nil {
		return err
	}
	defer st.Close()

	log := logger.New()
	svc := service.New(st, engine.NewProvider(engine.Options{Logger: logger.Discard()}), service.Options{Logger: logger.Discard()})

	endings := map[string]int{}
	totalDays := 0
	for i := 0; i < games; i++ {
		sess, err := svc.CreateSession(ctx, fmt.Sprintf("sim-%s", name))
		if err != nil {
			return err
		}
		ending, days, err := playOut(ctx, svc, sess.ID, pick, rng)
		if err != nil {
			return err
		}
		endings[ending]++
		totalDays += days
		log.Event("SIM_GAME", sess.ID, fmt.Sprintf("ending=%s days=%d", ending, days))
	}

	fmt.Printf("\n--- %d games, strategy %s ---\n", games, name)
	ids := make([]string, 0, len(endings))
	for id := range endings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		title := id
		if e, ok := game.EndingByID(id); ok {
			title = e.Title
		}
		fmt.Printf("%-16s %-8s %d\n", id, title, endings[id])
	}
	if games > 0 {
		fmt.Printf("average survival: %.1f days\n", float64(totalDays)/float64(games))
	}
	return nil
}

func playOut(ctx context.Context, svc *service.Service, id string, pick strategy, rng *rand.Rand) (string, int, error) {
	for day := 1; day <= maxDays; day++ {
		res, err := svc.ResolveChoice(ctx, id, pick(day, rng), nil)
		if err != nil {
			return "", 0, err
		}
		if res.Status == models.StatusEnded {
			return res.Ending.ID, res.NewDay - 1, nil
		}
	}
	return "survived", maxDays, nil
}
