package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/greenrail/core/simulator"
	"github.com/kilianp07/greenrail/pkg/export"
)

var episodes int

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play stochastic episodes and print the episode history",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&episodes, "episodes", 0, "number of episodes (simulator.episodes when 0)")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := setup(ctx)
	if err != nil {
		return err
	}
	svc := env.svc
	defer env.Close()

	n := episodes
	if n <= 0 {
		n = env.cfg.Simulator.Episodes
	}
	progress := cmd.ErrOrStderr()
	for i := 0; i < n; i++ {
		res, err := svc.RunEpisode(ctx)
		if err != nil {
			return err
		}
		seen := svc.History().BestSeen()
		printEpisode(progress, res, seen[len(seen)-1])
	}
	history := svc.History().Episodes()
	return writeOutput(cmd, history, func(w io.Writer) error {
		return export.WriteEpisodesCSV(w, history)
	})
}

// printEpisode prints one progress line for a completed episode.
func printEpisode(w io.Writer, res simulator.EpisodeResult, best float64) {
	fmt.Fprintf(w, "episode %4d  reward %10.2f  best %10.2f  epsilon %.3f  violations %d\n",
		res.EpisodeNumber, res.TotalReward, best, res.Epsilon, res.ViolationCount)
}
