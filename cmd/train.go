package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/greenrail/pkg/export"
)

var trainEpisodes int

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run the training loop and report the best and convergence episodes",
	RunE:  runTrain,
}

func init() {
	trainCmd.Flags().IntVar(&trainEpisodes, "episodes", 0, "number of episodes (simulator.episodes when 0)")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := setup(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	svc := env.svc

	n := trainEpisodes
	if n <= 0 {
		n = env.cfg.Simulator.Episodes
	}
	res, err := svc.Train(ctx, n)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "best episode %d (reward %.2f), converged at episode %d of %d\n",
		res.Best.EpisodeNumber, res.Best.TotalReward, res.ConvergenceEpisode, res.Episodes)
	return writeOutput(cmd, res, func(w io.Writer) error {
		return export.WriteEpisodesCSV(w, res.History.Episodes())
	})
}
