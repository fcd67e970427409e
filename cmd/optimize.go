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

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Place every job with the constrained optimizer",
	RunE:  runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := setup(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	svc := env.svc

	out, err := svc.RunOptimization(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "shifted %d/%d jobs, savings %.0f (%.1f%%), favorable utilization %.1f%%\n",
		out.Summary.Shifted, out.Summary.Jobs, out.Summary.TotalSavings,
		out.Performance.DailyCost.SavingsPercent, out.Summary.FavorableUtilization)
	return writeOutput(cmd, out, func(w io.Writer) error {
		return export.WriteResultsCSV(w, out.Results)
	})
}
