package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/greenrail/app"
	"github.com/kilianp07/greenrail/config"
	"github.com/kilianp07/greenrail/core/monitoring"
	"github.com/kilianp07/greenrail/infra/logger"
	"github.com/kilianp07/greenrail/infra/metrics"
	inframon "github.com/kilianp07/greenrail/infra/monitoring"
	"github.com/kilianp07/greenrail/infra/scenario"
	"github.com/kilianp07/greenrail/pkg/export"
)

var (
	cfgPath      string
	scenarioPath string
	outPath      string
)

var rootCmd = &cobra.Command{
	Use:          "greenrail",
	Short:        "Energy-aware departure scheduling for rail fleets",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (defaults and GR_ environment only when empty)")
	rootCmd.PersistentFlags().StringVarP(&scenarioPath, "scenario", "s", "examples/korail-weekday.yaml", "scenario file with jobs and the hourly signal")
	rootCmd.PersistentFlags().StringVarP(&outPath, "output", "o", "", "write the result to a .json or .csv file instead of stdout")
}

// Execute runs the CLI. A failing command is reported to the error
// monitor.
func Execute() error {
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		name := rootCmd.Name()
		if cmd != nil {
			name = cmd.Name()
		}
		monitoring.CaptureException(err, map[string]string{"command": name})
		monitoring.Flush(2 * time.Second)
	}
	return err
}

// environment holds what every command needs. Close releases it in
// reverse order of acquisition.
type environment struct {
	svc     *app.Service
	cfg     *config.Config
	closers []func()
}

func (e *environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// setup loads the configuration and the scenario and builds the service.
// The Prometheus listener runs until ctx is done when configured.
func setup(ctx context.Context) (*environment, error) {
	env := &environment{}
	ready := false
	defer func() {
		if !ready {
			env.Close()
		}
	}()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	env.cfg = cfg
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	if cfg.Log.File != "" {
		closeFile, err := logger.EnableFile(cfg.Log.FileOptions())
		if err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
		env.closers = append(env.closers, func() { _ = closeFile() })
	}
	mon, err := inframon.NewSentryMonitor(cfg.Monitoring)
	if err != nil {
		return nil, err
	}
	monitoring.Init(mon)
	log := logger.New("main")

	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return nil, err
	}
	jobs, table, err := sc.Build()
	if err != nil {
		return nil, err
	}
	svc, err := app.NewFromConfig(cfg, jobs, table)
	if err != nil {
		return nil, err
	}
	env.svc = svc
	env.closers = append(env.closers, svc.Close)

	if addr := cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			defer monitoring.Recover()
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				log.Errorf("prom server: %v", err)
				monitoring.CaptureException(err, map[string]string{"component": "prom-server"})
			}
		}()
	}
	log.Infof("scenario %s: %d jobs", sc.Name, len(jobs))
	ready = true
	return env, nil
}

// writeOutput writes v as JSON to stdout or to outPath. A .csv outPath
// uses csvFn when the command supports it.
func writeOutput(cmd *cobra.Command, v any, csvFn func(io.Writer) error) (err error) {
	if outPath == "" {
		return export.WriteJSON(cmd.OutOrStdout(), v)
	}
	isCSV := strings.EqualFold(filepath.Ext(outPath), ".csv")
	if isCSV && csvFn == nil {
		return fmt.Errorf("%s does not support csv output", cmd.Name())
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if isCSV {
		return csvFn(f)
	}
	return export.WriteJSON(f, v)
}
