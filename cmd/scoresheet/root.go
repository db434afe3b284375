package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/scoresheet/internal/api"
	"github.com/jackzampolin/scoresheet/internal/config"
	"github.com/jackzampolin/scoresheet/internal/home"
	"github.com/jackzampolin/scoresheet/internal/llmcall"
	"github.com/jackzampolin/scoresheet/internal/pdfscan"
	"github.com/jackzampolin/scoresheet/internal/svcctx"
	"github.com/jackzampolin/scoresheet/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

// newStarter is swapped out in tests.
var newStarter svcctx.StarterFactory = svcctx.OpenAIStarter

// skipServices marks commands that must run without loading config.
const skipServices = "skip-services"

var rootCmd = &cobra.Command{
	Use:   "scoresheet",
	Short: "Extract player statistics from football scoresheet PDFs",
	Long: `Scoresheet sends a game scoresheet PDF to a hosted assistant, asks it to
transcribe each statistics table (passing, rushing, receiving, turnovers,
kicking, defence, interceptions) and merges the rows into one record per player.

Results print as YAML or JSON and can be exported to CSV or XLSX. Every
assistant call is kept in a local history so runs can be re-parsed offline.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := api.SetOutputFormat(outputFormat); err != nil {
			return err
		}
		if cmd.Annotations[skipServices] == "true" {
			return nil
		}

		svc, err := buildServices()
		if err != nil {
			return err
		}
		cmd.SetContext(svcctx.WithServices(cmd.Context(), svc))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if svc := svcctx.ServicesFrom(cmd.Context()); svc != nil {
			return svc.Close()
		}
		return nil
	},
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	// stdout carries command output
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func buildServices() (*svcctx.Services, error) {
	logger := newLogger()
	slog.SetDefault(logger)

	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}

	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	if f := mgr.File(); f != "" {
		logger.Debug("loaded config", "file", f)
	}

	svc := &svcctx.Services{
		Config:     mgr,
		Logger:     logger,
		Home:       h,
		Scanner:    pdfscan.New(logger),
		NewStarter: newStarter,
	}

	cfg := mgr.Get()
	if cfg.History.Enabled {
		path := cfg.HistoryPath(h.Path())
		store, err := llmcall.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open history %s: %w", path, err)
		}
		svc.CallStore = store
	}
	return svc, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.scoresheet/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "scoresheet home directory (default: ~/.scoresheet)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.AddCommand(versionCmd)
}
