package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/scoresheet/internal/api"
	"github.com/jackzampolin/scoresheet/internal/llmcall"
	"github.com/jackzampolin/scoresheet/internal/pipeline"
	"github.com/jackzampolin/scoresheet/internal/svcctx"
)

var (
	historyLimit   int
	reparseExport  string
	reparseDropBad bool
	reparseRaw     bool
)

var errHistoryDisabled = errors.New("call history is disabled (history.enabled: false)")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded assistant calls",
}

func historyStore(cmd *cobra.Command) (llmcall.Store, error) {
	store := svcctx.CallStoreFrom(cmd.Context())
	if store == nil {
		return nil, errHistoryDisabled
	}
	return store, nil
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent extraction runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := historyStore(cmd)
		if err != nil {
			return err
		}
		runs, err := store.Runs(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if runs == nil {
			runs = []llmcall.RunSummary{}
		}
		return api.Output(runs)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show every recorded call of a run, including prompts and replies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := historyStore(cmd)
		if err != nil {
			return err
		}
		calls, err := store.ByRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}
		return api.Output(calls)
	},
}

var historyReparseCmd = &cobra.Command{
	Use:   "reparse <run-id>",
	Short: "Rebuild a run's result from stored replies without calling the assistant",
	Long: `Re-parse the replies recorded for a run with the current parser and
merge rules. Useful after changing category columns or parse options.
Failed calls in the run are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := svcctx.ServicesFrom(cmd.Context())
		store, err := historyStore(cmd)
		if err != nil {
			return err
		}
		calls, err := store.ByRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}

		cfg := svc.Config.Get()
		result, err := pipeline.Reparse(calls, cfg.Registry(), pipeline.ReparseOptions{
			DropBadNumbers: cfg.Extract.DropBadNumbers || reparseDropBad,
			Logger:         svc.Logger,
		})
		if err != nil {
			return err
		}

		if reparseExport != "" {
			if err := writeExport(reparseExport, cfg, result); err != nil {
				return err
			}
		}
		if !reparseRaw {
			result = result.WithoutRaw()
		}
		return api.Output(result)
	},
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list (0 for all)")
	historyReparseCmd.Flags().StringVar(&reparseExport, "export", "", "also write players to this .csv or .xlsx file")
	historyReparseCmd.Flags().BoolVar(&reparseDropBad, "drop-bad-numbers", false, "drop rows whose player number does not parse")
	historyReparseCmd.Flags().BoolVar(&reparseRaw, "raw", false, "include each category's raw reply in the output")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyReparseCmd)
	rootCmd.AddCommand(historyCmd)
}
