package main

import (
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/scoresheet/internal/api"
	"github.com/jackzampolin/scoresheet/internal/config"
	"github.com/jackzampolin/scoresheet/internal/ingest"
	"github.com/jackzampolin/scoresheet/internal/svcctx"
)

var (
	watchExisting bool
	watchFormat   string
)

// watchEvent is printed for every processed document.
type watchEvent struct {
	Name     string `json:"name" yaml:"name"`
	Document string `json:"document" yaml:"document"`
	RunID    string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Players  int    `json:"players" yaml:"players"`
	Export   string `json:"export,omitempty" yaml:"export,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Extract every PDF that appears in a directory",
	Long: `Watch directories (recursively) for new or rewritten PDFs and run an
extraction for each one, exporting players into {home}/exports/<name>.csv.

Documents are processed one at a time. A failed document is reported and
the watcher keeps going. Changes to the config file apply to the next
document. Stop with Ctrl+C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc := svcctx.ServicesFrom(ctx)
		log := svc.Logger

		if err := svc.Home.EnsureExists(); err != nil {
			return err
		}

		var mu sync.Mutex
		cfg := svc.Config.Get()
		svc.Config.OnChange(func(c *config.Config) {
			mu.Lock()
			cfg = c
			mu.Unlock()
			log.Info("config reloaded")
		})
		svc.Config.OnReloadError(func(err error) {
			log.Warn("ignoring invalid config change", "error", err)
		})
		if svc.Config.File() != "" {
			svc.Config.WatchConfig()
		}

		events, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
			Roots:       args,
			InitialScan: watchExisting,
			Debounce:    time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
			Logger:      log,
		})
		if err != nil {
			return err
		}
		log.Info("watching for PDFs", "roots", args)

		for {
			select {
			case <-ctx.Done():
				return nil
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				log.Warn("watch error", "error", err)
			case path, ok := <-events:
				if !ok {
					return nil
				}
				mu.Lock()
				current := cfg
				mu.Unlock()

				ev := watchEvent{Name: ingest.DocumentName(path), Document: path}
				result, err := runExtraction(ctx, svc, current, path, extractOptions{
					Categories:     current.Extract.Categories,
					DropBadNumbers: current.Extract.DropBadNumbers,
					Preflight:      current.Extract.Preflight,
				})
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					ev.Error = err.Error()
				} else {
					ev.RunID = result.RunID
					ev.Players = len(result.Players)
					dest := svc.Home.ExportPath(path, "."+watchFormat)
					if err := writeExport(dest, current, result); err != nil {
						ev.Error = err.Error()
					} else {
						ev.Export = dest
					}
				}
				if err := api.Output(ev); err != nil {
					return err
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also process PDFs already in the directory")
	watchCmd.Flags().StringVar(&watchFormat, "format", "csv", "export format: csv or xlsx")
	rootCmd.AddCommand(watchCmd)
}
