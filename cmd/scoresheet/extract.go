package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/scoresheet/internal/api"
	"github.com/jackzampolin/scoresheet/internal/config"
	"github.com/jackzampolin/scoresheet/internal/export"
	"github.com/jackzampolin/scoresheet/internal/pipeline"
	"github.com/jackzampolin/scoresheet/internal/stats"
	"github.com/jackzampolin/scoresheet/internal/svcctx"
)

// defaultDocument is extracted when no path is given.
const defaultDocument = "test-reduced.pdf"

var (
	extractCategories     []string
	extractExport         string
	extractDropBadNumbers bool
	extractNoPreflight    bool
	extractRaw            bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf]",
	Short: "Extract and merge player statistics from a scoresheet PDF",
	Long: `Upload a scoresheet PDF to the assistant, request every category table in
turn and merge the rows into one record per player.

Categories are fetched one at a time in a fixed order. Any assistant failure
aborts the whole run and nothing is printed or exported.

Examples:
  scoresheet extract game.pdf
  scoresheet extract game.pdf --categories passing,rushing
  scoresheet extract game.pdf --export game.xlsx -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc := svcctx.ServicesFrom(ctx)

		pdfPath := defaultDocument
		if len(args) == 1 {
			pdfPath = args[0]
		}

		cfg := svc.Config.Get()
		opts := extractOptions{
			Categories:     cfg.Extract.Categories,
			DropBadNumbers: cfg.Extract.DropBadNumbers || extractDropBadNumbers,
			Preflight:      cfg.Extract.Preflight && !extractNoPreflight,
		}
		if cmd.Flags().Changed("categories") {
			opts.Categories = extractCategories
		}

		result, err := runExtraction(ctx, svc, cfg, pdfPath, opts)
		if err != nil {
			return err
		}

		if extractExport != "" {
			if err := writeExport(extractExport, cfg, result); err != nil {
				return err
			}
			svc.Logger.Info("exported", "path", extractExport, "players", len(result.Players))
		}

		if !extractRaw {
			result = result.WithoutRaw()
		}
		return api.Output(result)
	},
}

type extractOptions struct {
	Categories     []string
	DropBadNumbers bool
	Preflight      bool
}

// runExtraction resolves categories and runs one pipeline over pdfPath.
func runExtraction(ctx context.Context, svc *svcctx.Services, cfg *config.Config, pdfPath string, opts extractOptions) (*pipeline.Result, error) {
	cats, err := cfg.Registry().Lookup(opts.Categories)
	if err != nil {
		return nil, err
	}

	starter, err := svc.NewStarter(cfg, svc.Logger)
	if err != nil {
		return nil, err
	}

	pcfg := pipeline.Config{
		Categories:     cats,
		DropBadNumbers: opts.DropBadNumbers,
		Recorder:       svc.Recorder(),
		Logger:         svc.Logger,
	}
	if opts.Preflight && svc.Scanner != nil {
		pcfg.Preflight = svc.Scanner
	}

	return pipeline.New(starter, pcfg).Run(ctx, pdfPath)
}

// writeExport writes result players in category column order.
func writeExport(path string, cfg *config.Config, result *pipeline.Result) error {
	var cats []stats.Category
	reg := cfg.Registry()
	for _, c := range result.Categories {
		if cat, ok := reg.Get(c.Key); ok {
			cats = append(cats, cat)
		}
	}
	table := export.NewTable(result.Players, export.StatKeys(cats, result.Players))
	if err := export.WriteFile(path, table, result.Conflicts); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func init() {
	extractCmd.Flags().StringSliceVar(&extractCategories, "categories", nil, "categories to fetch, comma separated (default: config extract.categories)")
	extractCmd.Flags().StringVar(&extractExport, "export", "", "also write players to this .csv or .xlsx file")
	extractCmd.Flags().BoolVar(&extractDropBadNumbers, "drop-bad-numbers", false, "drop rows whose player number does not parse")
	extractCmd.Flags().BoolVar(&extractNoPreflight, "no-preflight", false, "skip the local PDF check before upload")
	extractCmd.Flags().BoolVar(&extractRaw, "raw", false, "include each category's raw reply in the output")

	rootCmd.AddCommand(extractCmd)
}
