package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/scoresheet/internal/api"
	"github.com/jackzampolin/scoresheet/internal/ingest"
	"github.com/jackzampolin/scoresheet/internal/pdfscan"
	"github.com/jackzampolin/scoresheet/internal/svcctx"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <pdf|dir>...",
	Short: "Check PDFs locally without contacting the assistant",
	Long: `Validate scoresheet PDFs, count their pages and report which pages mention
each category's table title. Nothing is uploaded. Directories are searched
recursively for PDFs.

A missing title is only a hint: the assistant reads the rendered tables,
and scanned scoresheets often have no text layer at all.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := svcctx.ServicesFrom(cmd.Context())
		cats, err := svc.Config.Get().Registry().Lookup(nil)
		if err != nil {
			return err
		}

		// A single file prints a single report.
		if len(args) == 1 && ingest.IsPDF(args[0]) {
			report, err := svc.Scanner.Scan(args[0], cats)
			if err != nil {
				return err
			}
			return api.Output(report)
		}

		paths, err := ingest.Discover(args)
		if err != nil {
			return err
		}
		reports := make([]*pdfscan.Report, 0, len(paths))
		for _, p := range paths {
			report, err := svc.Scanner.Scan(p, cats)
			if err != nil {
				return err
			}
			reports = append(reports, report)
		}
		return api.Output(reports)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
