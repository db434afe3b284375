package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/scoresheet/internal/api"
	"github.com/jackzampolin/scoresheet/internal/stats"
	"github.com/jackzampolin/scoresheet/internal/svcctx"
)

var categoriesPrompt bool

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the category tables requested from each scoresheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := svcctx.ServicesFrom(cmd.Context())
		cats := svc.Config.Get().Registry().All()

		type entry struct {
			Key     string   `json:"key" yaml:"key"`
			Table   string   `json:"table" yaml:"table"`
			Columns []string `json:"columns" yaml:"columns"`
			Context string   `json:"context,omitempty" yaml:"context,omitempty"`
			Prompt  string   `json:"prompt,omitempty" yaml:"prompt,omitempty"`
		}
		out := make([]entry, len(cats))
		for i, c := range cats {
			out[i] = entry{Key: c.Key, Table: c.Table, Columns: stats.ColumnNames(c.Columns), Context: c.Context}
			if categoriesPrompt {
				out[i].Prompt = c.Prompt()
			}
		}
		return api.Output(out)
	},
}

func init() {
	categoriesCmd.Flags().BoolVar(&categoriesPrompt, "prompt", false, "include the full prompt sent for each category")
	rootCmd.AddCommand(categoriesCmd)
}
