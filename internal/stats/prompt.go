package stats

import (
	"regexp"
	"strings"
)

// fixedColumns are emitted ahead of every category's own columns.
var fixedColumns = []Column{
	{Name: "Name", Type: ColumnString},
	{Name: "Team", Type: ColumnString},
	{Name: "PlayerNumber", Type: ColumnNumber},
}

var reWhitespaceRun = regexp.MustCompile(`\s+`)

// BuildPrompt composes the instructions sent to the oracle for one table.
// additionalContext is appended as-is (whitespace collapsed) to help the oracle
// resolve ambiguous layouts such as duplicated column labels.
func BuildPrompt(tableName string, columns []Column, additionalContext string) string {
	all := make([]Column, 0, len(fixedColumns)+len(columns))
	all = append(all, fixedColumns...)
	all = append(all, columns...)

	var types strings.Builder
	for _, c := range all {
		types.WriteString("- ")
		types.WriteString(c.Name)
		types.WriteString(": ")
		types.WriteString(string(c.Type))
		types.WriteString("\n")
	}

	parts := []string{
		"Please summarize the individual player statistics from the",
		"following columns in the " + tableName + " tables:",
		strings.Join(ColumnNames(all), ", "),
		"",
		"There should be two tables, one for each team.",
		"I want you to combine all players from both teams in the output.",
		"Summarize the data in CSV format.",
		"Wrap strings in quotes and separate columns with tabs.",
		"",
		"This is the format for each column:",
		strings.TrimRight(types.String(), "\n"),
		"",
		`Player names should be in the format "LAST First".`,
		"Do not include any other output aside from the CSV rows,",
		"including the triple quotes indicating the start and end of the csv block.",
		"Do not include any column headers, just the data. Make sure the columns",
		"are in the same order as I gave you.",
	}

	if ctx := strings.TrimSpace(reWhitespaceRun.ReplaceAllString(additionalContext, " ")); ctx != "" {
		parts = append(parts, "", ctx)
	}

	return strings.Join(parts, "\n") + "\n"
}
