// Package stats holds the scoresheet data model together with the pieces of
// logic that turn an oracle reply into player records: prompt construction,
// reply parsing and per-player merging.
package stats

// ColumnType is the declared type of a column in a category table.
// It is only used to describe the column to the oracle; values are never coerced.
type ColumnType string

const (
	ColumnNumber ColumnType = "number"
	ColumnString ColumnType = "string"
)

// Column describes one expected field in a category's table.
type Column struct {
	Name string     `json:"name" yaml:"name"`
	Type ColumnType `json:"type" yaml:"type"`
}

// NoNumber is the player number assigned to rows whose number token could not
// be parsed, when the caller opts into keeping them.
const NoNumber = -1

// PlayerStats is one player's accumulated statistics.
// Name is the merge key. Stats maps a column name to the raw value the oracle returned.
type PlayerStats struct {
	Name   string            `json:"name" yaml:"name"`
	Number int               `json:"number" yaml:"number"`
	Team   string            `json:"team" yaml:"team"`
	Stats  map[string]string `json:"stats" yaml:"stats"`
}

// HasNumber reports whether the player number was parsed successfully.
func (p PlayerStats) HasNumber() bool {
	return p.Number != NoNumber
}

func (p PlayerStats) clone() PlayerStats {
	out := p
	out.Stats = make(map[string]string, len(p.Stats))
	for k, v := range p.Stats {
		out.Stats[k] = v
	}
	return out
}

// ColumnNames returns the column names in declaration order.
func ColumnNames(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}
