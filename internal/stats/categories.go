package stats

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a category key is not defined.
var ErrUnknownCategory = errors.New("unknown category")

// Category pairs a scoresheet table with the columns expected from it.
type Category struct {
	Key     string   `json:"key" yaml:"key"`
	Table   string   `json:"table" yaml:"table"`
	Columns []Column `json:"columns" yaml:"columns"`
	// Context is extra guidance for tables the oracle tends to misread.
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// Prompt builds the oracle instructions for this category.
func (c Category) Prompt() string {
	return BuildPrompt(c.Table, c.Columns, c.Context)
}

func numbers(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Type: ColumnNumber}
	}
	return cols
}

// Category keys, in the order they are fetched.
const (
	Passing       = "passing"
	Rushing       = "rushing"
	Receiving     = "receiving"
	Turnovers     = "turnovers"
	Kicking       = "kicking"
	Defense       = "defense"
	Interceptions = "interceptions"
)

// The kicking table prints two columns labelled MD. They are stored under
// distinct keys and the oracle is told which is which by position.
const kickingContext = `The table in the PDF has two columns labeled "MD".
The first (leftmost) MD column is made field goals, report it as MD_FG.
The second (rightmost) MD column is made 1-point converts, report it as MD_CONV.`

// Interceptions live in their own table, separate from the other defence stats.
const defenseContext = `The tables we are looking for in the PDF are on the page titled "INDIVIDUAL & TEAM DEFENCE".
The tables have 10 columns, with the first column being labeled "PLAYER".`

var builtin = []Category{
	{Key: Passing, Table: "PASSING", Columns: numbers("ATT", "COM", "YDS", "INT", "TD")},
	{Key: Rushing, Table: "RUSHING", Columns: numbers("ATT", "YDS", "TD")},
	{Key: Receiving, Table: "RECEIVING", Columns: numbers("TAR", "NO", "YDS", "TD")},
	{Key: Turnovers, Table: "TEAM LOSSES & FUMBLES", Columns: numbers("QS", "OTH", "FUM")},
	{Key: Kicking, Table: "FIELD GOALS & CONVERTS", Columns: numbers("FGA", "MD_FG", "S", "MD_CONV"), Context: kickingContext},
	{Key: Defense, Table: "PLAYER", Columns: numbers("DT", "QS", "FF"), Context: defenseContext},
	{Key: Interceptions, Table: "INTERCEPTIONS", Columns: numbers("INT")},
}

// Categories returns a copy of the built-in category table in fetch order.
func Categories() []Category {
	out := make([]Category, len(builtin))
	for i, c := range builtin {
		c.Columns = append([]Column(nil), c.Columns...)
		out[i] = c
	}
	return out
}

// Keys returns the keys of the given categories.
func Keys(categories []Category) []string {
	keys := make([]string, len(categories))
	for i, c := range categories {
		keys[i] = c.Key
	}
	return keys
}

// Registry is an ordered set of categories addressable by key.
type Registry struct {
	order []Category
	byKey map[string]int
}

// NewRegistry builds a registry from the built-ins followed by extra.
// An extra category whose key matches a built-in replaces it in place.
func NewRegistry(extra ...Category) *Registry {
	r := &Registry{byKey: make(map[string]int)}
	for _, c := range Categories() {
		r.add(c)
	}
	for _, c := range extra {
		r.add(c)
	}
	return r
}

func (r *Registry) add(c Category) {
	key := strings.ToLower(strings.TrimSpace(c.Key))
	c.Key = key
	if i, ok := r.byKey[key]; ok {
		r.order[i] = c
		return
	}
	r.byKey[key] = len(r.order)
	r.order = append(r.order, c)
}

// All returns every registered category in order.
func (r *Registry) All() []Category {
	return append([]Category(nil), r.order...)
}

// Get returns the category with the given key.
func (r *Registry) Get(key string) (Category, bool) {
	i, ok := r.byKey[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Category{}, false
	}
	return r.order[i], true
}

// Lookup resolves keys to categories. The result follows registry order, not
// the order of keys, and ignores duplicates. An empty key list selects all.
func (r *Registry) Lookup(keys []string) ([]Category, error) {
	if len(keys) == 0 {
		return r.All(), nil
	}
	want := make(map[int]bool, len(keys))
	for _, k := range keys {
		i, ok := r.byKey[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, k)
		}
		want[i] = true
	}
	out := make([]Category, 0, len(want))
	for i, c := range r.order {
		if want[i] {
			out = append(out, c)
		}
	}
	return out, nil
}
