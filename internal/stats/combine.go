package stats

import (
	"fmt"
	"maps"
	"slices"
)

// Conflict records two categories disagreeing on the same field of the same player.
type Conflict struct {
	Player   string `json:"player" yaml:"player"`
	Field    string `json:"field" yaml:"field"`
	Previous string `json:"previous" yaml:"previous"`
	Value    string `json:"value" yaml:"value"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s: %s %q -> %q", c.Player, c.Field, c.Previous, c.Value)
}

// CombineResult holds merged players plus every conflict seen while merging.
type CombineResult struct {
	Players   []PlayerStats `json:"players" yaml:"players"`
	Conflicts []Conflict    `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

const (
	fieldTeam   = "team"
	fieldNumber = "number"
)

// Combine merges per-category records into one record per player name.
//
// Players appear in first-seen order. Stats maps are unioned; when a later
// record carries a different value for a stat already present the later value
// wins and a Conflict is recorded. Team and Number keep the first known value
// and only record a conflict on disagreement. Inputs are not modified.
func Combine(lists ...[]PlayerStats) CombineResult {
	index := make(map[string]int)
	var result CombineResult

	for _, list := range lists {
		for _, p := range list {
			i, seen := index[p.Name]
			if !seen {
				index[p.Name] = len(result.Players)
				result.Players = append(result.Players, p.clone())
				continue
			}
			result.Conflicts = append(result.Conflicts, merge(&result.Players[i], p)...)
		}
	}
	return result
}

func merge(dst *PlayerStats, src PlayerStats) []Conflict {
	var conflicts []Conflict

	switch {
	case dst.Team == "":
		dst.Team = src.Team
	case src.Team != "" && src.Team != dst.Team:
		conflicts = append(conflicts, Conflict{Player: dst.Name, Field: fieldTeam, Previous: dst.Team, Value: src.Team})
	}

	switch {
	case !dst.HasNumber():
		dst.Number = src.Number
	case src.HasNumber() && src.Number != dst.Number:
		conflicts = append(conflicts, Conflict{
			Player:   dst.Name,
			Field:    fieldNumber,
			Previous: fmt.Sprint(dst.Number),
			Value:    fmt.Sprint(src.Number),
		})
	}

	for _, k := range slices.Sorted(maps.Keys(src.Stats)) {
		v := src.Stats[k]
		if prev, ok := dst.Stats[k]; ok && prev != v {
			conflicts = append(conflicts, Conflict{Player: dst.Name, Field: k, Previous: prev, Value: v})
		}
		dst.Stats[k] = v
	}
	return conflicts
}
