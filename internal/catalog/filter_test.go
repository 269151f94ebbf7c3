package catalog

import (
	"slices"
	"strings"
	"testing"

	"github.com/olegiv/gamehub/internal/model"
)

func sampleEntries() []model.Entry {
	return []model.Entry{
		{ID: "1", Name: "Snake", Category: "fun"},
		{ID: "2", Name: "Sudoku", Category: "puzzle"},
		{ID: "3", Name: "Snake Arena", Category: "multiplayer"},
		{ID: "4", Name: "Pixel Painter", Category: "visual"},
		{ID: "5", Name: "Tetris", Category: "puzzle"},
	}
}

func ids(entries []model.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	entries := sampleEntries()

	tests := []struct {
		name     string
		category string
		term     string
		want     []string
	}{
		{"all no term", CategoryAll, "", []string{"1", "2", "3", "4", "5"}},
		{"empty category means all", "", "", []string{"1", "2", "3", "4", "5"}},
		{"category only", "puzzle", "", []string{"2", "5"}},
		{"term only", CategoryAll, "snake", []string{"1", "3"}},
		{"term case insensitive", CategoryAll, "SNA", []string{"1", "3"}},
		{"category and term", "multiplayer", "snake", []string{"3"}},
		{"no match", "visual", "snake", []string{}},
		{"unknown category", "racing", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(entries, tt.category, tt.term))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Filter(%q, %q) = %v, want %v", tt.category, tt.term, got, tt.want)
			}
		})
	}
}

func TestFilterProperties(t *testing.T) {
	entries := sampleEntries()
	categories := []string{CategoryAll, "fun", "puzzle", "multiplayer", "visual", "racing"}
	terms := []string{"", "s", "SNAKE", "ku", "zzz"}

	for _, c := range categories {
		for _, s := range terms {
			got := Filter(entries, c, s)

			// Exactly the matching entries, in input order.
			var want []string
			for _, e := range entries {
				if (c == CategoryAll || e.Category == c) &&
					strings.Contains(strings.ToLower(e.Name), strings.ToLower(s)) {
					want = append(want, e.ID)
				}
			}
			if !slices.Equal(ids(got), append([]string{}, want...)) {
				t.Errorf("Filter(%q, %q) = %v, want %v", c, s, ids(got), want)
			}

			// Idempotent.
			if again := Filter(got, c, s); !slices.Equal(ids(again), ids(got)) {
				t.Errorf("Filter not idempotent for (%q, %q)", c, s)
			}
		}
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	entries := sampleEntries()
	_ = Filter(entries, "puzzle", "s")
	if !slices.Equal(ids(entries), []string{"1", "2", "3", "4", "5"}) {
		t.Errorf("input modified: %v", ids(entries))
	}
}

func TestViewState(t *testing.T) {
	v := NewViewState(sampleEntries())

	if got := ids(v.Filtered()); len(got) != 5 {
		t.Fatalf("initial Filtered() = %v", got)
	}

	first := v.Apply("puzzle", "")
	if !slices.Equal(ids(first), []string{"2", "5"}) {
		t.Fatalf("Apply(puzzle) = %v", ids(first))
	}
	if v.Category() != "puzzle" || v.Term() != "" {
		t.Errorf("state = (%q, %q)", v.Category(), v.Term())
	}

	// Same pair reuses the cached slice.
	again := v.Apply("puzzle", "")
	if &again[0] != &first[0] {
		t.Error("Apply with the same pair recomputed the result")
	}

	// New entries are filtered from scratch with the current pair.
	v.SetEntries(append(sampleEntries(), model.Entry{ID: "6", Name: "Chess", Category: "puzzle"}))
	if got := ids(v.Filtered()); !slices.Equal(got, []string{"2", "5", "6"}) {
		t.Errorf("Filtered() after SetEntries = %v", got)
	}
	if len(v.All()) != 6 {
		t.Errorf("All() = %d entries, want 6", len(v.All()))
	}

	if got := ids(v.Apply("", "tet")); !slices.Equal(got, []string{"5"}) {
		t.Errorf("Apply(all, tet) = %v", got)
	}
	if v.Category() != CategoryAll {
		t.Errorf("Category() = %q, want all", v.Category())
	}
}
