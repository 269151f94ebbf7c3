package catalog

import (
	"strings"

	"github.com/olegiv/gamehub/internal/model"
)

// Filter returns the entries matching category (or CategoryAll) whose name
// contains term, case-insensitively. Order is preserved.
func Filter(entries []model.Entry, category, term string) []model.Entry {
	if category == "" {
		category = CategoryAll
	}
	needle := strings.ToLower(term)

	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if category != CategoryAll && e.Category != category {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.Name), needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ViewState is the filter state of one list view. The filtered slice is
// always recomputed from the full collection; only the result for the last
// (category, term) pair is reused.
type ViewState struct {
	all      []model.Entry
	category string
	term     string
	filtered []model.Entry
	fresh    bool
}

// NewViewState creates a view over entries with no filter applied.
func NewViewState(entries []model.Entry) *ViewState {
	return &ViewState{all: entries, category: CategoryAll}
}

// SetEntries replaces the full collection.
func (v *ViewState) SetEntries(entries []model.Entry) {
	v.all = entries
	v.fresh = false
}

// Apply sets the filter and returns the matching entries.
func (v *ViewState) Apply(category, term string) []model.Entry {
	if category == "" {
		category = CategoryAll
	}
	if v.fresh && category == v.category && term == v.term {
		return v.filtered
	}
	v.category, v.term = category, term
	v.filtered = Filter(v.all, category, term)
	v.fresh = true
	return v.filtered
}

// Filtered returns the entries for the current filter.
func (v *ViewState) Filtered() []model.Entry {
	return v.Apply(v.category, v.term)
}

// All returns the full collection.
func (v *ViewState) All() []model.Entry { return v.all }

// Category returns the current category filter.
func (v *ViewState) Category() string { return v.category }

// Term returns the current search term.
func (v *ViewState) Term() string { return v.term }
