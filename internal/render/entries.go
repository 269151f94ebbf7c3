package render

import (
	"io"

	"github.com/olegiv/gamehub/internal/catalog"
	"github.com/olegiv/gamehub/internal/model"
)

// Layouts of a rendered list.
const (
	LayoutGrid  = "grid"
	LayoutTable = "table"
)

// ListView is the input of one list fragment. The fragment always replaces
// the container content as a whole.
type ListView struct {
	Flavor  catalog.Flavor
	Layout  string
	Entries []model.Entry
	Users   []model.User
	IsAdmin bool
	Lang    string
	// Filtered marks a list narrowed by category or search, which selects
	// the "nothing found" placeholder instead of "nothing yet".
	Filtered bool
}

// Empty reports whether the list has nothing to show.
func (v ListView) Empty() bool {
	if v.Flavor == catalog.FlavorUsers {
		return len(v.Users) == 0
	}
	return len(v.Entries) == 0
}

// EmptyKey is the translation key of the empty placeholder.
func (v ListView) EmptyKey() string {
	switch {
	case v.Flavor == catalog.FlavorUsers:
		return "empty.users"
	case v.Filtered:
		return "empty." + string(v.Flavor) + "_no_match"
	}
	return "empty." + string(v.Flavor)
}

// Collection is the catalog collection behind the list, "" for users.
func (v ListView) Collection() string {
	switch v.Flavor {
	case catalog.FlavorGames:
		return catalog.Games.Collection
	case catalog.FlavorTools:
		return catalog.Tools.Collection
	}
	return ""
}

// RenderEntries writes the list fragment for v.
func (r *Renderer) RenderEntries(w io.Writer, v ListView) error {
	if v.Layout == "" {
		v.Layout = LayoutGrid
	}
	return r.RenderFragment(w, "entries", v)
}
