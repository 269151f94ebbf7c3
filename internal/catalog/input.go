package catalog

import (
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
)

// Validation errors.
var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrUnknownCategory = errors.New("unknown category")
)

var plainText = bluemonday.StrictPolicy()

// EntryInput is the add-entry form.
type EntryInput struct {
	Name        string
	Icon        string
	Category    string
	Link        string
	Description string
}

// Validate cleans in and checks that name, icon, category and link are
// present and that category belongs to the catalog.
func (d Definition) Validate(in EntryInput) (EntryInput, error) {
	out := EntryInput{
		Name:        stripMarkup(in.Name),
		Icon:        strings.TrimSpace(in.Icon),
		Category:    strings.TrimSpace(in.Category),
		Link:        strings.TrimSpace(in.Link),
		Description: strings.TrimSpace(in.Description),
	}
	if out.Name == "" || out.Icon == "" || out.Category == "" || out.Link == "" {
		return out, ErrMissingFields
	}
	if !d.HasCategory(out.Category) {
		return out, ErrUnknownCategory
	}
	return out, nil
}

// fields builds the stored document for a validated input.
func (d Definition) fields(in EntryInput, creator string) map[string]any {
	f := map[string]any{
		model.FieldName:      in.Name,
		model.FieldIcon:      in.Icon,
		model.FieldCategory:  in.Category,
		model.FieldLink:      in.Link,
		model.FieldCreatedAt: backend.ServerTimestamp,
		model.FieldCreatedBy: creator,
		d.CounterField:       0,
	}
	if in.Description != "" {
		f[model.FieldDescription] = in.Description
	}
	return f
}

func stripMarkup(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}
