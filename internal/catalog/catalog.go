// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package catalog holds the games and tools catalogs: their definitions,
// reads and live subscriptions, filtering, validation and usage tracking.
package catalog

import (
	"slices"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
)

// CategoryAll is the filter value matching every category.
const CategoryAll = "all"

// Flavor distinguishes the three kinds of rendered lists.
type Flavor string

// Flavors.
const (
	FlavorGames Flavor = "games"
	FlavorTools Flavor = "tools"
	FlavorUsers Flavor = "users"
)

// Definition describes one catalog.
type Definition struct {
	Collection   string
	Flavor       Flavor
	Categories   []string
	CounterField string
	DefaultIcon  string
}

// Games is the games catalog.
var Games = Definition{
	Collection:   model.CollectionGames,
	Flavor:       FlavorGames,
	Categories:   []string{"fun", "visual", "multiplayer", "puzzle"},
	CounterField: model.FieldPlays,
	DefaultIcon:  "fas fa-gamepad",
}

// Tools is the tools catalog.
var Tools = Definition{
	Collection:   model.CollectionTools,
	Flavor:       FlavorTools,
	Categories:   []string{"utility", "converter", "generator", "editor", "other"},
	CounterField: model.FieldUses,
	DefaultIcon:  "fas fa-tools",
}

// Lookup returns the definition for a collection name.
func Lookup(collection string) (Definition, bool) {
	switch collection {
	case Games.Collection:
		return Games, true
	case Tools.Collection:
		return Tools, true
	}
	return Definition{}, false
}

// HasCategory reports whether c belongs to the catalog's category set.
func (d Definition) HasCategory(c string) bool {
	return slices.Contains(d.Categories, c)
}

// EntryFromDocument maps a stored document to an Entry, carrying the
// document id.
func (d Definition) EntryFromDocument(doc backend.Document) model.Entry {
	e := model.Entry{
		ID:          doc.ID,
		Name:        doc.String(model.FieldName),
		Icon:        doc.String(model.FieldIcon),
		Category:    doc.String(model.FieldCategory),
		Link:        doc.String(model.FieldLink),
		Description: doc.String(model.FieldDescription),
		CreatedBy:   doc.String(model.FieldCreatedBy),
		Count:       doc.Int(d.CounterField),
	}
	if e.Icon == "" {
		e.Icon = d.DefaultIcon
	}
	if t, ok := doc.Time(model.FieldCreatedAt); ok {
		e.CreatedAt = t
	}
	return e
}

// UserFromDocument maps a users document to a User.
func UserFromDocument(doc backend.Document) model.User {
	u := model.User{
		ID:    doc.ID,
		Email: doc.String(model.FieldEmail),
		Role:  model.ParseRole(doc.String(model.FieldRole)),
	}
	if t, ok := doc.Time(model.FieldCreatedAt); ok {
		u.CreatedAt = t
	}
	if t, ok := doc.Time(model.FieldLastLogin); ok {
		u.LastLogin = t
	}
	return u
}
