// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
)

// seedCreator marks catalog entries created by Seed rather than an admin.
const seedCreator = "seed"

type seedEntry struct {
	collection string
	fields     map[string]any
}

var seedEntries = []seedEntry{
	{model.CollectionGames, map[string]any{
		model.FieldName: "2048", model.FieldIcon: "fas fa-th", model.FieldCategory: "puzzle",
		model.FieldLink: "play2048.co", model.FieldDescription: "Slide tiles and merge them up to **2048**.",
	}},
	{model.CollectionGames, map[string]any{
		model.FieldName: "Slither", model.FieldIcon: "fas fa-worm", model.FieldCategory: "multiplayer",
		model.FieldLink: "slither.io", model.FieldDescription: "Grow the longest snake on the server.",
	}},
	{model.CollectionGames, map[string]any{
		model.FieldName: "Chrome Dino", model.FieldIcon: "fas fa-dragon", model.FieldCategory: "fun",
		model.FieldLink: "chromedino.com",
	}},
	{model.CollectionTools, map[string]any{
		model.FieldName: "JSON Formatter", model.FieldIcon: "fas fa-code", model.FieldCategory: "editor",
		model.FieldLink: "jsonformatter.org", model.FieldDescription: "Pretty-print and validate JSON.",
	}},
	{model.CollectionTools, map[string]any{
		model.FieldName: "Unit Converter", model.FieldIcon: "fas fa-ruler", model.FieldCategory: "converter",
		model.FieldLink: "unitconverters.net",
	}},
}

// Seed adds sample catalog entries when both catalogs are empty.
// No accounts are created: the first registrant becomes admin.
func Seed(ctx context.Context, docs backend.Documents) error {
	for _, c := range []string{model.CollectionGames, model.CollectionTools} {
		n, err := docs.Count(ctx, c)
		if err != nil {
			return fmt.Errorf("checking %s: %w", c, err)
		}
		if n > 0 {
			slog.Info("catalog already populated, skipping seed", "collection", c)
			return nil
		}
	}

	for _, e := range seedEntries {
		fields := make(map[string]any, len(e.fields)+3)
		for k, v := range e.fields {
			fields[k] = v
		}
		fields[model.FieldCreatedAt] = backend.ServerTimestamp
		fields[model.FieldCreatedBy] = seedCreator
		if e.collection == model.CollectionGames {
			fields[model.FieldPlays] = 0
		} else {
			fields[model.FieldUses] = 0
		}
		if _, err := docs.AddRecord(ctx, e.collection, fields); err != nil {
			return fmt.Errorf("seeding %s: %w", e.collection, err)
		}
	}

	slog.Info("seeded sample catalog", "entries", len(seedEntries))
	return nil
}
