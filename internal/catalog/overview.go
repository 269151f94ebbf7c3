package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/gamehub/internal/model"
)

// RecentLimit is the number of items in the dashboard's recent lists.
const RecentLimit = 5

// CategoryCount is the number of entries in one category.
type CategoryCount struct {
	Category string
	Count    int
}

// Overview is the dashboard summary.
type Overview struct {
	Users       int
	Games       int
	Tools       int
	TopGame     *model.Entry
	RecentGames []model.Entry
	RecentUsers []model.User
	Categories  []CategoryCount
}

// Overview loads the dashboard summary. The three collections are read
// concurrently.
func (s *Store) Overview(ctx context.Context) (Overview, error) {
	var (
		ov    Overview
		games []model.Entry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		games, err = s.Entries(gctx, Games)
		return err
	})
	g.Go(func() error {
		n, err := s.docs.Count(gctx, Tools.Collection)
		if err != nil {
			return fmt.Errorf("counting tools: %w", err)
		}
		ov.Tools = n
		return nil
	})
	g.Go(func() error {
		n, err := s.docs.Count(gctx, model.CollectionUsers)
		if err != nil {
			return fmt.Errorf("counting users: %w", err)
		}
		ov.Users = n
		return nil
	})
	g.Go(func() error {
		var err error
		ov.RecentUsers, err = s.Users(gctx, RecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	ov.Games = len(games)
	ov.RecentGames = games[:min(RecentLimit, len(games))]
	ov.TopGame = topByCount(games)
	ov.Categories = countByCategory(Games, games)
	return ov, nil
}

// topByCount returns the entry with the highest count; ties go to the newer
// entry. Entries never used do not qualify.
func topByCount(entries []model.Entry) *model.Entry {
	var top *model.Entry
	for i := range entries {
		if entries[i].Count > 0 && (top == nil || entries[i].Count > top.Count) {
			top = &entries[i]
		}
	}
	return top
}

func countByCategory(def Definition, entries []model.Entry) []CategoryCount {
	counts := make(map[string]int, len(def.Categories))
	for _, e := range entries {
		counts[e.Category]++
	}
	out := make([]CategoryCount, 0, len(def.Categories))
	for _, c := range def.Categories {
		out = append(out, CategoryCount{Category: c, Count: counts[c]})
	}
	return out
}
