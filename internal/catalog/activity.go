package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mileusna/useragent"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
)

// RecordUse counts one play/use of an entry. Games also get a game_activity
// record. Failures are logged only; they never block the launch.
func (s *Store) RecordUse(ctx context.Context, def Definition, entryID, uid, userAgent string) {
	if err := s.recordUse(ctx, def, entryID, uid, userAgent); err != nil {
		slog.Warn("recording usage failed",
			"category", model.EventCategoryCatalog,
			"collection", def.Collection,
			"entry", entryID,
			"error", err,
		)
	}
}

func (s *Store) recordUse(ctx context.Context, def Definition, entryID, uid, userAgent string) error {
	// An entry deleted since it was loaded stays deleted.
	err := s.docs.UpdateRecord(ctx, def.Collection, entryID, map[string]any{
		def.CounterField: backend.Increment(1),
	})
	if errors.Is(err, backend.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("incrementing %s: %w", def.CounterField, err)
	}

	if def.Collection == model.CollectionGames {
		_, err := s.docs.AddRecord(ctx, model.CollectionActivity, map[string]any{
			"userId":   uid,
			"gameId":   entryID,
			"playedAt": backend.ServerTimestamp,
			"client":   ClientLabel(userAgent),
		})
		if err != nil {
			return fmt.Errorf("logging activity: %w", err)
		}
	}
	return nil
}

// ClientLabel summarizes a User-Agent header as "<browser> on <os>".
func ClientLabel(header string) string {
	if strings.TrimSpace(header) == "" {
		return "unknown"
	}
	ua := useragent.Parse(header)
	name := ua.Name
	if name == "" {
		name = "unknown"
	}
	if ua.Bot {
		name += " (bot)"
	}
	if ua.OS == "" {
		return name
	}
	return name + " on " + ua.OS
}
