// Package logging provides a slog handler that mirrors warnings and errors
// into the diagnostics collection of the document store.
package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
)

type diagnosticsKey struct{}

// writeTimeout bounds a single diagnostics write.
const writeTimeout = 5 * time.Second

// DiagnosticsHandler is a slog.Handler that wraps another handler and also
// writes records at or above its level to the diagnostics collection.
type DiagnosticsHandler struct {
	inner slog.Handler
	docs  backend.Documents
	level slog.Level
	attrs []slog.Attr
}

// NewDiagnosticsHandler wraps inner. Logs at WARN level and above are also
// appended to the diagnostics collection.
func NewDiagnosticsHandler(inner slog.Handler, docs backend.Documents) *DiagnosticsHandler {
	return NewDiagnosticsHandlerWithLevel(inner, docs, slog.LevelWarn)
}

// NewDiagnosticsHandlerWithLevel creates a DiagnosticsHandler with a custom minimum level.
func NewDiagnosticsHandlerWithLevel(inner slog.Handler, docs backend.Documents, level slog.Level) *DiagnosticsHandler {
	return &DiagnosticsHandler{inner: inner, docs: docs, level: level}
}

// Enabled implements slog.Handler.
func (h *DiagnosticsHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *DiagnosticsHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	// Records emitted while writing a diagnostic are not written again.
	if r.Level >= h.level && ctx.Value(diagnosticsKey{}) == nil {
		h.write(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *DiagnosticsHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &DiagnosticsHandler{
		inner: h.inner.WithAttrs(attrs),
		docs:  h.docs,
		level: h.level,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

// WithGroup implements slog.Handler.
func (h *DiagnosticsHandler) WithGroup(name string) slog.Handler {
	return &DiagnosticsHandler{
		inner: h.inner.WithGroup(name),
		docs:  h.docs,
		level: h.level,
		attrs: h.attrs,
	}
}

// write stores the record detached from the caller's context so that a
// cancelled request still leaves its diagnostic behind.
func (h *DiagnosticsHandler) write(r slog.Record) {
	ctx, cancel := context.WithTimeout(context.WithValue(context.Background(), diagnosticsKey{}, true), writeTimeout)
	defer cancel()

	category, metadata := h.collect(r)
	_, _ = h.docs.AddRecord(ctx, model.CollectionDiagnostics, map[string]any{
		"level":     eventLevel(r.Level),
		"category":  category,
		"message":   r.Message,
		"metadata":  metadata,
		"createdAt": r.Time.UTC(),
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// collect returns the record category and its remaining attributes as
// strings. Without an explicit "category" attribute the category is guessed
// from the message.
func (h *DiagnosticsHandler) collect(r slog.Record) (string, map[string]any) {
	var category string
	metadata := make(map[string]any)

	add := func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return true
		}
		metadata[a.Key] = a.Value.String()
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)

	if category == "" {
		category = inferCategory(r.Message)
	}
	return category, metadata
}

func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "sign"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "role"):
		return model.EventCategoryRole
	case strings.Contains(msg, "stream") || strings.Contains(msg, "subscri"):
		return model.EventCategoryStream
	case strings.Contains(msg, "game") || strings.Contains(msg, "tool") || strings.Contains(msg, "catalog"):
		return model.EventCategoryCatalog
	default:
		return model.EventCategorySystem
	}
}
