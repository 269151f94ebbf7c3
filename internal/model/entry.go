// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// Collection names in the document store.
const (
	CollectionUsers       = "users"
	CollectionGames       = "games"
	CollectionTools       = "tools"
	CollectionActivity    = "game_activity"
	CollectionDiagnostics = "diagnostics"
)

// Field names shared by catalog documents.
const (
	FieldName        = "name"
	FieldIcon        = "icon"
	FieldCategory    = "category"
	FieldLink        = "link"
	FieldDescription = "description"
	FieldCreatedAt   = "createdAt"
	FieldCreatedBy   = "createdBy"
	FieldPlays       = "plays"
	FieldUses        = "uses"
	FieldEmail       = "email"
	FieldRole        = "role"
	FieldLastLogin   = "lastLogin"
)

// iconFontMarker identifies icon-font class names such as "fas fa-gamepad".
const iconFontMarker = "fa-"

// Entry is one item of the games or tools catalog.
type Entry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Category    string    `json:"category"`
	Link        string    `json:"link"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	Count       int64     `json:"count"` // plays for games, uses for tools
}

// IconIsFont reports whether Icon is an icon-font class rather than an image URL.
func (e Entry) IconIsFont() bool {
	return strings.Contains(e.Icon, iconFontMarker)
}

// LaunchURL returns the link to open for play/use.
func (e Entry) LaunchURL() string {
	return NormalizeLink(e.Link)
}

// NormalizeLink prefixes https:// when the link carries no http(s) scheme.
func NormalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	lower := strings.ToLower(link)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return link
	}
	return "https://" + strings.TrimLeft(link, "/")
}

// Activity is an append-only usage record.
type Activity struct {
	UserID   string    `json:"user_id"`
	GameID   string    `json:"game_id"`
	PlayedAt time.Time `json:"played_at"`
	Client   string    `json:"client"`
}
