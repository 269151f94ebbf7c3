// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the HTML templates and static assets served by gamehub.
package web

import "embed"

// Templates holds layouts, partials, list fragments and pages.
//
//go:embed all:templates
var Templates embed.FS

//go:embed all:static/dist
var Static embed.FS
