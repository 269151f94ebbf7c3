// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared across gamehub: identities
// and their roles, catalog entries, usage activity and diagnostic events.
package model

import (
	"time"
)

// Role is the authorization level of an identity.
type Role string

// Known roles. Anything else is treated as RoleUser.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts a stored role value into a Role.
// Unknown or empty values map to RoleUser so that a malformed record can
// never grant admin capability.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// User is the per-identity record kept in the users collection.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
