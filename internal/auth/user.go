// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package auth provides user accounts, password hashing, and web sessions.
package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// User represents a registered account. Users are created at registration
// and never updated or deleted afterwards.
type User struct {
	ID           ulid.ULID
	Name         string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NewUser creates a User with a fresh ID and creation timestamp.
// The password must already be hashed.
func NewUser(name, username, email, passwordHash string) *User {
	return &User{
		ID:           ulid.Make(),
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
}

// UserRepository manages user persistence. Username and email are unique
// across all users; Create surfaces ErrDuplicate on a collision.
type UserRepository interface {
	// Create stores a new user.
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves a user by exact username match.
	// Returns ErrNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
