// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint (username, email).
	ErrDuplicate = errors.New("duplicate")

	// ErrUnknownUser is returned by Login when the username has no account.
	ErrUnknownUser = errors.New("unknown user")

	// ErrWrongPassword is returned by Login when the password does not
	// match the stored hash.
	ErrWrongPassword = errors.New("wrong password")
)
