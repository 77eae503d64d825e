// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/auth"
)

func newUser() *auth.User {
	return &auth.User{
		ID:           ulid.Make(),
		Name:         "Alice Smith",
		Username:     "alice1",
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		CreatedAt:    time.Now(),
	}
}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := newUser()
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), user.Name, user.Username, user.Email, user.PasswordHash, user.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := NewUserRepository(mock)
		require.NoError(t, repo.Create(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to ErrDuplicate", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := newUser()
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), user.Name, user.Username, user.Email, user.PasswordHash, user.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"})

		repo := NewUserRepository(mock)
		err = repo.Create(ctx, user)
		require.ErrorIs(t, err, auth.ErrDuplicate)
	})

	t.Run("other database errors are not duplicates", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := newUser()
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID.String(), user.Name, user.Username, user.Email, user.PasswordHash, user.CreatedAt).
			WillReturnError(errors.New("connection refused"))

		repo := NewUserRepository(mock)
		err = repo.Create(ctx, user)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrDuplicate)
	})
}

func TestUserRepository_GetByUsername(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored user", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		user := newUser()
		rows := pgxmock.NewRows([]string{"id", "name", "username", "email", "password_hash", "created_at"}).
			AddRow(user.ID.String(), user.Name, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
		mock.ExpectQuery(`SELECT id, name, username, email, password_hash, created_at`).
			WithArgs(user.Username).
			WillReturnRows(rows)

		repo := NewUserRepository(mock)
		got, err := repo.GetByUsername(ctx, user.Username)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.Email, got.Email)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, name, username, email, password_hash, created_at`).
			WithArgs("nobody1").
			WillReturnError(pgx.ErrNoRows)

		repo := NewUserRepository(mock)
		_, err = repo.GetByUsername(ctx, "nobody1")
		require.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("corrupt id fails scan", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "name", "username", "email", "password_hash", "created_at"}).
			AddRow("not-a-ulid", "Alice Smith", "alice1", "alice@example.com", "hash", time.Now())
		mock.ExpectQuery(`SELECT id, name, username, email, password_hash, created_at`).
			WithArgs("alice1").
			WillReturnRows(rows)

		repo := NewUserRepository(mock)
		_, err = repo.GetByUsername(ctx, "alice1")
		require.Error(t, err)
	})
}
