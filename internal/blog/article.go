// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package blog provides the article entity and its persistence contract.
package blog

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrNotFound is returned when a requested article does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates the unique title
	// constraint.
	ErrDuplicate = errors.New("duplicate")
)

// Article is a short text article. Author holds the writer's username as a
// plain string; it is attribution, not a foreign key.
type Article struct {
	ID        ulid.ULID
	Title     string
	Author    string
	Content   string
	CreatedAt time.Time
}

// NewArticle creates an Article with a fresh ID and creation timestamp.
func NewArticle(title, author, content string) *Article {
	return &Article{
		ID:        ulid.Make(),
		Title:     title,
		Author:    author,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// ArticleRepository manages article persistence.
type ArticleRepository interface {
	// Create stores a new article. A duplicate title surfaces as ErrDuplicate.
	Create(ctx context.Context, article *Article) error

	// GetByID retrieves an article by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*Article, error)

	// ListAll returns every article, newest first. An empty table yields an
	// empty slice, never nil semantics the caller must special-case.
	ListAll(ctx context.Context) ([]*Article, error)

	// ListByAuthor returns the articles whose author equals the given
	// username, newest first.
	ListByAuthor(ctx context.Context, author string) ([]*Article, error)

	// UpdateContent sets title and content on the article with the given ID,
	// leaving author and creation time untouched. Updating an absent ID is a
	// silent no-op.
	UpdateContent(ctx context.Context, id ulid.ULID, title, content string) error

	// Delete removes an article by ID. Deleting an absent ID is a no-op.
	Delete(ctx context.Context, id ulid.ULID) error
}
