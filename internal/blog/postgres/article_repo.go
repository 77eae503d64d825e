// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package postgres implements the article repository using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inkpress/inkpress/internal/blog"
)

// poolIface is the subset of pgxpool.Pool the repository uses.
// pgxmock satisfies it in unit tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ArticleRepository implements blog.ArticleRepository using PostgreSQL.
type ArticleRepository struct {
	pool poolIface
}

// NewArticleRepository creates a new ArticleRepository.
func NewArticleRepository(pool poolIface) *ArticleRepository {
	return &ArticleRepository{pool: pool}
}

// Create stores a new article. A duplicate title surfaces as blog.ErrDuplicate.
func (r *ArticleRepository) Create(ctx context.Context, article *blog.Article) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO articles (id, title, author, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		article.ID.String(),
		article.Title,
		article.Author,
		article.Content,
		article.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ARTICLE_DUPLICATE").
				With("title", article.Title).
				Wrap(blog.ErrDuplicate)
		}
		return oops.Code("ARTICLE_CREATE_FAILED").
			With("operation", "insert article").
			With("title", article.Title).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an article by ID.
func (r *ArticleRepository) GetByID(ctx context.Context, id ulid.ULID) (*blog.Article, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, author, content, created_at
		FROM articles
		WHERE id = $1
	`, id.String())

	article, err := scanArticle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ARTICLE_NOT_FOUND").
			With("id", id.String()).
			Wrap(blog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ARTICLE_GET_BY_ID_FAILED").
			With("operation", "get article by id").
			With("id", id.String()).
			Wrap(err)
	}
	return article, nil
}

// ListAll returns every article, newest first.
func (r *ArticleRepository) ListAll(ctx context.Context) ([]*blog.Article, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, author, content, created_at
		FROM articles
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, oops.Code("ARTICLE_LIST_FAILED").
			With("operation", "list articles").
			Wrap(err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// ListByAuthor returns the articles whose author equals the given username.
func (r *ArticleRepository) ListByAuthor(ctx context.Context, author string) ([]*blog.Article, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, author, content, created_at
		FROM articles
		WHERE author = $1
		ORDER BY created_at DESC
	`, author)
	if err != nil {
		return nil, oops.Code("ARTICLE_LIST_BY_AUTHOR_FAILED").
			With("operation", "list articles by author").
			With("author", author).
			Wrap(err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// UpdateContent sets title and content, leaving author and created_at alone.
// Absent IDs are a silent no-op.
func (r *ArticleRepository) UpdateContent(ctx context.Context, id ulid.ULID, title, content string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE articles SET title = $2, content = $3 WHERE id = $1
	`, id.String(), title, content)
	if err != nil {
		return oops.Code("ARTICLE_UPDATE_FAILED").
			With("operation", "update article").
			With("id", id.String()).
			Wrap(err)
	}
	return nil
}

// Delete removes an article by ID. Absent IDs are a no-op.
func (r *ArticleRepository) Delete(ctx context.Context, id ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM articles WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("ARTICLE_DELETE_FAILED").
			With("operation", "delete article").
			With("id", id.String()).
			Wrap(err)
	}
	return nil
}

func collectArticles(rows pgx.Rows) ([]*blog.Article, error) {
	articles := make([]*blog.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, oops.Code("ARTICLE_SCAN_FAILED").Wrap(err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ARTICLE_ITERATE_FAILED").Wrap(err)
	}
	return articles, nil
}

func scanArticle(row pgx.Row) (*blog.Article, error) {
	var (
		idStr     string
		title     string
		author    string
		content   string
		createdAt time.Time
	)

	if err := row.Scan(&idStr, &title, &author, &content, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, oops.Code("ARTICLE_SCAN_FAILED").Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ARTICLE_INVALID_ID").With("id", idStr).Wrap(err)
	}

	return &blog.Article{
		ID:        id,
		Title:     title,
		Author:    author,
		Content:   content,
		CreatedAt: createdAt,
	}, nil
}

// Compile-time interface check.
var _ blog.ArticleRepository = (*ArticleRepository)(nil)
