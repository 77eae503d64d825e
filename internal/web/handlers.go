// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/blog"
	"github.com/inkpress/inkpress/internal/form"
	"github.com/inkpress/inkpress/internal/observability"
)

// registerForm mirrors the registration rules: name and username 5–15
// characters, a plausible email, password present and matching confirm.
func registerForm() form.Form {
	return form.Form{Fields: []form.Field{
		{Name: "name", Rules: []form.Rule{form.Length(5, 15)}},
		{Name: "username", Rules: []form.Rule{form.Length(5, 15)}},
		{Name: "email", Rules: []form.Rule{form.Email("enter a valid email address")}},
		{Name: "password", Rules: []form.Rule{
			form.Required("please choose a password"),
			form.EqualTo("confirm", "passwords do not match"),
		}},
	}}
}

// articleForm is shared by the add and update handlers.
func articleForm() form.Form {
	return form.Form{Fields: []form.Field{
		{Name: "title", Rules: []form.Rule{form.Length(5, 100)}},
		{Name: "content", Rules: []form.Rule{form.MinLength(10)}},
	}}
}

// Handlers holds the route handlers and their dependencies.
type Handlers struct {
	auth         *auth.Service
	articles     blog.ArticleRepository
	metrics      *observability.Metrics
	logger       *slog.Logger
	cookieSecure bool
}

// NewHandlers creates the route handlers. metrics may be nil.
func NewHandlers(authSvc *auth.Service, articles blog.ArticleRepository, metrics *observability.Metrics, logger *slog.Logger, cookieSecure bool) (*Handlers, error) {
	if authSvc == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("auth service is required")
	}
	if articles == nil {
		return nil, oops.Code("WEB_NIL_DEPENDENCY").Errorf("article repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		auth:         authSvc,
		articles:     articles,
		metrics:      metrics,
		logger:       logger,
		cookieSecure: cookieSecure,
	}, nil
}

// render executes a page template with the session and any pending flash
// message merged into the data.
func (h *Handlers) render(c echo.Context, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	if session, ok := sessionFrom(c); ok {
		data["LoggedIn"] = true
		data["Username"] = session.Username
	}
	if flash, ok := popFlash(c); ok {
		data["Flash"] = flash
	}
	return c.Render(status, name, data)
}

// Home renders the landing page.
func (h *Handlers) Home(c echo.Context) error {
	return h.render(c, http.StatusOK, "index.html", nil)
}

// About renders the about page.
func (h *Handlers) About(c echo.Context) error {
	return h.render(c, http.StatusOK, "about.html", nil)
}

// Register handles the registration form. A duplicate username or email is
// deliberately not caught here; the storage error propagates and the request
// fails with a server error.
func (h *Handlers) Register(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return h.render(c, http.StatusOK, "register.html", map[string]any{
			"Values": map[string]string{},
			"Errors": map[string]string{},
		})
	}

	submitted, err := c.FormParams()
	if err != nil {
		return oops.Code("FORM_PARSE_FAILED").Wrap(err)
	}

	values, errs := registerForm().Validate(submitted)
	if len(errs) > 0 {
		return h.render(c, http.StatusOK, "register.html", map[string]any{
			"Values": values,
			"Errors": errs,
		})
	}

	if _, err := h.auth.Register(c.Request().Context(),
		values["name"], values["username"], values["email"], values["password"]); err != nil {
		return err
	}

	setFlash(c, "success", "You have registered successfully")
	return c.Redirect(http.StatusFound, "/login")
}

// Login handles the login form. Only POST triggers logic; GET renders the
// empty form.
func (h *Handlers) Login(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return h.render(c, http.StatusOK, "login.html", nil)
	}

	username := c.FormValue("username")
	password := c.FormValue("password")

	session, token, err := h.auth.Login(c.Request().Context(), username, password)
	switch {
	case errors.Is(err, auth.ErrUnknownUser):
		h.recordLogin("unknown_user")
		setFlash(c, "danger", "User not found")
		return c.Redirect(http.StatusFound, "/login")
	case errors.Is(err, auth.ErrWrongPassword):
		h.recordLogin("wrong_password")
		setFlash(c, "danger", "Wrong password")
		return c.Redirect(http.StatusFound, "/login")
	case err != nil:
		h.recordLogin("error")
		return err
	}

	h.recordLogin("success")
	h.setSessionCookie(c, token, session.ExpiresAt)
	setFlash(c, "success", "You have logged in successfully")
	return c.Redirect(http.StatusFound, "/")
}

// Logout clears the session and redirects home.
func (h *Handlers) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if session, err := h.auth.ValidateSession(c.Request().Context(), cookie.Value); err == nil {
			if err := h.auth.Logout(c.Request().Context(), session.ID); err != nil {
				h.logger.Warn("session delete failed on logout", "error", err)
			}
		}
	}
	h.clearSessionCookie(c)
	return c.Redirect(http.StatusFound, "/")
}

// Detail shows a single article. A missing or malformed id renders the page
// with no article; the template tolerates the absence.
func (h *Handlers) Detail(c echo.Context) error {
	var article *blog.Article

	if id, err := ulid.Parse(c.Param("id")); err == nil {
		found, err := h.articles.GetByID(c.Request().Context(), id)
		switch {
		case errors.Is(err, blog.ErrNotFound):
			// Render with no article.
		case err != nil:
			return err
		default:
			article = found
		}
	}

	return h.render(c, http.StatusOK, "article.html", map[string]any{
		"Article": article,
	})
}

// Dashboard lists the current user's articles.
func (h *Handlers) Dashboard(c echo.Context) error {
	session, _ := sessionFrom(c)

	articles, err := h.articles.ListByAuthor(c.Request().Context(), session.Username)
	if err != nil {
		return err
	}

	return h.render(c, http.StatusOK, "dashboard.html", map[string]any{
		"Articles": articles,
	})
}

// AddArticle handles the new-article form. The author is always the session
// username.
func (h *Handlers) AddArticle(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return h.render(c, http.StatusOK, "addarticle.html", map[string]any{
			"Values": map[string]string{},
			"Errors": map[string]string{},
		})
	}

	submitted, err := c.FormParams()
	if err != nil {
		return oops.Code("FORM_PARSE_FAILED").Wrap(err)
	}

	values, errs := articleForm().Validate(submitted)
	if len(errs) > 0 {
		return h.render(c, http.StatusOK, "addarticle.html", map[string]any{
			"Values": values,
			"Errors": errs,
		})
	}

	session, _ := sessionFrom(c)
	article := blog.NewArticle(values["title"], session.Username, values["content"])
	if err := h.articles.Create(c.Request().Context(), article); err != nil {
		return err
	}

	return c.Redirect(http.StatusFound, "/dashboard")
}

// Articles lists every article system-wide.
func (h *Handlers) Articles(c echo.Context) error {
	articles, err := h.articles.ListAll(c.Request().Context())
	if err != nil {
		return err
	}

	return h.render(c, http.StatusOK, "articles.html", map[string]any{
		"Articles": articles,
	})
}

// Delete removes an article and redirects to the dashboard regardless of
// outcome. Any logged-in user may delete any article; see DESIGN.md for the
// documented authorization gap.
func (h *Handlers) Delete(c echo.Context) error {
	if id, err := ulid.Parse(c.Param("id")); err == nil {
		if err := h.articles.Delete(c.Request().Context(), id); err != nil {
			return err
		}
	}
	return c.Redirect(http.StatusFound, "/dashboard")
}

// Update handles the edit form. GET pre-populates from the stored article;
// POST applies title and content to the row matching the id, a silent no-op
// when the id is absent.
func (h *Handlers) Update(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		id, err := ulid.Parse(c.Param("id"))
		if err != nil {
			setFlash(c, "danger", "No such article")
			return c.Redirect(http.StatusFound, "/")
		}

		article, err := h.articles.GetByID(c.Request().Context(), id)
		if errors.Is(err, blog.ErrNotFound) {
			setFlash(c, "danger", "No such article")
			return c.Redirect(http.StatusFound, "/")
		}
		if err != nil {
			return err
		}

		return h.render(c, http.StatusOK, "update.html", map[string]any{
			"Values": map[string]string{
				"title":   article.Title,
				"content": article.Content,
			},
			"Errors": map[string]string{},
			"ID":     article.ID.String(),
		})
	}

	submitted, err := c.FormParams()
	if err != nil {
		return oops.Code("FORM_PARSE_FAILED").Wrap(err)
	}

	values, errs := articleForm().Validate(submitted)
	if len(errs) > 0 {
		return h.render(c, http.StatusOK, "update.html", map[string]any{
			"Values": values,
			"Errors": errs,
			"ID":     c.Param("id"),
		})
	}

	if id, err := ulid.Parse(c.Param("id")); err == nil {
		if err := h.articles.UpdateContent(c.Request().Context(), id, values["title"], values["content"]); err != nil {
			return err
		}
	}

	return c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handlers) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}
