// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/observability"
)

const (
	sessionCookieName = "inkpress_session"

	// sessionContextKey carries the validated *auth.Session on the echo
	// context for gated handlers.
	sessionContextKey = "inkpress.session"
)

// RequireLogin gates a handler behind a valid session. Requests without one
// get a flash message and a redirect to the login page; the wrapped handler
// never runs.
func (h *Handlers) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			return h.redirectToLogin(c)
		}

		session, err := h.auth.ValidateSession(c.Request().Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				h.clearSessionCookie(c)
				return h.redirectToLogin(c)
			}
			return err
		}

		c.Set(sessionContextKey, session)
		return next(c)
	}
}

func (h *Handlers) redirectToLogin(c echo.Context) error {
	setFlash(c, "danger", "Please log in to view this page")
	return c.Redirect(http.StatusFound, "/login")
}

// sessionFrom returns the validated session set by RequireLogin.
func sessionFrom(c echo.Context) (*auth.Session, bool) {
	session, ok := c.Get(sessionContextKey).(*auth.Session)
	return session, ok
}

func (h *Handlers) setSessionCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequestMetrics records per-route request counts. A nil metrics handle
// disables recording.
func RequestMetrics(metrics *observability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if metrics != nil {
				status := c.Response().Status
				if err != nil {
					var he *echo.HTTPError
					if errors.As(err, &he) {
						status = he.Code
					} else {
						status = http.StatusInternalServerError
					}
				}
				metrics.RequestsTotal.WithLabelValues(c.Path(), strconv.Itoa(status)).Inc()
			}
			return err
		}
	}
}
