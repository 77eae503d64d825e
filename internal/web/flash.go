// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package web

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const flashCookieName = "inkpress_flash"

// Flash is a one-shot status message rendered on the next page and then
// discarded. Category is a styling hint ("success" or "danger").
type Flash struct {
	Category string
	Message  string
}

// setFlash attaches a flash message to the response via a short-lived cookie.
func setFlash(c echo.Context, category, message string) {
	value := base64.URLEncoding.EncodeToString([]byte(category + "|" + message))
	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
	})
}

// popFlash reads and clears the pending flash message, if any.
func popFlash(c echo.Context) (Flash, bool) {
	cookie, err := c.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return Flash{}, false
	}

	// Clear regardless of whether the value decodes.
	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	return decodeFlash(cookie.Value)
}

// decodeFlash parses the cookie encoding produced by setFlash.
func decodeFlash(value string) (Flash, bool) {
	decoded, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return Flash{}, false
	}
	category, message, found := strings.Cut(string(decoded), "|")
	if !found {
		return Flash{}, false
	}
	return Flash{Category: category, Message: message}, true
}
