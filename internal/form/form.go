// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package form provides declarative validation of submitted form fields.
package form

import (
	"fmt"
	"net/url"
	"regexp"
)

// emailRegex matches a pragmatic email shape: local part, "@", domain with
// at least one dot. Full RFC 5322 validation is deliberately out of scope.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Rule validates a single submitted value. It returns an empty string when
// the value passes, or a user-facing error message when it does not.
// The full submission is provided for cross-field rules.
type Rule func(value string, submitted url.Values) string

// Field pairs a form field name with its ordered rules. The first failing
// rule produces the field's error message; later rules are not evaluated.
type Field struct {
	Name  string
	Rules []Rule
}

// Form is an ordered list of fields to validate.
type Form struct {
	Fields []Field
}

// Validate evaluates every field against the submission. It returns the
// submitted values keyed by field name and a field→message map of errors.
// The values map is always populated, so handlers can re-render a form with
// the user's input even when validation fails.
func (f Form) Validate(submitted url.Values) (values map[string]string, errs map[string]string) {
	values = make(map[string]string, len(f.Fields))
	errs = make(map[string]string)

	for _, field := range f.Fields {
		value := submitted.Get(field.Name)
		values[field.Name] = value

		for _, rule := range field.Rules {
			if msg := rule(value, submitted); msg != "" {
				errs[field.Name] = msg
				break
			}
		}
	}

	return values, errs
}

// Valid reports whether the submission passes all rules.
func (f Form) Valid(submitted url.Values) bool {
	_, errs := f.Validate(submitted)
	return len(errs) == 0
}

// Required fails on an empty value.
func Required(msg string) Rule {
	return func(value string, _ url.Values) string {
		if value == "" {
			return msg
		}
		return ""
	}
}

// Length bounds the value length to [min, max] characters.
func Length(min, max int) Rule {
	return func(value string, _ url.Values) string {
		if len(value) < min || len(value) > max {
			return fmt.Sprintf("must be between %d and %d characters", min, max)
		}
		return ""
	}
}

// MinLength requires at least min characters.
func MinLength(min int) Rule {
	return func(value string, _ url.Values) string {
		if len(value) < min {
			return fmt.Sprintf("must be at least %d characters", min)
		}
		return ""
	}
}

// Email requires a valid email shape.
func Email(msg string) Rule {
	return func(value string, _ url.Values) string {
		if !emailRegex.MatchString(value) {
			return msg
		}
		return ""
	}
}

// EqualTo requires the value to match another submitted field.
func EqualTo(other, msg string) Rule {
	return func(value string, submitted url.Values) string {
		if value != submitted.Get(other) {
			return msg
		}
		return ""
	}
}
