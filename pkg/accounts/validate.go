// D2RLoader Core
// Copyright (c) 2026 The D2RLoader Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of D2RLoader Core.
//
// D2RLoader Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// D2RLoader Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with D2RLoader Core.  If not, see <http://www.gnu.org/licenses/>.

package accounts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError lists every field of an account that failed validation.
type ValidationError struct {
	Fields []FieldError
}

// FieldError is a single failed rule.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid account"
	}
	msgs := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// HasField reports whether the named struct field failed.
func (e *ValidationError) HasField(field string) bool {
	for _, fe := range e.Fields {
		if fe.Field == field {
			return true
		}
	}
	return false
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the account carries everything needed to start the
// game: an e-mail, a known auth method and region, and the credential that
// the auth method selects. Credential values are never echoed back.
func Validate(acc Account) error {
	err := validate.Struct(acc)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("account validation failed: %w", err)
	}
	ve := &ValidationError{Fields: make([]FieldError, len(errs))}
	for i, fe := range errs {
		ve.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: formatFieldError(fe),
		}
	}
	return ve
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		param := strings.Fields(fe.Param())
		method := "the selected"
		if len(param) > 0 {
			method = strings.ToLower(param[len(param)-1])
		}
		return fmt.Sprintf("%s is required for %s authentication", field, method)
	case "email":
		return fmt.Sprintf("%s %q is not a valid e-mail address", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s %q must be one of: %s", field, fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
