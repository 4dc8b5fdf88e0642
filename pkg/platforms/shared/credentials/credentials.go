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

// Package credentials holds the credential injection strategies. Password
// logins are passed on the command line on every platform; token logins
// need a vault that stores the protected token where the game reads it.
package credentials

import (
	"context"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/rs/zerolog/log"
)

// TokenFlag tells the game to read the stored token instead of prompting.
var TokenFlag = []string{"-uid", "osi"}

// Vault protects a token for the current user and persists it, together
// with the region, where the game picks it up at start.
type Vault interface {
	Protect(plain []byte) ([]byte, error)
	WriteRegion(code string) error
	WriteToken(protected []byte) error
}

// PasswordArgs returns the login arguments for password authentication.
// The password is passed verbatim.
func PasswordArgs(acc accounts.Account) []string {
	return []string{
		"-username", acc.Email,
		"-password", acc.Password,
		"-address", acc.Region.Host(),
	}
}

func validatePassword(acc accounts.Account) error {
	if acc.Password == "" {
		return platforms.AuthError(
			"password authentication is selected but no password was provided", nil)
	}
	return nil
}

// TokenInjector supports both auth methods, storing tokens through a Vault.
type TokenInjector struct {
	Vault Vault
}

func (ti *TokenInjector) Validate(acc accounts.Account) error {
	switch acc.AuthMethod {
	case accounts.AuthToken:
		if acc.Token == "" {
			return platforms.AuthError(
				"token authentication is selected but no token was provided", nil)
		}
		if ti.Vault == nil {
			return platforms.AuthError("no token store is available", nil)
		}
		return nil
	case accounts.AuthPassword:
		return validatePassword(acc)
	default:
		return platforms.AuthError("unknown auth method "+string(acc.AuthMethod), nil)
	}
}

// Inject stores the token and region for token logins. The stored values
// are global to the OS user: callers must not run two injections and
// launches at the same time.
func (ti *TokenInjector) Inject(_ context.Context, acc accounts.Account) ([]string, error) {
	if err := ti.Validate(acc); err != nil {
		return nil, err
	}
	if acc.AuthMethod == accounts.AuthPassword {
		return PasswordArgs(acc), nil
	}

	protected, err := ti.Vault.Protect([]byte(acc.Token))
	if err != nil {
		return nil, platforms.InjectionError("could not encrypt token", err)
	}
	if len(protected) == 0 {
		return nil, platforms.InjectionError("could not encrypt token", nil)
	}

	code := acc.Region.Code()
	log.Debug().Str("account", acc.ID()).Str("region", code).Msg("writing launch region")
	if err := ti.Vault.WriteRegion(code); err != nil {
		return nil, platforms.InjectionError("could not store region", err)
	}
	if err := ti.Vault.WriteToken(protected); err != nil {
		return nil, platforms.InjectionError("could not store token", err)
	}

	return append([]string(nil), TokenFlag...), nil
}

// PasswordOnlyInjector is used where the game cannot read a stored token.
type PasswordOnlyInjector struct{}

func (PasswordOnlyInjector) Validate(acc accounts.Account) error {
	switch acc.AuthMethod {
	case accounts.AuthToken:
		return platforms.AuthError("token authentication is not supported on this platform", nil)
	case accounts.AuthPassword:
		return validatePassword(acc)
	default:
		return platforms.AuthError("unknown auth method "+string(acc.AuthMethod), nil)
	}
}

func (p PasswordOnlyInjector) Inject(_ context.Context, acc accounts.Account) ([]string, error) {
	if err := p.Validate(acc); err != nil {
		return nil, err
	}
	return PasswordArgs(acc), nil
}
