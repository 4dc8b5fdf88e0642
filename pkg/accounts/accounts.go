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

// Package accounts holds the Battle.net account model consumed by the
// launcher, along with its identity normalization, validation and the JSON
// account list.
package accounts

import (
	"strings"
)

// AuthMethod selects which credential is handed to the game.
type AuthMethod string

const (
	AuthToken    AuthMethod = "Token"
	AuthPassword AuthMethod = "Password"
)

// UnmarshalText accepts the method name in any case. Unknown values are kept
// verbatim so that validation can report them.
func (m *AuthMethod) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	switch strings.ToLower(raw) {
	case "token":
		*m = AuthToken
	case "password":
		*m = AuthPassword
	default:
		*m = AuthMethod(raw)
	}
	return nil
}

// Region is a Battle.net gateway.
type Region string

const (
	RegionEurope   Region = "Europe"
	RegionAmericas Region = "Americas"
	RegionAsia     Region = "Asia"
)

var regionHosts = map[Region]string{
	RegionEurope:   "eu.actual.battle.net",
	RegionAmericas: "us.actual.battle.net",
	RegionAsia:     "kr.actual.battle.net",
}

// Host returns the gateway address passed to -address and shown in window
// titles.
func (r Region) Host() string {
	return regionHosts[r]
}

// Code returns the upper-case short code stored in the Battle.net launch
// options (EU, US, KR).
func (r Region) Code() string {
	host := r.Host()
	if host == "" {
		return ""
	}
	code, _, _ := strings.Cut(host, ".")
	return strings.ToUpper(code)
}

// UnmarshalText accepts a region name, a gateway host or a short code.
// Older account files store the host.
func (r *Region) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	for region, host := range regionHosts {
		if strings.EqualFold(raw, string(region)) ||
			strings.EqualFold(raw, host) ||
			strings.EqualFold(raw, region.Code()) {
			*r = region
			return nil
		}
	}
	*r = Region(raw)
	return nil
}

// Regions lists the supported gateways in display order.
func Regions() []Region {
	return []Region{RegionEurope, RegionAmericas, RegionAsia}
}

// Account is a single configured Battle.net login. It is treated as a value:
// the launcher copies it for the lifetime of one launch.
type Account struct {
	ProfileName  string     `json:"profile_name,omitempty"`
	Email        string     `json:"email" validate:"required,email"`
	AuthMethod   AuthMethod `json:"auth_method" validate:"required,oneof=Token Password"`
	Token        string     `json:"token,omitempty" validate:"required_if=AuthMethod Token"`
	Password     string     `json:"password,omitempty" validate:"required_if=AuthMethod Password"`
	Region       Region     `json:"region" validate:"required,oneof=Europe Americas Asia"`
	Params       string     `json:"params,omitempty"`
	Runtime      float64    `json:"runtime,omitempty"`
	GameSettings string     `json:"game_settings,omitempty"`
}

// ID is the stable identity of the account, used as the registry key and as
// a file system component. A profile name that normalizes to nothing falls
// back to the e-mail.
func (a Account) ID() string {
	if id := Normalize(a.ProfileName); id != "" {
		return id
	}
	return Normalize(a.Email)
}

// DisplayName is the label shown to the user and embedded in window titles.
func (a Account) DisplayName() string {
	if a.ProfileName != "" {
		return a.ProfileName
	}
	return a.Email
}

// Credential returns the secret selected by the auth method.
func (a Account) Credential() string {
	switch a.AuthMethod {
	case AuthToken:
		return a.Token
	case AuthPassword:
		return a.Password
	default:
		return ""
	}
}

// LaunchParams splits the stored parameter string on whitespace.
func (a Account) LaunchParams() []string {
	return strings.Fields(a.Params)
}

// WindowTitle is the title given to this account's game window.
func (a Account) WindowTitle() string {
	return a.DisplayName() + " (" + a.Region.Host() + ")"
}

// Lookup finds an account by identity, display name or e-mail.
func Lookup(accs []Account, key string) (Account, bool) {
	id := Normalize(key)
	for _, acc := range accs {
		if acc.ID() == id || acc.DisplayName() == key || strings.EqualFold(acc.Email, key) {
			return acc, true
		}
	}
	return Account{}, false
}
