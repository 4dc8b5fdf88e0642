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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_ID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		acc  Account
		want string
	}{
		{
			name: "profile_name_preferred",
			acc:  Account{ProfileName: "Sorc Main", Email: "a@b.com"},
			want: "sorc-main",
		},
		{
			name: "falls_back_to_email",
			acc:  Account{Email: "Jane.Doe@Example.com"},
			want: "jane-doe-example-com",
		},
		{
			name: "empty_profile_name_ignored",
			acc:  Account{ProfileName: "", Email: "x@y.z"},
			want: "x-y-z",
		},
		{
			name: "cyrillic_profile_name",
			acc:  Account{ProfileName: "Иван", Email: "a@b.com"},
			want: "ivan",
		},
		{
			name: "symbol_only_profile_name_uses_email",
			acc:  Account{ProfileName: "!!!", Email: "c@d.com"},
			want: "c-d-com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.acc.ID())
		})
	}
}

func TestAccount_ID_NonLatinAccountsDistinct(t *testing.T) {
	t.Parallel()

	a := Account{ProfileName: "Иван", Email: "a@b.com"}
	b := Account{ProfileName: "Пётр", Email: "c@d.com"}
	c := Account{ProfileName: "!!!", Email: "e@f.com"}

	assert.NotEmpty(t, a.ID())
	assert.NotEmpty(t, b.ID())
	assert.NotEmpty(t, c.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
	assert.NotEqual(t, b.ID(), c.ID())
}

func TestAccount_DisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hammerdin", Account{ProfileName: "Hammerdin", Email: "a@b.com"}.DisplayName())
	assert.Equal(t, "a@b.com", Account{Email: "a@b.com"}.DisplayName())
}

func TestAccount_Credential(t *testing.T) {
	t.Parallel()

	acc := Account{Token: "T1", Password: "pw"}

	acc.AuthMethod = AuthToken
	assert.Equal(t, "T1", acc.Credential())

	acc.AuthMethod = AuthPassword
	assert.Equal(t, "pw", acc.Credential())

	acc.AuthMethod = "Magic"
	assert.Empty(t, acc.Credential())
}

func TestAccount_LaunchParams(t *testing.T) {
	t.Parallel()

	acc := Account{Params: "  -mod sandbox   -txt "}
	assert.Equal(t, []string{"-mod", "sandbox", "-txt"}, acc.LaunchParams())
	assert.Empty(t, Account{}.LaunchParams())
}

func TestAccount_WindowTitle(t *testing.T) {
	t.Parallel()

	acc := Account{Email: "a@b.com", Region: RegionAsia}
	assert.Equal(t, "a@b.com (kr.actual.battle.net)", acc.WindowTitle())
}

func TestRegion_HostAndCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		region Region
		host   string
		code   string
	}{
		{RegionEurope, "eu.actual.battle.net", "EU"},
		{RegionAmericas, "us.actual.battle.net", "US"},
		{RegionAsia, "kr.actual.battle.net", "KR"},
		{"Moon", "", ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.region), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.host, tt.region.Host())
			assert.Equal(t, tt.code, tt.region.Code())
		})
	}
}

func TestAccount_UnmarshalLegacyValues(t *testing.T) {
	t.Parallel()

	raw := `{
		"profile_name": null,
		"email": "a@b.com",
		"auth_method": "token",
		"token": "T1",
		"token_protected": null,
		"password": null,
		"region": "us.actual.battle.net",
		"params": null,
		"runtime": 12.5
	}`

	var acc Account
	require.NoError(t, json.Unmarshal([]byte(raw), &acc))
	assert.Equal(t, AuthToken, acc.AuthMethod)
	assert.Equal(t, RegionAmericas, acc.Region)
	assert.Empty(t, acc.ProfileName)
	assert.InDelta(t, 12.5, acc.Runtime, 0.001)
}

func TestAccount_UnmarshalUnknownValuesKept(t *testing.T) {
	t.Parallel()

	var acc Account
	require.NoError(t, json.Unmarshal([]byte(`{"auth_method":"sso","region":"Mars"}`), &acc))
	assert.Equal(t, AuthMethod("sso"), acc.AuthMethod)
	assert.Equal(t, Region("Mars"), acc.Region)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	accs := []Account{
		{ProfileName: "Sorc Main", Email: "sorc@example.com"},
		{Email: "barb@example.com"},
	}

	acc, ok := Lookup(accs, "sorc-main")
	require.True(t, ok)
	assert.Equal(t, "Sorc Main", acc.ProfileName)

	acc, ok = Lookup(accs, "BARB@example.com")
	require.True(t, ok)
	assert.Equal(t, "barb@example.com", acc.Email)

	_, ok = Lookup(accs, "nobody")
	assert.False(t, ok)
}
