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

package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/d2rloader/d2rloader-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func passwordAccount() accounts.Account {
	return accounts.Account{
		Email:      "a@b.com",
		AuthMethod: accounts.AuthPassword,
		Password:   "x",
		Region:     accounts.RegionEurope,
	}
}

func tokenAccount() accounts.Account {
	return accounts.Account{
		Email:      "a@b.com",
		AuthMethod: accounts.AuthToken,
		Token:      "T1",
		Region:     accounts.RegionAmericas,
	}
}

func TestPasswordArgs(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"-username", "a@b.com", "-password", "x", "-address", "eu.actual.battle.net"},
		PasswordArgs(passwordAccount()),
	)
}

func TestTokenInjector_Token(t *testing.T) {
	t.Parallel()

	vault := &mocks.MockTokenVault{}
	vault.On("Protect", []byte("T1")).Return([]byte{0xde, 0xad}, nil).Once()
	vault.On("WriteRegion", "US").Return(nil).Once()
	vault.On("WriteToken", []byte{0xde, 0xad}).Return(nil).Once()

	injector := &TokenInjector{Vault: vault}
	args, err := injector.Inject(context.Background(), tokenAccount())

	require.NoError(t, err)
	assert.Equal(t, []string{"-uid", "osi"}, args)
	vault.AssertExpectations(t)
}

func TestTokenInjector_Password(t *testing.T) {
	t.Parallel()

	vault := &mocks.MockTokenVault{}
	injector := &TokenInjector{Vault: vault}

	args, err := injector.Inject(context.Background(), passwordAccount())

	require.NoError(t, err)
	assert.Equal(t, PasswordArgs(passwordAccount()), args)
	vault.AssertNotCalled(t, "Protect", mock.Anything)
	vault.AssertNotCalled(t, "WriteToken", mock.Anything)
}

func TestTokenInjector_Failures(t *testing.T) {
	t.Parallel()

	boom := errors.New("access denied")

	tests := []struct {
		setup func(*mocks.MockTokenVault)
		acc   func() accounts.Account
		name  string
		kind  platforms.ErrorKind
	}{
		{
			name: "missing_token",
			acc: func() accounts.Account {
				a := tokenAccount()
				a.Token = ""
				return a
			},
			setup: func(*mocks.MockTokenVault) {},
			kind:  platforms.KindAuth,
		},
		{
			name: "missing_password",
			acc: func() accounts.Account {
				a := passwordAccount()
				a.Password = ""
				return a
			},
			setup: func(*mocks.MockTokenVault) {},
			kind:  platforms.KindAuth,
		},
		{
			name: "protect_fails",
			acc:  tokenAccount,
			setup: func(v *mocks.MockTokenVault) {
				v.On("Protect", mock.Anything).Return(nil, boom)
			},
			kind: platforms.KindInjection,
		},
		{
			name: "protect_returns_nothing",
			acc:  tokenAccount,
			setup: func(v *mocks.MockTokenVault) {
				v.On("Protect", mock.Anything).Return([]byte{}, nil)
			},
			kind: platforms.KindInjection,
		},
		{
			name: "region_write_fails",
			acc:  tokenAccount,
			setup: func(v *mocks.MockTokenVault) {
				v.On("Protect", mock.Anything).Return([]byte{1}, nil)
				v.On("WriteRegion", "US").Return(boom)
			},
			kind: platforms.KindInjection,
		},
		{
			name: "token_write_fails",
			acc:  tokenAccount,
			setup: func(v *mocks.MockTokenVault) {
				v.On("Protect", mock.Anything).Return([]byte{1}, nil)
				v.On("WriteRegion", "US").Return(nil)
				v.On("WriteToken", []byte{1}).Return(boom)
			},
			kind: platforms.KindInjection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			vault := &mocks.MockTokenVault{}
			tt.setup(vault)

			_, err := (&TokenInjector{Vault: vault}).Inject(context.Background(), tt.acc())

			require.Error(t, err)
			assert.Equal(t, tt.kind, platforms.KindOf(err))
		})
	}
}

func TestTokenInjector_NoVault(t *testing.T) {
	t.Parallel()

	err := (&TokenInjector{}).Validate(tokenAccount())
	require.ErrorIs(t, err, platforms.ErrAuth)
}

func TestPasswordOnlyInjector(t *testing.T) {
	t.Parallel()

	injector := PasswordOnlyInjector{}

	t.Run("password", func(t *testing.T) {
		t.Parallel()
		args, err := injector.Inject(context.Background(), passwordAccount())
		require.NoError(t, err)
		assert.Equal(t, []string{"-username", "a@b.com", "-password", "x", "-address", "eu.actual.battle.net"}, args)
	})

	t.Run("token_rejected", func(t *testing.T) {
		t.Parallel()
		_, err := injector.Inject(context.Background(), tokenAccount())
		require.ErrorIs(t, err, platforms.ErrAuth)
		assert.Contains(t, err.Error(), "not supported on this platform")
	})

	t.Run("unknown_method_rejected", func(t *testing.T) {
		t.Parallel()
		acc := passwordAccount()
		acc.AuthMethod = "sso"
		require.ErrorIs(t, injector.Validate(acc), platforms.ErrAuth)
	})
}
