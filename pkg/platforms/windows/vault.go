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

//go:build windows

package windows

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"github.com/d2rloader/d2rloader-core/pkg/helpers/syncutil"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// LaunchOptionsKey is where the Battle.net launcher hands a token to the
// game.
const LaunchOptionsKey = `SOFTWARE\Blizzard Entertainment\Battle.net\Launch Options\OSI`

const (
	valueRegion   = "REGION"
	valueWebToken = "WEB_TOKEN"
)

// tokenEntropy is the DPAPI entropy the game expects on WEB_TOKEN.
var tokenEntropy = []byte{
	0xC8, 0x76, 0xF4, 0xAE, 0x4C, 0x95, 0x2E, 0xFE,
	0xF2, 0xFA, 0x0F, 0x54, 0x19, 0xC0, 0x9C, 0x43,
}

// RegistryVault stores tokens in the current user's registry. It is both
// the token vault and the credential slot the game rewrites after login.
type RegistryVault struct {
	mu syncutil.Mutex
}

func blob(b []byte) *windows.DataBlob {
	if len(b) == 0 {
		return &windows.DataBlob{}
	}
	return &windows.DataBlob{Size: uint32(len(b)), Data: &b[0]} //nolint:gosec // bounded by the token size
}

// takeBlob copies a DPAPI output blob and frees it.
func takeBlob(b *windows.DataBlob) []byte {
	if b.Data == nil {
		return nil
	}
	defer func() { _, _ = windows.LocalFree(windows.Handle(unsafe.Pointer(b.Data))) }()
	out := make([]byte, b.Size)
	copy(out, unsafe.Slice(b.Data, b.Size))
	return out
}

// Protect encrypts plain with DPAPI for the current user.
func (*RegistryVault) Protect(plain []byte) ([]byte, error) {
	var out windows.DataBlob
	err := windows.CryptProtectData(
		blob(plain), nil, blob(tokenEntropy), 0, nil,
		windows.CRYPTPROTECT_UI_FORBIDDEN, &out,
	)
	if err != nil {
		return nil, fmt.Errorf("CryptProtectData failed: %w", err)
	}
	return takeBlob(&out), nil
}

// Unprotect reverses Protect.
func (*RegistryVault) Unprotect(protected []byte) ([]byte, error) {
	var out windows.DataBlob
	err := windows.CryptUnprotectData(
		blob(protected), nil, blob(tokenEntropy), 0, nil,
		windows.CRYPTPROTECT_UI_FORBIDDEN, &out,
	)
	if err != nil {
		return nil, fmt.Errorf("CryptUnprotectData failed: %w", err)
	}
	return takeBlob(&out), nil
}

func (v *RegistryVault) write(set func(registry.Key) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, _, err := registry.CreateKey(registry.CURRENT_USER, LaunchOptionsKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open launch options key: %w", err)
	}
	defer func() { _ = key.Close() }()
	return set(key)
}

func (v *RegistryVault) WriteRegion(code string) error {
	return v.write(func(key registry.Key) error {
		if err := key.SetStringValue(valueRegion, code); err != nil {
			return fmt.Errorf("failed to write %s: %w", valueRegion, err)
		}
		return nil
	})
}

func (v *RegistryVault) WriteToken(protected []byte) error {
	return v.write(func(key registry.Key) error {
		if err := key.SetBinaryValue(valueWebToken, protected); err != nil {
			return fmt.Errorf("failed to write %s: %w", valueWebToken, err)
		}
		return nil
	})
}

// Read returns the stored WEB_TOKEN, or nil when none is set.
func (v *RegistryVault) Read(_ context.Context) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, err := registry.OpenKey(registry.CURRENT_USER, LaunchOptionsKey, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to open launch options key: %w", err)
	}
	defer func() { _ = key.Close() }()

	val, _, err := key.GetBinaryValue(valueWebToken)
	if errors.Is(err, registry.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", valueWebToken, err)
	}
	return val, nil
}
