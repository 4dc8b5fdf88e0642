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

package mocks

import (
	"context"
	"fmt"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/config"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/stretchr/testify/mock"
)

// MockPlatform is a testify mock of platforms.Platform.
type MockPlatform struct {
	mock.Mock
}

// NewMockPlatform returns a mock with ID, Capabilities and Settings
// expectations that tests may override.
func NewMockPlatform() *MockPlatform {
	m := &MockPlatform{}
	m.On("ID").Return("mock").Maybe()
	m.On("Capabilities").Return(platforms.Capabilities{Context: platforms.ContextDirect}).Maybe()
	return m
}

func (m *MockPlatform) ID() string {
	return m.Called().String(0)
}

func (m *MockPlatform) Capabilities() platforms.Capabilities {
	if caps, ok := m.Called().Get(0).(platforms.Capabilities); ok {
		return caps
	}
	return platforms.Capabilities{}
}

func (m *MockPlatform) Settings() platforms.Settings {
	if settings, ok := m.Called().Get(0).(platforms.Settings); ok {
		return settings
	}
	return platforms.Settings{}
}

func (m *MockPlatform) StartPre(cfg *config.Instance) error {
	if err := m.Called(cfg).Error(0); err != nil {
		return fmt.Errorf("mock platform start pre failed: %w", err)
	}
	return nil
}

func (m *MockPlatform) Stop() error {
	if err := m.Called().Error(0); err != nil {
		return fmt.Errorf("mock platform stop failed: %w", err)
	}
	return nil
}

func (m *MockPlatform) Injector() platforms.CredentialInjector {
	v, _ := m.Called().Get(0).(platforms.CredentialInjector)
	return v
}

func (m *MockPlatform) Builder() platforms.ContextBuilder {
	v, _ := m.Called().Get(0).(platforms.ContextBuilder)
	return v
}

func (m *MockPlatform) Locks() platforms.LockSuppressor {
	v, _ := m.Called().Get(0).(platforms.LockSuppressor)
	return v
}

func (m *MockPlatform) Windows() platforms.WindowSystem {
	v, _ := m.Called().Get(0).(platforms.WindowSystem)
	return v
}

func (m *MockPlatform) CredentialSlot() platforms.CredentialSlot {
	v, _ := m.Called().Get(0).(platforms.CredentialSlot)
	return v
}

func (m *MockPlatform) Processes() platforms.ProcessControl {
	v, _ := m.Called().Get(0).(platforms.ProcessControl)
	return v
}

func (m *MockPlatform) GameSettings() platforms.SettingsApplier {
	v, _ := m.Called().Get(0).(platforms.SettingsApplier)
	return v
}

// MockWindowSystem is a testify mock of platforms.WindowSystem.
type MockWindowSystem struct {
	mock.Mock
}

func (m *MockWindowSystem) List(ctx context.Context) ([]platforms.Window, error) {
	args := m.Called(ctx)
	windows, _ := args.Get(0).([]platforms.Window)
	//nolint:wrapcheck // mock return
	return windows, args.Error(1)
}

func (m *MockWindowSystem) SetTitle(ctx context.Context, w platforms.Window, title string) error {
	//nolint:wrapcheck // mock return
	return m.Called(ctx, w, title).Error(0)
}

// MockCredentialInjector is a testify mock of platforms.CredentialInjector.
type MockCredentialInjector struct {
	mock.Mock
}

func (m *MockCredentialInjector) Validate(acc accounts.Account) error {
	//nolint:wrapcheck // mock return
	return m.Called(acc).Error(0)
}

func (m *MockCredentialInjector) Inject(ctx context.Context, acc accounts.Account) ([]string, error) {
	args := m.Called(ctx, acc)
	injected, _ := args.Get(0).([]string)
	//nolint:wrapcheck // mock return
	return injected, args.Error(1)
}

// MockTokenVault is a testify mock of the token vault used by the token
// injector.
type MockTokenVault struct {
	mock.Mock
}

func (m *MockTokenVault) Protect(plain []byte) ([]byte, error) {
	args := m.Called(plain)
	out, _ := args.Get(0).([]byte)
	//nolint:wrapcheck // mock return
	return out, args.Error(1)
}

func (m *MockTokenVault) WriteRegion(code string) error {
	//nolint:wrapcheck // mock return
	return m.Called(code).Error(0)
}

func (m *MockTokenVault) WriteToken(protected []byte) error {
	//nolint:wrapcheck // mock return
	return m.Called(protected).Error(0)
}
