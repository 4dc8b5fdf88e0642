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

	"github.com/d2rloader/d2rloader-core/pkg/helpers/command"
	"github.com/stretchr/testify/mock"
)

// MockCommandExecutor is a testify mock for command.Executor.
//
// Arguments are recorded as a single []string so expectations can match the
// full command line:
//
//	exec := &MockCommandExecutor{}
//	exec.On("Output", mock.Anything, "wmctrl", []string{"-lp"}).Return(out, nil)
type MockCommandExecutor struct {
	mock.Mock
}

func (m *MockCommandExecutor) Run(ctx context.Context, name string, args ...string) error {
	called := m.Called(ctx, name, normalizeArgs(args))
	//nolint:wrapcheck // mock return
	return called.Error(0)
}

func (m *MockCommandExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	called := m.Called(ctx, name, normalizeArgs(args))
	var out []byte
	if v := called.Get(0); v != nil {
		out, _ = v.([]byte)
	}
	//nolint:wrapcheck // mock return
	return out, called.Error(1)
}

func (m *MockCommandExecutor) Spawn(opts command.SpawnOptions, name string, args ...string) (int, error) {
	called := m.Called(opts, name, normalizeArgs(args))
	//nolint:wrapcheck // mock return
	return called.Int(0), called.Error(1)
}

// normalizeArgs maps a missing variadic to an empty slice so expectations
// written as []string{} match calls with no arguments.
func normalizeArgs(args []string) []string {
	if args == nil {
		return []string{}
	}
	return args
}
