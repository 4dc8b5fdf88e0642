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

// Package launcher starts game instances for accounts and confirms them.
// Each Start runs the confirmation state machine on its own goroutine and
// reports back through exactly one of the success or error callbacks.
package launcher

import (
	"errors"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/d2rloader/d2rloader-core/pkg/service/registry"
	"github.com/google/uuid"
)

var (
	ErrAlreadyRunning = registry.ErrAlreadyRunning
	ErrPending        = registry.ErrPending
	ErrStopped        = errors.New("launcher is stopped")
)

// State is a step of the confirmation state machine.
type State int

const (
	StateValidating State = iota
	StateSpawning
	StateAwaitingWindow
	StateAwaitingLogin
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateSpawning:
		return "spawning"
	case StateAwaitingWindow:
		return "awaiting window"
	case StateAwaitingLogin:
		return "awaiting login"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request is one launch. It is owned by the goroutine running it.
type Request struct {
	Account    accounts.Account
	Invocation platforms.Invocation
	ID         uuid.UUID
}

// Result is delivered to the success callback. LoggedIn is false when the
// login could not be observed before the timeout but the game still runs.
type Result struct {
	Account  accounts.Account
	PID      int
	LoggedIn bool
}

// SuccessFunc receives a confirmed launch.
type SuccessFunc func(Result)

// ErrorFunc receives a failed launch. err is a *platforms.LaunchError.
type ErrorFunc func(acc accounts.Account, err error)

// StateFunc receives the state changes of a launch.
type StateFunc func(acc accounts.Account, s State)
