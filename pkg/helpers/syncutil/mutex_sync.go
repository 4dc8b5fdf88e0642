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

//go:build !deadlock

// Package syncutil holds the mutexes shared by the instance registry, the
// account store, the config instance and the credential vault. Building
// with -tags=deadlock swaps in go-deadlock, which logs lock-order
// inversions between them through zerolog and exits.
package syncutil

import "sync"

// DeadlockEnabled reports whether the detector is compiled in.
const DeadlockEnabled = false

// Mutex is a plain sync.Mutex in regular builds.
//
//nolint:gocritic // embedded so callers use Lock and Unlock directly
type Mutex struct {
	sync.Mutex //nolint:forbidigo // the only place sync.Mutex is allowed
}

// RWMutex is a plain sync.RWMutex in regular builds.
//
//nolint:gocritic // embedded so callers use RLock and Lock directly
type RWMutex struct {
	sync.RWMutex //nolint:forbidigo // the only place sync.RWMutex is allowed
}
