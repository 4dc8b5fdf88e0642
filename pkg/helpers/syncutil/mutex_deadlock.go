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

//go:build deadlock

package syncutil

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled reports whether the detector is compiled in.
const DeadlockEnabled = true

// lockHoldLimit is how long a registry, config or store mutex may be held
// before the detector reports it. Login polling holds the launch semaphore
// for minutes but never one of these mutexes.
const lockHoldLimit = 30 * time.Second

func init() {
	deadlock.Opts.DeadlockTimeout = lockHoldLimit
	deadlock.Opts.LogBuf = log.With().Str("component", "syncutil").Logger()
	deadlock.Opts.OnPotentialDeadlock = func() {
		log.Error().Dur("limit", lockHoldLimit).Msg("potential deadlock, exiting")
		os.Exit(2)
	}
}

// Mutex is a mutual exclusion lock checked for lock-order inversions.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex is a reader/writer lock checked for lock-order inversions.
type RWMutex struct {
	deadlock.RWMutex
}
