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

// Package windowid renames the game window so each running copy can be
// told apart, and later matched back to its account.
package windowid

import (
	"context"
	"slices"
	"time"

	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const DefaultInterval = 500 * time.Millisecond

// PIDSource returns the pids that may own the game window. An empty
// result means the owner is not known yet.
type PIDSource func(ctx context.Context) []int

// Manager polls the window system for the game window.
type Manager struct {
	System   platforms.WindowSystem
	Clock    clockwork.Clock
	Interval time.Duration
	Timeout  time.Duration
}

// Rename waits for an untitled game window owned by one of pids (any pid
// when pids is empty) and sets its title. It returns false on timeout,
// cancellation or a failed rename.
func (m *Manager) Rename(ctx context.Context, pids []int, title string) bool {
	if len(pids) == 0 {
		return m.RenameFrom(ctx, nil, title)
	}
	return m.RenameFrom(ctx, func(context.Context) []int { return pids }, title)
}

// RenameFrom is Rename with the owner pids resolved on every poll. A nil
// source matches any pid.
func (m *Manager) RenameFrom(ctx context.Context, source PIDSource, title string) bool {
	clock := m.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	deadline := clock.NewTimer(m.Timeout)
	defer deadline.Stop()
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if w, ok := m.find(ctx, source); ok {
			if err := m.System.SetTitle(ctx, w, title); err != nil {
				log.Warn().Err(err).Uint64("window", w.ID).Msg("could not rename game window")
				return false
			}
			log.Debug().Uint64("window", w.ID).Int("pid", w.PID).Str("title", title).
				Msg("renamed game window")
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-deadline.Chan():
			log.Warn().Str("title", title).Dur("timeout", m.Timeout).
				Msg("game window not found, leaving title unchanged")
			return false
		case <-ticker.Chan():
		}
	}
}

func (m *Manager) find(ctx context.Context, source PIDSource) (platforms.Window, bool) {
	var pids []int
	if source != nil {
		pids = source(ctx)
		if len(pids) == 0 {
			return platforms.Window{}, false
		}
	}

	windows, err := m.System.List(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("could not list windows")
		return platforms.Window{}, false
	}
	return FindGameWindow(windows, pids)
}

// FindGameWindow returns the first window with the game's default title
// owned by one of pids, or by any pid when pids is empty.
func FindGameWindow(windows []platforms.Window, pids []int) (platforms.Window, bool) {
	for _, w := range windows {
		if w.Title != platforms.DefaultWindowTitle {
			continue
		}
		if len(pids) == 0 || slices.Contains(pids, w.PID) {
			return w, true
		}
	}
	return platforms.Window{}, false
}
