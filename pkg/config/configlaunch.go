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

package config

import (
	"time"

	"github.com/rs/zerolog/log"
)

type Launch struct {
	// HandlePath is the Sysinternals handle.exe used to release the
	// single-instance lock.
	HandlePath    string `toml:"handle_path"`
	PollInterval  string `toml:"poll_interval"`
	LoginTimeout  string `toml:"login_timeout"`
	WindowTimeout string `toml:"window_timeout,omitempty"`
	SettleDelay   string `toml:"settle_delay"`
}

func (c *Instance) HandlePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Launch.HandlePath
}

func (c *Instance) SetHandlePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Launch.HandlePath = path
}

// parseDurationLocked parses a configured duration, falling back to def when
// the value is empty, malformed or below minimum. Caller must hold mu.
func parseDurationLocked(key, value string, def, minimum time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("invalid duration in config, using default")
		return def
	}
	if d < minimum {
		log.Warn().Str("key", key).Dur("value", d).Msg("duration below minimum, using default")
		return def
	}
	return d
}

func (c *Instance) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationLocked("launch.poll_interval", c.vals.Launch.PollInterval,
		DefaultPollInterval, MinimumPollInterval)
}

func (c *Instance) LoginTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationLocked("launch.login_timeout", c.vals.Launch.LoginTimeout,
		DefaultLoginTimeout, time.Second)
}

func (c *Instance) SettleDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationLocked("launch.settle_delay", c.vals.Launch.SettleDelay,
		DefaultSettleDelay, 0)
}

// WindowTimeout returns the configured window wait, or platformDefault
// when unset.
func (c *Instance) WindowTimeout(platformDefault time.Duration) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationLocked("launch.window_timeout", c.vals.Launch.WindowTimeout,
		platformDefault, time.Second)
}
