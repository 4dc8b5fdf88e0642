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

import "path/filepath"

// Compat configures the Wine/Proton compatibility layer used on Linux.
type Compat struct {
	// RuntimeRoot is the Lutris home holding runners and the umu runtime.
	RuntimeRoot string `toml:"runtime_root,omitempty"`
	// ProfileRoot holds one wineprefix per account.
	ProfileRoot string `toml:"profile_root,omitempty"`
	// ForceScript regenerates start scripts on every launch.
	ForceScript bool `toml:"force_script,omitempty"`
}

// RuntimeRoot returns the configured Lutris home, or "" for the platform
// default.
func (c *Instance) RuntimeRoot() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Compat.RuntimeRoot
}

func (c *Instance) ProfileRoot() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Compat.ProfileRoot != "" {
		return c.vals.Compat.ProfileRoot
	}
	return filepath.Join(filepath.Dir(c.cfgPath), WineprefixesDir)
}

func (c *Instance) ForceScript() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Compat.ForceScript
}

func (c *Instance) SetForceScript(force bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Compat.ForceScript = force
}
