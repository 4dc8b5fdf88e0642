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

type Game struct {
	// Path is the game installation directory containing D2R.exe.
	Path string `toml:"path"`
	// SettingsDir stores the per-account copies of Settings.json.
	SettingsDir string `toml:"settings_dir,omitempty"`
}

type Accounts struct {
	Path string `toml:"path,omitempty"`
}

func (c *Instance) GamePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Game.Path
}

func (c *Instance) SetGamePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Game.Path = path
}

// GameSettingsDir returns the per-account settings store, defaulting to a
// directory next to the config file.
func (c *Instance) GameSettingsDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Game.SettingsDir != "" {
		return c.vals.Game.SettingsDir
	}
	return filepath.Join(filepath.Dir(c.cfgPath), GameSettingsDir)
}

// AccountsPath returns the account list location, defaulting to
// accounts.json next to the config file.
func (c *Instance) AccountsPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Accounts.Path != "" {
		return c.vals.Accounts.Path
	}
	return filepath.Join(filepath.Dir(c.cfgPath), AccountsFile)
}
