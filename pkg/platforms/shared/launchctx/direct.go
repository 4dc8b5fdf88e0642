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

// Package launchctx builds the command line used to start the game.
package launchctx

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/spf13/afero"
)

// Direct starts the game executable itself.
type Direct struct {
	Fs         afero.Fs
	GameDir    string
	Executable string
}

// NewDirect returns a builder for the game in gameDir on the OS filesystem.
func NewDirect(gameDir string) *Direct {
	return &Direct{
		Fs:         afero.NewOsFs(),
		GameDir:    gameDir,
		Executable: platforms.GameExecutable,
	}
}

func (d *Direct) exePath() string {
	exe := d.Executable
	if exe == "" {
		exe = platforms.GameExecutable
	}
	return filepath.Join(d.GameDir, exe)
}

func (d *Direct) Validate(accounts.Account) error {
	return checkExecutable(d.Fs, d.GameDir, d.exePath())
}

// Build returns the executable with the injected arguments followed by the
// account's own launch parameters.
func (d *Direct) Build(_ context.Context, acc accounts.Account, injected []string) (platforms.Invocation, error) {
	if err := d.Validate(acc); err != nil {
		return platforms.Invocation{}, err
	}

	params := acc.LaunchParams()
	args := make([]string, 0, len(injected)+len(params))
	args = append(args, injected...)
	args = append(args, params...)

	return platforms.Invocation{
		Path: d.exePath(),
		Dir:  d.GameDir,
		Args: args,
	}, nil
}

func checkExecutable(fs afero.Fs, gameDir, exe string) error {
	if gameDir == "" {
		return platforms.NewLaunchError("game path is not set", nil)
	}
	info, err := fs.Stat(exe)
	if err != nil {
		return platforms.NewLaunchError(
			"game executable not found",
			fmt.Errorf("stat %s: %w", exe, err),
		)
	}
	if info.IsDir() {
		return platforms.NewLaunchError("game executable is a directory: "+exe, nil)
	}
	return nil
}
