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

// Package gamesettings swaps the game's Settings.json for a per-account
// copy before launch, and stores the current settings for an account.
package gamesettings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	GameFolder   = "Diablo II Resurrected"
	SettingsFile = "Settings.json"
)

// ErrNoProfileName is returned when saving settings for an account without
// a profile name.
var ErrNoProfileName = errors.New("account has no profile name")

// SavedGamesFunc returns the Saved Games folder the game uses for acc.
type SavedGamesFunc func(acc accounts.Account) (string, error)

// Manager copies settings files through an afero.Fs.
type Manager struct {
	Fs         afero.Fs
	SavedGames SavedGamesFunc
	// StoreDir holds the per-account settings.<id>.json files.
	StoreDir string
}

// CurrentPath returns the Settings.json the game reads for acc.
func (m *Manager) CurrentPath(acc accounts.Account) (string, error) {
	dir, err := m.SavedGames(acc)
	if err != nil {
		return "", fmt.Errorf("failed to resolve saved games folder: %w", err)
	}
	if dir == "" {
		return "", errors.New("saved games folder is unknown")
	}
	return filepath.Join(dir, GameFolder, SettingsFile), nil
}

// AccountPath returns where SaveCurrent stores the settings of acc.
func (m *Manager) AccountPath(acc accounts.Account) string {
	return filepath.Join(m.StoreDir, "settings."+acc.ID()+".json")
}

// Apply puts the account's settings file in place of the current one. The
// current file is kept as Settings.json.bak. Accounts without an override,
// or with one that does not exist, are left alone.
func (m *Manager) Apply(acc accounts.Account) error {
	if acc.GameSettings == "" {
		return nil
	}
	if ok, _ := afero.Exists(m.Fs, acc.GameSettings); !ok {
		log.Warn().Str("account", acc.ID()).Str("path", acc.GameSettings).
			Msg("configured game settings don't exist")
		return nil
	}

	current, err := m.CurrentPath(acc)
	if err != nil {
		return err
	}

	log.Info().Str("account", acc.ID()).
		Str("settings", filepath.Base(acc.GameSettings)).
		Msg("using account game settings")

	if ok, _ := afero.Exists(m.Fs, current); ok {
		if err := m.Fs.Rename(current, current+".bak"); err != nil {
			return fmt.Errorf("failed to back up %s: %w", current, err)
		}
	}
	if err := m.Fs.MkdirAll(filepath.Dir(current), 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(current), err)
	}
	return copyFile(m.Fs, acc.GameSettings, current)
}

// SaveCurrent copies the current settings to the account's store path. An
// existing copy is kept unless overwrite is set; the bool result reports
// that case.
func (m *Manager) SaveCurrent(acc accounts.Account, overwrite bool) (string, bool, error) {
	if acc.ProfileName == "" {
		return "", false, ErrNoProfileName
	}

	current, err := m.CurrentPath(acc)
	if err != nil {
		return "", false, err
	}
	log.Debug().Str("path", current).Msg("current game settings")

	if err := m.Fs.MkdirAll(m.StoreDir, 0o750); err != nil {
		return "", false, fmt.Errorf("failed to create %s: %w", m.StoreDir, err)
	}

	dst := m.AccountPath(acc)
	if ok, _ := afero.Exists(m.Fs, dst); ok && !overwrite {
		log.Info().Str("path", dst).Msg("settings file already exists")
		return dst, true, nil
	}

	log.Info().Str("path", dst).Msg("copying current game settings")
	if err := copyFile(m.Fs, current, dst); err != nil {
		return "", false, err
	}
	return dst, false, nil
}

func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", src).Msg("failed to close file")
		}
	}()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}

// WinePrefixSavedGames returns the Saved Games folder inside the wine
// prefix of an account, where prefixOf maps an account to its prefix.
func WinePrefixSavedGames(prefixOf func(accounts.Account) string) SavedGamesFunc {
	return func(acc accounts.Account) (string, error) {
		return filepath.Join(prefixOf(acc), "drive_c", "users", "steamuser", "Saved Games"), nil
	}
}
