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

// Package lutris finds a Diablo II: Resurrected installation managed by
// Lutris, and the Lutris home used as the Proton runtime root.
package lutris

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	DBFile    = "pga.db"
	FlatpakID = "net.lutris.Lutris"
	// SlugPrefix matches the Battle.net installer slugs of the game.
	SlugPrefix = "diablo-2-resurrected"
)

var ErrGameNotFound = errors.New("game is not installed in lutris")

const gameDirQuery = "SELECT directory FROM games WHERE slug LIKE ? AND installed = 1"

// DefaultRoot returns the native Lutris home.
func DefaultRoot() string {
	return filepath.Join(xdg.DataHome, "lutris")
}

// FlatpakRoot returns the Lutris home of the Flatpak build.
func FlatpakRoot() string {
	return filepath.Join(xdg.Home, ".var", "app", FlatpakID, "data", "lutris")
}

// FindDB returns the first pga.db found under roots.
func FindDB(fs afero.Fs, roots ...string) (string, bool) {
	for _, root := range roots {
		if root == "" {
			continue
		}
		path := filepath.Join(root, DBFile)
		if ok, _ := afero.Exists(fs, path); ok {
			return path, true
		}
	}
	return "", false
}

// QueryInstallDirs returns the install directory of every installed copy
// of the game.
func QueryInstallDirs(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, gameDirQuery, SlugPrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query lutris games: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close lutris query rows")
		}
	}()

	var dirs []string
	for rows.Next() {
		var dir sql.NullString
		if err := rows.Scan(&dir); err != nil {
			log.Warn().Err(err).Msg("failed to scan lutris game row")
			continue
		}
		if dir.Valid && dir.String != "" {
			dirs = append(dirs, dir.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lutris game rows: %w", err)
	}
	return dirs, nil
}

// GameDirCandidates lists where the game executable may sit for a Lutris
// install directory, which is usually the wine prefix of the installer.
func GameDirCandidates(installDir string) []string {
	return []string{
		installDir,
		filepath.Join(installDir, "drive_c", "Program Files (x86)", "Diablo II Resurrected"),
		filepath.Join(installDir, "drive_c", "Program Files", "Diablo II Resurrected"),
	}
}

// ResolveGameDir picks the first candidate of any install dir that holds
// the game executable.
func ResolveGameDir(fs afero.Fs, installDirs []string) (string, error) {
	for _, dir := range installDirs {
		for _, candidate := range GameDirCandidates(dir) {
			exe := filepath.Join(candidate, platforms.GameExecutable)
			if ok, _ := afero.Exists(fs, exe); ok {
				return candidate, nil
			}
		}
	}
	return "", ErrGameNotFound
}

// DetectGameDir opens the Lutris database at dbPath and resolves the game
// directory of the installed game.
func DetectGameDir(ctx context.Context, fs afero.Fs, dbPath string) (string, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return "", fmt.Errorf("lutris database not found: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return "", fmt.Errorf("failed to open lutris database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close lutris database")
		}
	}()

	dirs, err := QueryInstallDirs(ctx, db)
	if err != nil {
		return "", err
	}
	log.Debug().Strs("dirs", dirs).Msg("lutris install dirs")

	return ResolveGameDir(fs, dirs)
}
