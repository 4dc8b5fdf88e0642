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

package lutris

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	testsqlmock "github.com/d2rloader/d2rloader-core/pkg/testing/sqlmock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryInstallDirs(t *testing.T) {
	t.Parallel()

	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT directory FROM games WHERE slug LIKE \\? AND installed = 1").
		WithArgs("diablo-2-resurrected%").
		WillReturnRows(sqlmock.NewRows([]string{"directory"}).
			AddRow("/home/u/Games/diablo-2-resurrected").
			AddRow(nil).
			AddRow(""))

	dirs, err := QueryInstallDirs(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"/home/u/Games/diablo-2-resurrected"}, dirs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryInstallDirs_Error(t *testing.T) {
	t.Parallel()

	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT directory FROM games").WillReturnError(errors.New("no such table: games"))

	_, err = QueryInstallDirs(context.Background(), db)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveGameDir(t *testing.T) {
	t.Parallel()

	const prefix = "/home/u/Games/diablo-2-resurrected"
	gameDir := filepath.Join(prefix, "drive_c", "Program Files (x86)", "Diablo II Resurrected")

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(gameDir, "D2R.exe"), []byte("MZ"), 0o644))

	got, err := ResolveGameDir(fs, []string{"/elsewhere", prefix})
	require.NoError(t, err)
	assert.Equal(t, gameDir, got)

	_, err = ResolveGameDir(fs, []string{"/elsewhere"})
	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestFindDB(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/flatpak/lutris/pga.db", nil, 0o644))

	path, ok := FindDB(fs, "/native/lutris", "", "/flatpak/lutris")
	require.True(t, ok)
	assert.Equal(t, "/flatpak/lutris/pga.db", path)

	_, ok = FindDB(fs, "/native/lutris")
	assert.False(t, ok)
}

func TestDetectGameDir(t *testing.T) {
	t.Parallel()

	t.Run("database_not_found", func(t *testing.T) {
		t.Parallel()

		_, err := DetectGameDir(context.Background(), afero.NewMemMapFs(), "/nonexistent/pga.db")
		require.Error(t, err)
	})

	t.Run("installed_game", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, DBFile)
		prefix := filepath.Join(tmpDir, "Games", "diablo-2-resurrected")
		gameDir := filepath.Join(prefix, "drive_c", "Program Files (x86)", "Diablo II Resurrected")

		db, err := sql.Open("sqlite3", dbPath)
		require.NoError(t, err)

		ctx := context.Background()
		_, err = db.ExecContext(ctx, `
			CREATE TABLE games (
				id INTEGER PRIMARY KEY,
				name TEXT,
				slug TEXT,
				directory TEXT,
				installed INTEGER
			)
		`)
		require.NoError(t, err)

		rows := []struct {
			slug      string
			directory string
			installed int
		}{
			{"diablo-2-resurrected-battlenet", prefix, 1},
			{"diablo-2-resurrected", "/old/prefix", 0},
			{"diablo-ii", "/classic", 1},
		}
		for _, r := range rows {
			_, err = db.ExecContext(ctx,
				"INSERT INTO games (name, slug, directory, installed) VALUES (?, ?, ?, ?)",
				r.slug, r.slug, r.directory, r.installed)
			require.NoError(t, err)
		}
		require.NoError(t, db.Close())

		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, filepath.Join(gameDir, "D2R.exe"), []byte("MZ"), 0o644))

		got, err := DetectGameDir(ctx, fs, dbPath)
		require.NoError(t, err)
		assert.Equal(t, gameDir, got)
	})
}
