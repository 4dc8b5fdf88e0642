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

package helpers

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/d2rloader/d2rloader-core/pkg/testing/mocks"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfgDir := filepath.Join(root, "config", "d2rloader")
	logDir := filepath.Join(root, "state", "logs")

	pl := mocks.NewMockPlatform()
	pl.On("Settings").Return(platforms.Settings{ConfigDir: cfgDir, LogDir: logDir})

	require.NoError(t, EnsureDirectories(pl))

	for _, dir := range []string{cfgDir, logDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		if runtime.GOOS != "windows" {
			assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
		}
	}
}

func TestEnsureDirectories_InvalidPath(t *testing.T) {
	t.Parallel()

	pl := mocks.NewMockPlatform()
	pl.On("Settings").Return(platforms.Settings{
		ConfigDir: t.TempDir(),
		LogDir:    "/proc/invalid\x00path",
	})

	err := EnsureDirectories(pl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create log directory")
}

//nolint:paralleltest // modifies the global logger
func TestInitLogging(t *testing.T) {
	original := log.Logger
	t.Cleanup(func() { log.Logger = original })

	pl := mocks.NewMockPlatform()
	pl.On("Settings").Return(platforms.Settings{LogDir: t.TempDir()})

	var buf bytes.Buffer
	require.NoError(t, InitLogging(pl, []io.Writer{&buf}))

	log.Info().Str("account", "sorc-main").Msg("launch requested")

	assert.Contains(t, buf.String(), `"account":"sorc-main"`)
	assert.Contains(t, buf.String(), `"message":"launch requested"`)
	assert.Contains(t, buf.String(), `"time"`)
}

//nolint:paralleltest // modifies the global level
func TestSetLogLevel(t *testing.T) {
	original := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

	SetLogLevel(true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	SetLogLevel(false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
