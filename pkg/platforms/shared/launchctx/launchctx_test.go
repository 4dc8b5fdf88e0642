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

package launchctx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gameDir = "/games/d2r"

func gameFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(gameDir, "D2R.exe"), []byte("MZ"), 0o755))
	return fs
}

func account() accounts.Account {
	return accounts.Account{
		ProfileName: "Jane Doe",
		Email:       "jane@example.com",
		AuthMethod:  accounts.AuthPassword,
		Password:    "it's secret",
		Region:      accounts.RegionEurope,
		Params:      "-mod sorc  -txt",
	}
}

func TestDirect_Build(t *testing.T) {
	t.Parallel()

	d := &Direct{Fs: gameFs(t), GameDir: gameDir}
	inv, err := d.Build(context.Background(), account(), []string{"-uid", "osi"})

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(gameDir, "D2R.exe"), inv.Path)
	assert.Equal(t, gameDir, inv.Dir)
	assert.Equal(t, []string{"-uid", "osi", "-mod", "sorc", "-txt"}, inv.Args)
}

func TestDirect_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fs      func(t *testing.T) afero.Fs
		name    string
		gameDir string
		wantErr bool
	}{
		{name: "present", fs: gameFs, gameDir: gameDir},
		{
			name:    "missing_executable",
			fs:      func(*testing.T) afero.Fs { return afero.NewMemMapFs() },
			gameDir: gameDir,
			wantErr: true,
		},
		{name: "no_game_path", fs: gameFs, gameDir: "", wantErr: true},
		{
			name: "executable_is_dir",
			fs: func(t *testing.T) afero.Fs {
				fs := afero.NewMemMapFs()
				require.NoError(t, fs.MkdirAll(filepath.Join(gameDir, "D2R.exe"), 0o750))
				return fs
			},
			gameDir: gameDir,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := &Direct{Fs: tt.fs(t), GameDir: tt.gameDir}
			err := d.Validate(account())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, platforms.ErrLaunch)
		})
	}
}

func TestShellQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "''"},
		{in: "plain", want: "plain"},
		{in: "a@b.com", want: "a@b.com"},
		{in: "two words", want: "'two words'"},
		{in: "it's", want: `'it'\''s'`},
		{in: "$HOME", want: "'$HOME'"},
		{in: "a;rm -rf", want: "'a;rm -rf'"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ShellQuote(tt.in), tt.in)
	}
}

func newScript(fs afero.Fs) *Script {
	return &Script{
		Fs:          fs,
		GameDir:     gameDir,
		ProfileRoot: "/cfg/wineprefixes",
		RuntimeRoot: "/home/u/.local/share/lutris",
	}
}

func TestScript_Build(t *testing.T) {
	t.Parallel()

	fs := gameFs(t)
	s := newScript(fs)
	acc := account()
	injected := []string{"-username", acc.Email, "-password", acc.Password, "-address", acc.Region.Host()}

	inv, err := s.Build(context.Background(), acc, injected)
	require.NoError(t, err)

	scriptPath := "/cfg/wineprefixes/jane-doe/start.sh"
	assert.Equal(t, Shell, inv.Path)
	assert.Equal(t, []string{scriptPath}, inv.Args)
	assert.Equal(t, "/cfg/wineprefixes/jane-doe", inv.Dir)

	content, err := afero.ReadFile(fs, scriptPath)
	require.NoError(t, err)
	script := string(content)

	assert.Contains(t, script, "#!/bin/bash\n")
	assert.Contains(t, script, "export WINEPREFIX=/cfg/wineprefixes/jane-doe\n")
	assert.Contains(t, script, "cd /games/d2r ")
	assert.Contains(t, script,
		"/home/u/.local/share/lutris/runtime/umu/umu-run /games/d2r/D2R.exe -w "+
			`-username jane@example.com -password 'it'\''s secret' -address eu.actual.battle.net -mod sorc -txt`)

	info, err := fs.Stat(scriptPath)
	require.NoError(t, err)
	assert.Equal(t, 0o700, int(info.Mode().Perm()))
}

func TestScript_ReusesExisting(t *testing.T) {
	t.Parallel()

	fs := gameFs(t)
	s := newScript(fs)
	acc := account()
	path := s.ScriptPath(acc)

	require.NoError(t, fs.MkdirAll(s.Prefix(acc), 0o750))
	require.NoError(t, afero.WriteFile(fs, path, []byte("custom"), 0o700))

	written, err := s.Write(acc, nil)
	require.NoError(t, err)
	assert.False(t, written)

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "custom", string(content))

	s.Force = true
	written, err = s.Write(acc, nil)
	require.NoError(t, err)
	assert.True(t, written)

	content, err = afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.NotEqual(t, "custom", string(content))
}

func TestScript_RejectsToken(t *testing.T) {
	t.Parallel()

	acc := account()
	acc.AuthMethod = accounts.AuthToken
	acc.Token = "T"

	_, err := newScript(gameFs(t)).Build(context.Background(), acc, nil)
	require.ErrorIs(t, err, platforms.ErrAuth)
}

func TestScript_CustomLauncher(t *testing.T) {
	t.Parallel()

	s := newScript(gameFs(t))
	s.Launcher = "/usr/bin/umu-run"

	content, err := s.Render(account(), nil)
	require.NoError(t, err)
	assert.Contains(t, content, "exec /usr/bin/umu-run /games/d2r/D2R.exe -w -mod sorc -txt")
}
