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
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	ScriptName = "start.sh"
	ScriptLog  = "umu.log"
	Shell      = "/bin/bash"
)

//go:embed start.sh.tmpl
var startScript string

var scriptTmpl = template.Must(
	template.New(ScriptName).
		Funcs(template.FuncMap{"quote": ShellQuote}).
		Parse(startScript),
)

type scriptData struct {
	Prefix      string
	RuntimeRoot string
	Launcher    string
	GameDir     string
	Executable  string
	LogFile     string
	Args        []string
}

// Script starts the game through a generated start script that runs it
// with umu and Proton, one wine prefix per account.
type Script struct {
	Fs          afero.Fs
	GameDir     string
	ProfileRoot string
	RuntimeRoot string
	// Launcher defaults to <RuntimeRoot>/runtime/umu/umu-run.
	Launcher string
	// Force rewrites an existing script.
	Force bool
}

func (s *Script) launcher() string {
	if s.Launcher != "" {
		return s.Launcher
	}
	return filepath.Join(s.RuntimeRoot, "runtime", "umu", "umu-run")
}

// Prefix returns the wine prefix of an account.
func (s *Script) Prefix(acc accounts.Account) string {
	return filepath.Join(s.ProfileRoot, acc.ID())
}

// ScriptPath returns the start script of an account.
func (s *Script) ScriptPath(acc accounts.Account) string {
	return filepath.Join(s.Prefix(acc), ScriptName)
}

func (s *Script) Validate(acc accounts.Account) error {
	if acc.AuthMethod == accounts.AuthToken {
		return platforms.AuthError("token authentication is not supported by the start script", nil)
	}
	if acc.ID() == "" {
		return platforms.NewLaunchError("account has no usable id for a wine prefix", nil)
	}
	return checkExecutable(s.Fs, s.GameDir, filepath.Join(s.GameDir, platforms.GameExecutable))
}

// Render returns the start script for an account.
func (s *Script) Render(acc accounts.Account, injected []string) (string, error) {
	params := acc.LaunchParams()
	args := make([]string, 0, len(injected)+len(params))
	args = append(args, injected...)
	args = append(args, params...)

	prefix := s.Prefix(acc)
	data := scriptData{
		Prefix:      prefix,
		RuntimeRoot: s.RuntimeRoot,
		Launcher:    s.launcher(),
		GameDir:     s.GameDir,
		Executable:  filepath.Join(s.GameDir, platforms.GameExecutable),
		LogFile:     filepath.Join(prefix, ScriptLog),
		Args:        args,
	}

	var buf bytes.Buffer
	if err := scriptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render start script: %w", err)
	}
	return buf.String(), nil
}

// Write renders and stores the start script unless it already exists and
// Force is unset. It reports whether the file was written.
func (s *Script) Write(acc accounts.Account, injected []string) (bool, error) {
	prefix := s.Prefix(acc)
	path := s.ScriptPath(acc)

	if !s.Force {
		prefixOk, _ := afero.DirExists(s.Fs, prefix)
		scriptOk, _ := afero.Exists(s.Fs, path)
		if prefixOk && scriptOk {
			log.Warn().Str("account", acc.ID()).Msg("wineprefix already exists, reusing start script")
			return false, nil
		}
	}

	content, err := s.Render(acc, injected)
	if err != nil {
		return false, err
	}

	if err := s.Fs.MkdirAll(prefix, 0o750); err != nil {
		return false, fmt.Errorf("failed to create wineprefix %s: %w", prefix, err)
	}
	log.Debug().Str("path", path).Msg("writing start script")
	if err := afero.WriteFile(s.Fs, path, []byte(content), 0o700); err != nil {
		return false, fmt.Errorf("failed to write start script %s: %w", path, err)
	}
	// WriteFile leaves the mode of an existing file alone.
	if err := s.Fs.Chmod(path, 0o700); err != nil {
		return false, fmt.Errorf("failed to chmod start script %s: %w", path, err)
	}
	return true, nil
}

func (s *Script) Build(_ context.Context, acc accounts.Account, injected []string) (platforms.Invocation, error) {
	if err := s.Validate(acc); err != nil {
		return platforms.Invocation{}, err
	}
	if _, err := s.Write(acc, injected); err != nil {
		return platforms.Invocation{}, platforms.NewLaunchError("could not prepare start script", err)
	}
	return platforms.Invocation{
		Path: Shell,
		Dir:  s.Prefix(acc),
		Args: []string{s.ScriptPath(acc)},
	}, nil
}

// ShellQuote quotes s for a POSIX shell.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("@%+=:,./-_", r)
}
