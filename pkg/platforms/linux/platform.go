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

//go:build linux

// Package linux runs the game under Proton through Lutris' umu launcher,
// one wine prefix per account.
package linux

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/config"
	"github.com/d2rloader/d2rloader-core/pkg/helpers/command"
	"github.com/d2rloader/d2rloader-core/pkg/helpers/proctree"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/d2rloader/d2rloader-core/pkg/platforms/shared/credentials"
	"github.com/d2rloader/d2rloader-core/pkg/platforms/shared/gamesettings"
	"github.com/d2rloader/d2rloader-core/pkg/platforms/shared/handles"
	"github.com/d2rloader/d2rloader-core/pkg/platforms/shared/launchctx"
	"github.com/d2rloader/d2rloader-core/pkg/platforms/shared/lutris"
	"github.com/d2rloader/d2rloader-core/pkg/platforms/shared/windowid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// WindowTimeout is longer than on Windows since the prefix may need to
// boot wine first.
const WindowTimeout = 30 * time.Second

var errNotStarted = errors.New("platform not started")

type Platform struct {
	fs       afero.Fs
	executor command.Executor
	script   *launchctx.Script
	windows  *windowid.Wmctrl
	procs    *proctree.Control
	settings *gamesettings.Manager
}

func NewPlatform() *Platform {
	return &Platform{
		fs:       afero.NewOsFs(),
		executor: &command.RealExecutor{},
	}
}

func (*Platform) ID() string {
	return platforms.PlatformIDLinux
}

func (*Platform) Capabilities() platforms.Capabilities {
	return platforms.Capabilities{
		Context:           platforms.ContextScript,
		WindowTimeout:     WindowTimeout,
		NestedGameProcess: true,
	}
}

func (*Platform) Settings() platforms.Settings {
	return platforms.Settings{
		ConfigDir: filepath.Join(xdg.ConfigHome, config.AppName),
		DataDir:   filepath.Join(xdg.DataHome, config.AppName),
		LogDir:    filepath.Join(xdg.StateHome, config.AppName),
	}
}

// detectGameDir looks the game up in the Lutris database.
func (p *Platform) detectGameDir(runtimeRoot string) string {
	dbPath, ok := lutris.FindDB(p.fs, runtimeRoot, lutris.FlatpakRoot())
	if !ok {
		log.Debug().Msg("lutris database not found")
		return ""
	}
	dir, err := lutris.DetectGameDir(context.Background(), p.fs, dbPath)
	if err != nil {
		log.Warn().Err(err).Str("db", dbPath).Msg("could not detect game path from lutris")
		return ""
	}
	log.Info().Str("path", dir).Msg("detected game path from lutris")
	return dir
}

func (p *Platform) StartPre(cfg *config.Instance) error {
	runtimeRoot := cfg.RuntimeRoot()
	if runtimeRoot == "" {
		runtimeRoot = lutris.DefaultRoot()
	}

	gameDir := cfg.GamePath()
	if gameDir == "" {
		gameDir = p.detectGameDir(runtimeRoot)
	}
	if gameDir == "" {
		log.Warn().Msg("game path is not set, launches will fail until it is configured")
	}

	p.script = &launchctx.Script{
		Fs:          p.fs,
		GameDir:     gameDir,
		ProfileRoot: cfg.ProfileRoot(),
		RuntimeRoot: runtimeRoot,
		Force:       cfg.ForceScript(),
	}
	p.windows = &windowid.Wmctrl{Executor: p.executor}
	p.procs = proctree.NewControl(p.executor, platforms.GameExecutable)
	p.settings = &gamesettings.Manager{
		Fs:         p.fs,
		SavedGames: gamesettings.WinePrefixSavedGames(p.script.Prefix),
		StoreDir:   cfg.GameSettingsDir(),
	}

	log.Debug().
		Str("game", gameDir).
		Str("runtime", runtimeRoot).
		Str("prefixes", p.script.ProfileRoot).
		Msg("linux platform started")
	return nil
}

func (*Platform) Stop() error {
	return nil
}

func (*Platform) Injector() platforms.CredentialInjector {
	return credentials.PasswordOnlyInjector{}
}

func (p *Platform) Builder() platforms.ContextBuilder {
	return p.script
}

func (*Platform) Locks() platforms.LockSuppressor {
	return handles.Noop{}
}

func (p *Platform) Windows() platforms.WindowSystem {
	return p.windows
}

// CredentialSlot is nil: the game never sees a stored token here.
func (*Platform) CredentialSlot() platforms.CredentialSlot {
	return nil
}

func (p *Platform) Processes() platforms.ProcessControl {
	return p.procs
}

func (p *Platform) GameSettings() platforms.SettingsApplier {
	return p.settings
}

// SettingsStore returns the game settings manager for saving the current
// settings of an account.
func (p *Platform) SettingsStore() *gamesettings.Manager {
	return p.settings
}

// Regenerate rewrites the start script of acc.
func (p *Platform) Regenerate(acc accounts.Account) error {
	if p.script == nil {
		return errNotStarted
	}
	if err := p.script.Validate(acc); err != nil {
		return err //nolint:wrapcheck // already a launch error
	}
	script := *p.script
	script.Force = true
	if _, err := script.Write(acc, credentials.PasswordArgs(acc)); err != nil {
		return fmt.Errorf("failed to regenerate start script for %s: %w", acc.ID(), err)
	}
	log.Info().Str("account", acc.ID()).Str("path", script.ScriptPath(acc)).Msg("start script regenerated")
	return nil
}
