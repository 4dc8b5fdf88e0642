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

//go:build windows

// Package windows launches the game directly, handing tokens over through
// the registry the way the Battle.net launcher does.
package windows

import (
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
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sys/windows"
)

const WindowTimeout = 10 * time.Second

type Platform struct {
	executor command.Executor
	vault    *RegistryVault
	injector *credentials.TokenInjector
	builder  *launchctx.Direct
	locks    *handles.Manager
	procs    *proctree.Control
	settings *gamesettings.Manager
}

func NewPlatform() *Platform {
	vault := &RegistryVault{}
	return &Platform{
		executor: &command.RealExecutor{},
		vault:    vault,
		injector: &credentials.TokenInjector{Vault: vault},
	}
}

func (*Platform) ID() string {
	return platforms.PlatformIDWindows
}

func (*Platform) Capabilities() platforms.Capabilities {
	return platforms.Capabilities{
		Context:         platforms.ContextDirect,
		WindowTimeout:   WindowTimeout,
		SerializeLaunch: true,
		TokenAuth:       true,
	}
}

func (*Platform) Settings() platforms.Settings {
	return platforms.Settings{
		ConfigDir: filepath.Join(xdg.ConfigHome, config.AppName),
		DataDir:   filepath.Join(xdg.DataHome, config.AppName),
		LogDir:    filepath.Join(xdg.DataHome, config.AppName, "logs"),
	}
}

// savedGames resolves the current user's Saved Games known folder. It is
// the same for every account.
func savedGames(accounts.Account) (string, error) {
	path, err := windows.KnownFolderPath(windows.FOLDERID_SavedGames, 0)
	if err != nil {
		return "", fmt.Errorf("failed to resolve Saved Games folder: %w", err)
	}
	return path, nil
}

func (p *Platform) StartPre(cfg *config.Instance) error {
	if cfg.GamePath() == "" {
		log.Warn().Msg("game path is not set, launches will fail until it is configured")
	}
	if cfg.HandlePath() == "" {
		log.Warn().Msg("handle tool path is not set, only one instance can run")
	}

	p.builder = launchctx.NewDirect(cfg.GamePath())
	p.locks = &handles.Manager{Executor: p.executor, ToolPath: cfg.HandlePath()}
	p.procs = proctree.NewControl(p.executor, "")
	p.settings = &gamesettings.Manager{
		Fs:         afero.NewOsFs(),
		SavedGames: savedGames,
		StoreDir:   cfg.GameSettingsDir(),
	}
	return nil
}

func (*Platform) Stop() error {
	return nil
}

func (p *Platform) Injector() platforms.CredentialInjector {
	return p.injector
}

func (p *Platform) Builder() platforms.ContextBuilder {
	return p.builder
}

func (p *Platform) Locks() platforms.LockSuppressor {
	return p.locks
}

func (*Platform) Windows() platforms.WindowSystem {
	return Desktop{}
}

func (p *Platform) CredentialSlot() platforms.CredentialSlot {
	return p.vault
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
