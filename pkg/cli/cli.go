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

// Package cli holds the flags and commands shared by the platform
// binaries.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/d2rloader/d2rloader-core/internal/telemetry"
	"github.com/d2rloader/d2rloader-core/pkg/config"
	"github.com/d2rloader/d2rloader-core/pkg/helpers"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/rs/zerolog/log"
)

type Flags struct {
	List         *bool
	Status       *bool
	Start        *string
	Kill         *string
	SaveSettings *string
	Overwrite    *bool
	Version      *bool
	Debug        *bool
}

// SetupFlags defines all common CLI flags between platforms.
func SetupFlags() *Flags {
	return &Flags{
		List: flag.Bool(
			"list",
			false,
			"list configured accounts",
		),
		Status: flag.Bool(
			"status",
			false,
			"show running instances",
		),
		Start: flag.String(
			"start",
			"",
			"start the game for comma-separated accounts (profile name or e-mail)",
		),
		Kill: flag.String(
			"kill",
			"",
			"terminate the instance of an account or pid",
		),
		SaveSettings: flag.String(
			"save-settings",
			"",
			"save the current game settings for an account",
		),
		Overwrite: flag.Bool(
			"overwrite",
			false,
			"replace existing saved game settings",
		),
		Version: flag.Bool(
			"version",
			false,
			"print version and exit",
		),
		Debug: flag.Bool(
			"debug",
			false,
			"enable debug logging",
		),
	}
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// Pre runs flag parsing and actions any immediate flags that don't
// require environment setup. Add any custom flags before running this.
func (f *Flags) Pre(pl platforms.Platform) {
	flag.Parse()

	if *f.Version {
		_, _ = fmt.Printf("D2RLoader v%s (%s)\n", config.AppVersion, pl.ID())
		os.Exit(0)
	}
}

// Post runs the command selected by the common flags. It returns false
// when no command flag was passed.
func (f *Flags) Post(env *Commands) (bool, error) {
	switch {
	case *f.List:
		return true, env.List()
	case *f.Status:
		return true, env.Status()
	case isFlagPassed("start"):
		if *f.Start == "" {
			return true, errFlagValue("start")
		}
		return true, env.Start(splitNames(*f.Start)...)
	case isFlagPassed("kill"):
		if *f.Kill == "" {
			return true, errFlagValue("kill")
		}
		return true, env.Kill(*f.Kill)
	case isFlagPassed("save-settings"):
		if *f.SaveSettings == "" {
			return true, errFlagValue("save-settings")
		}
		return true, env.SaveSettings(*f.SaveSettings, *f.Overwrite)
	}
	return false, nil
}

func splitNames(v string) []string {
	var names []string
	for _, name := range strings.Split(v, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func errFlagValue(name string) error {
	return fmt.Errorf("%s flag requires a value", name)
}

// Setup initializes the user config and logging. Returns a user config object.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	pl platforms.Platform,
	defaultConfig config.Values,
	writers []io.Writer,
	debug bool,
) *config.Instance {
	err := helpers.EnsureDirectories(pl)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error creating directories: %v\n", err)
		os.Exit(1)
	}

	err = helpers.InitLogging(pl, writers)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig(pl.Settings().ConfigDir, defaultConfig)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	helpers.SetLogLevel(debug || cfg.DebugLogging())

	if err := telemetry.Init(
		cfg.ErrorReporting(),
		cfg.ErrorReportingDSN(),
		config.AppVersion,
		pl.ID(),
	); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	if err := pl.StartPre(cfg); err != nil {
		log.Error().Err(err).Msg("platform start pre failed")
		_, _ = fmt.Fprintf(os.Stderr, "Error starting platform: %v\n", err)
		os.Exit(1)
	}

	return cfg
}
