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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/d2rloader/d2rloader-core/internal/telemetry"
	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/cli"
	"github.com/d2rloader/d2rloader-core/pkg/config"
	"github.com/d2rloader/d2rloader-core/pkg/platforms/linux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		telemetry.Flush()
		os.Exit(1)
	}
}

func run() error {
	pl := linux.NewPlatform()
	flags := cli.SetupFlags()

	regenerate := flag.String(
		"regenerate",
		"",
		"rewrite the start script of an account",
	)
	forceScript := flag.Bool(
		"force-script",
		false,
		"rewrite start scripts on every launch",
	)
	verbose := flag.Bool(
		"verbose",
		false,
		"also log to stderr",
	)

	flags.Pre(pl)

	if os.Geteuid() == 0 {
		return errors.New("d2rloader cannot be run as root")
	}

	var logWriters []io.Writer
	if *verbose {
		logWriters = []io.Writer{os.Stderr}
	}

	defaults := config.BaseDefaults
	cfg := cli.Setup(pl, defaults, logWriters, *flags.Debug)
	defer telemetry.Close()
	if *forceScript {
		cfg.SetForceScript(true)
		if err := pl.StartPre(cfg); err != nil {
			return fmt.Errorf("error starting platform: %w", err)
		}
	}

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch, outcomes := cli.NewLauncher(pl, cfg)
	defer orch.Stop()

	cmds := &cli.Commands{
		Ctx:        ctx,
		Out:        os.Stdout,
		Store:      accounts.NewStore(afero.NewOsFs(), cfg.AccountsPath()),
		Launcher:   orch,
		Outcomes:   outcomes,
		Settings:   pl.SettingsStore(),
		Regenerate: pl.Regenerate,
	}

	if *regenerate != "" {
		return cmds.RegenerateScript(*regenerate)
	}

	handled, err := flags.Post(cmds)
	if err != nil {
		return err
	}
	if !handled {
		flag.Usage()
	}
	return nil
}
