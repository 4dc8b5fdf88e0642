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

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/config"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/d2rloader/d2rloader-core/pkg/platforms/shared/gamesettings"
	"github.com/d2rloader/d2rloader-core/pkg/service/launcher"
	"github.com/d2rloader/d2rloader-core/pkg/service/registry"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownAccount = errors.New("unknown account")
	ErrNotSupported   = errors.New("not supported on this platform")
	ErrNotRunning     = errors.New("no running instance")
)

// Outcome is the final report of a launch started from the CLI.
type Outcome struct {
	Err     error
	Account accounts.Account
	Result  launcher.Result
}

// NewLauncher returns an orchestrator for a started platform whose
// callbacks are delivered on the returned channel.
func NewLauncher(
	pl platforms.Platform,
	cfg *config.Instance,
	opts ...launcher.Option,
) (*launcher.Orchestrator, <-chan Outcome) {
	outcomes := make(chan Outcome, 8)
	reg := registry.New(pl.Processes().Alive)
	opts = append([]launcher.Option{
		launcher.OnSuccess(func(r launcher.Result) {
			outcomes <- Outcome{Account: r.Account, Result: r}
		}),
		launcher.OnError(func(acc accounts.Account, err error) {
			outcomes <- Outcome{Account: acc, Err: err}
		}),
		launcher.OnState(func(acc accounts.Account, s launcher.State) {
			log.Debug().Str("account", acc.ID()).Stringer("state", s).Msg("launch state")
		}),
	}, opts...)
	return launcher.New(pl, cfg, reg, opts...), outcomes
}

// Commands runs the CLI actions against a started platform.
type Commands struct {
	Ctx      context.Context
	Out      io.Writer
	Store    *accounts.Store
	Launcher *launcher.Orchestrator
	Outcomes <-chan Outcome
	// Settings is nil when the platform cannot save game settings.
	Settings *gamesettings.Manager

	// Regenerate is nil when the platform does not use start scripts.
	Regenerate func(accounts.Account) error
}

func (c *Commands) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(c.Out, format, a...)
}

func (c *Commands) loadAccounts() ([]accounts.Account, error) {
	accs, err := c.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	return accs, nil
}

func (c *Commands) lookup(name string) (accounts.Account, error) {
	accs, err := c.loadAccounts()
	if err != nil {
		return accounts.Account{}, err
	}
	acc, ok := accounts.Lookup(accs, name)
	if !ok {
		return accounts.Account{}, fmt.Errorf("%w: %s", ErrUnknownAccount, name)
	}
	return acc, nil
}

func (c *Commands) List() error {
	accs, err := c.loadAccounts()
	if err != nil {
		return err
	}
	if len(accs) == 0 {
		c.printf("no accounts configured in %s\n", c.Store.Path())
		return nil
	}

	w := tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tAUTH\tREGION")
	for _, acc := range accs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			acc.ID(), acc.DisplayName(), acc.AuthMethod, acc.Region.Code())
	}
	return w.Flush() //nolint:wrapcheck // terminal output
}

// Status finds already running games and prints every known instance.
func (c *Commands) Status() error {
	accs, err := c.loadAccounts()
	if err != nil {
		return err
	}
	if _, err := c.Launcher.FindActiveInstances(c.Ctx, accs); err != nil {
		log.Warn().Err(err).Msg("could not look for running instances")
	}

	records := c.Launcher.Registry().All()
	if len(records) == 0 {
		c.printf("no running instances\n")
		return nil
	}

	w := tabwriter.NewWriter(c.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ACCOUNT\tPID\tSTARTED")
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", r.AccountID, r.PID, r.Started.Format(time.DateTime))
	}
	return w.Flush() //nolint:wrapcheck // terminal output
}

// Start launches accounts and waits until every launch is confirmed or
// has failed. Games keep running after the CLI exits. The error joins the
// failures of all accounts.
func (c *Commands) Start(names ...string) error {
	accs, err := c.loadAccounts()
	if err != nil {
		return err
	}
	if _, err := c.Launcher.FindActiveInstances(c.Ctx, accs); err != nil {
		log.Warn().Err(err).Msg("could not look for running instances")
	}

	var errs []error
	pending := 0
	for _, name := range names {
		acc, ok := accounts.Lookup(accs, name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownAccount, name))
			continue
		}
		if err := c.Launcher.Start(acc); err != nil {
			errs = append(errs, err)
			continue
		}
		c.printf("starting %s...\n", acc.DisplayName())
		pending++
	}

	for ; pending > 0; pending-- {
		select {
		case o := <-c.Outcomes:
			if o.Err != nil {
				c.printf("%s failed: %v\n", o.Account.DisplayName(), o.Err)
				errs = append(errs, o.Err)
				continue
			}
			if o.Result.LoggedIn {
				c.printf("%s started with pid %d and logged in\n",
					o.Account.DisplayName(), o.Result.PID)
			} else {
				c.printf("%s started with pid %d, login was not confirmed\n",
					o.Account.DisplayName(), o.Result.PID)
			}
		case <-c.Ctx.Done():
			return errors.Join(append(errs, fmt.Errorf("start interrupted: %w", c.Ctx.Err()))...)
		}
	}
	return errors.Join(errs...)
}

// Kill terminates a running instance and its process tree. target is a
// pid or an account.
func (c *Commands) Kill(target string) error {
	accs, err := c.loadAccounts()
	if err != nil {
		return err
	}
	if _, err := c.Launcher.FindActiveInstances(c.Ctx, accs); err != nil {
		log.Warn().Err(err).Msg("could not look for running instances")
	}

	reg := c.Launcher.Registry()
	var rec registry.Record
	known := false
	pid, err := strconv.Atoi(target)
	if err == nil {
		rec, known = reg.FindPID(pid)
	} else {
		acc, ok := accounts.Lookup(accs, target)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownAccount, target)
		}
		rec, known = reg.Find(acc.ID())
		if !known || rec.PID == 0 {
			return fmt.Errorf("%w: %s", ErrNotRunning, acc.DisplayName())
		}
		pid = rec.PID
	}

	if err := c.Launcher.Kill(pid); err != nil {
		return err //nolint:wrapcheck // already names the pid
	}
	if known {
		c.printf("killed %s (pid %d)\n", rec.AccountID, pid)
	} else {
		c.printf("killed pid %d\n", pid)
	}
	return nil
}

// SaveSettings copies the game's current Settings.json to the account's
// store entry.
func (c *Commands) SaveSettings(name string, overwrite bool) error {
	if c.Settings == nil {
		return fmt.Errorf("saving game settings: %w", ErrNotSupported)
	}
	acc, err := c.lookup(name)
	if err != nil {
		return err
	}

	path, existed, err := c.Settings.SaveCurrent(acc, overwrite)
	if err != nil {
		return fmt.Errorf("failed to save game settings for %s: %w", acc.DisplayName(), err)
	}
	if existed {
		c.printf("%s already exists, pass -overwrite to replace it\n", path)
		return nil
	}
	c.printf("saved game settings to %s\n", path)
	return nil
}

// RegenerateScript rewrites the start script of an account.
func (c *Commands) RegenerateScript(name string) error {
	if c.Regenerate == nil {
		return fmt.Errorf("regenerating start scripts: %w", ErrNotSupported)
	}
	acc, err := c.lookup(name)
	if err != nil {
		return err
	}
	if err := c.Regenerate(acc); err != nil {
		return err //nolint:wrapcheck // already names the account
	}
	c.printf("regenerated start script for %s\n", acc.DisplayName())
	return nil
}
