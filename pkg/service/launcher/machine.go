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

package launcher

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/d2rloader/d2rloader-core/pkg/platforms/shared/windowid"
	"github.com/rs/zerolog"
)

// timings are read from the config once per launch.
type timings struct {
	settle time.Duration
	window time.Duration
	poll   time.Duration
	login  time.Duration
}

// machine runs one launch from Validating to Confirmed or Failed.
type machine struct {
	o       *Orchestrator
	req     *Request
	log     zerolog.Logger
	timings timings
	state   State
	locked  bool
}

func newMachine(o *Orchestrator, req *Request, logger zerolog.Logger) *machine {
	caps := o.pl.Capabilities()
	return &machine{
		o:     o,
		req:   req,
		log:   logger,
		state: StateValidating,
		timings: timings{
			settle: o.cfg.SettleDelay(),
			window: o.cfg.WindowTimeout(caps.WindowTimeout),
			poll:   o.cfg.PollInterval(),
			login:  o.cfg.LoginTimeout(),
		},
	}
}

func (m *machine) transition(to State) {
	m.log.Debug().Stringer("from", m.state).Stringer("to", to).Msg("launch state changed")
	m.state = to
	if m.o.onState != nil {
		m.o.onState(m.req.Account, to)
	}
}

// fail moves to Failed and returns err as a *platforms.LaunchError tagged
// with the state it failed in.
func (m *machine) fail(err error) error {
	var le *platforms.LaunchError
	if !errors.As(err, &le) {
		le = platforms.NewLaunchError("", err)
	}
	if le.Stage == "" {
		le.Stage = m.state.String()
	}
	if m.state == StateValidating {
		le.Validation = true
	}
	m.transition(StateFailed)
	return le
}

// abort fails the launch and terminates the game if it was started.
func (m *machine) abort(ctx context.Context, pid int, err error) error {
	if pid > 0 {
		if killErr := m.o.pl.Processes().KillTree(context.WithoutCancel(ctx), pid); killErr != nil {
			m.log.Warn().Err(killErr).Msg("could not terminate failed instance")
		}
	}
	return m.fail(err)
}

func (m *machine) unlock() {
	if m.locked {
		m.locked = false
		m.o.lock.Release(1)
	}
}

// awaitsLogin reports whether the login can be observed for this launch.
func (m *machine) awaitsLogin() bool {
	return m.req.Account.AuthMethod == accounts.AuthToken && m.o.pl.CredentialSlot() != nil
}

func (m *machine) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := m.o.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

func (m *machine) run(ctx context.Context) (Result, error) {
	acc := m.req.Account

	if err := m.validate(); err != nil {
		return Result{}, m.fail(err)
	}

	m.transition(StateSpawning)
	if err := m.o.lock.Acquire(ctx, 1); err != nil {
		return Result{}, m.fail(platforms.CanceledError(err))
	}
	m.locked = true
	defer m.unlock()

	waitLogin := m.awaitsLogin()
	pid, snapshot, err := m.spawn(ctx, waitLogin)
	if err != nil {
		return Result{}, m.abort(ctx, pid, err)
	}
	if !waitLogin {
		m.unlock()
	}

	m.transition(StateAwaitingWindow)
	m.renameWindow(ctx, pid)
	if err := ctx.Err(); err != nil {
		return Result{}, m.abort(ctx, pid, platforms.CanceledError(err))
	}

	loggedIn := true
	if waitLogin {
		m.transition(StateAwaitingLogin)
		loggedIn, err = m.awaitLogin(ctx, pid, snapshot)
		if err != nil {
			return Result{}, m.abort(ctx, pid, err)
		}
	} else if !m.o.pl.Processes().Alive(pid) {
		return Result{}, m.abort(ctx, pid, platforms.ProcessExitedError("game exited before it was confirmed"))
	}

	m.transition(StateConfirmed)
	return Result{Account: acc, PID: pid, LoggedIn: loggedIn}, nil
}

func (m *machine) validate() error {
	acc := m.req.Account

	if err := accounts.Validate(acc); err != nil {
		var ve *accounts.ValidationError
		if errors.As(err, &ve) &&
			(ve.HasField("AuthMethod") || ve.HasField("Token") || ve.HasField("Password")) {
			return platforms.AuthError("invalid credentials", err)
		}
		return platforms.NewLaunchError("invalid account", err)
	}
	if err := m.o.pl.Builder().Validate(acc); err != nil {
		return err //nolint:wrapcheck // already a launch error
	}
	if err := m.o.pl.Injector().Validate(acc); err != nil {
		return err //nolint:wrapcheck // already a launch error
	}
	return nil
}

// spawn runs the critical section up to a started, settled game. The
// returned pid is set as soon as the process exists, even on error.
func (m *machine) spawn(ctx context.Context, waitLogin bool) (int, []byte, error) {
	pl := m.o.pl
	acc := m.req.Account

	if gs := pl.GameSettings(); gs != nil {
		if err := gs.Apply(acc); err != nil {
			m.log.Warn().Err(err).Msg("could not apply game settings, using current")
		}
	}
	if !pl.Capabilities().SerializeLaunch {
		m.unlock()
	}

	injected, err := pl.Injector().Inject(ctx, acc)
	if err != nil {
		return 0, nil, err //nolint:wrapcheck // already a launch error
	}
	inv, err := pl.Builder().Build(ctx, acc, injected)
	if err != nil {
		return 0, nil, err //nolint:wrapcheck // already a launch error
	}
	m.req.Invocation = inv

	var snapshot []byte
	if waitLogin {
		snapshot, err = pl.CredentialSlot().Read(ctx)
		if err != nil {
			m.log.Warn().Err(err).Msg("could not read credential slot before launch")
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, nil, platforms.CanceledError(err)
	}

	pl.Locks().Kill(ctx, true)

	m.log.Info().Strs("cmd", inv.Masked(acc.Password, acc.Token)).Msg("starting game")
	pid, err := pl.Processes().Spawn(inv)
	if err != nil {
		return 0, nil, platforms.NewLaunchError("could not start game", err)
	}
	m.log = m.log.With().Int("pid", pid).Logger()
	m.log.Debug().Msg("game process started")

	if err := m.sleep(ctx, m.timings.settle); err != nil {
		return pid, nil, platforms.CanceledError(err)
	}
	if !pl.Processes().Alive(pid) {
		return pid, nil, platforms.ProcessExitedError("game exited during start")
	}

	pl.Locks().Kill(ctx, false)
	return pid, snapshot, nil
}

func (m *machine) renameWindow(ctx context.Context, pid int) {
	pl := m.o.pl
	ws := pl.Windows()
	if ws == nil {
		return
	}

	source := func(context.Context) []int { return []int{pid} }
	if pl.Capabilities().NestedGameProcess {
		source = func(ctx context.Context) []int { return pl.Processes().GamePIDs(ctx, pid) }
	}

	mgr := &windowid.Manager{
		System:   ws,
		Clock:    m.o.clock,
		Interval: windowid.DefaultInterval,
		Timeout:  m.timings.window,
	}
	mgr.RenameFrom(ctx, source, m.req.Account.WindowTitle())
}

// awaitLogin polls the credential slot until the game rewrites it. A
// timeout with the game still running is a soft success.
func (m *machine) awaitLogin(ctx context.Context, pid int, snapshot []byte) (bool, error) {
	procs := m.o.pl.Processes()
	slot := m.o.pl.CredentialSlot()

	timeout := m.o.clock.NewTimer(m.timings.login)
	defer timeout.Stop()
	ticker := m.o.clock.NewTicker(m.timings.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, platforms.CanceledError(ctx.Err())
		case <-timeout.Chan():
			if !procs.Alive(pid) {
				return false, platforms.ProcessExitedError("game exited before login")
			}
			m.log.Warn().Dur("timeout", m.timings.login).
				Msg("login not observed before timeout, game is still running")
			return false, nil
		case <-ticker.Chan():
			if !procs.Alive(pid) {
				return false, platforms.ProcessExitedError("game exited before login")
			}
			current, err := slot.Read(ctx)
			if err != nil {
				m.log.Debug().Err(err).Msg("could not read credential slot")
				continue
			}
			if !bytes.Equal(current, snapshot) {
				m.log.Debug().Msg("credential slot changed, login detected")
				return true, nil
			}
		}
	}
}
