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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/config"
	"github.com/d2rloader/d2rloader-core/pkg/helpers/proctracker"
	"github.com/d2rloader/d2rloader-core/pkg/helpers/syncutil"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/d2rloader/d2rloader-core/pkg/service/registry"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Orchestrator accepts launch requests and owns the launch lock. The lock
// guards the steps that touch per-user OS state: the game settings file,
// the stored credential and the single-instance event.
//
// A token launch keeps the lock until its login is seen or times out,
// because the login is detected by the game rewriting the shared token slot.
// While one token login is pending, every other launch on a platform with a
// token slot waits for the lock, for up to the login timeout.
type Orchestrator struct {
	ctx       context.Context
	pl        platforms.Platform
	clock     clockwork.Clock
	cfg       *config.Instance
	reg       *registry.Registry
	tracker   *proctracker.Tracker
	lock      *semaphore.Weighted
	cancel    context.CancelFunc
	onSuccess SuccessFunc
	onError   ErrorFunc
	onState   StateFunc
	wg        sync.WaitGroup
	mu        syncutil.Mutex
	stopped   bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// OnSuccess sets the callback for confirmed launches.
func OnSuccess(fn SuccessFunc) Option {
	return func(o *Orchestrator) { o.onSuccess = fn }
}

// OnError sets the callback for failed launches.
func OnError(fn ErrorFunc) Option {
	return func(o *Orchestrator) { o.onError = fn }
}

// OnState sets a callback for every state change of a launch. It runs on
// the launch goroutine and must not block.
func OnState(fn StateFunc) Option {
	return func(o *Orchestrator) { o.onState = fn }
}

// WithClock sets the clock for every wait and poll of a launch.
func WithClock(clock clockwork.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithTracker sets the exit tracker for started instances. The
// orchestrator stops it on Stop.
func WithTracker(t *proctracker.Tracker) Option {
	return func(o *Orchestrator) { o.tracker = t }
}

// New returns an orchestrator for a started platform.
func New(
	pl platforms.Platform,
	cfg *config.Instance,
	reg *registry.Registry,
	opts ...Option,
) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		ctx:    ctx,
		cancel: cancel,
		pl:     pl,
		cfg:    cfg,
		reg:    reg,
		clock:  clockwork.NewRealClock(),
		lock:   semaphore.NewWeighted(1),
		onSuccess: func(r Result) {
			log.Info().Str("account", r.Account.ID()).Int("pid", r.PID).Msg("instance started")
		},
		onError: func(acc accounts.Account, err error) {
			log.Error().Err(err).Str("account", acc.ID()).Msg("instance failed to start")
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracker == nil {
		o.tracker = proctracker.New()
	}
	return o
}

// Start launches acc in the background. It fails right away when the
// account already runs or is being launched; otherwise exactly one of the
// callbacks fires later.
func (o *Orchestrator) Start(acc accounts.Account) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		return ErrStopped
	}
	if err := o.reg.Reserve(acc.ID()); err != nil {
		return fmt.Errorf("cannot start %s: %w", acc.DisplayName(), err)
	}

	req := &Request{ID: uuid.New(), Account: acc}
	o.wg.Add(1)
	go o.run(req)
	return nil
}

func (o *Orchestrator) run(req *Request) {
	defer o.wg.Done()

	id := req.Account.ID()
	logger := log.With().
		Str("request", req.ID.String()).
		Str("account", id).
		Logger()
	logger.Info().Str("auth", string(req.Account.AuthMethod)).Msg("launch requested")

	res, err := newMachine(o, req, logger).run(o.ctx)
	if err != nil {
		o.reg.Release(id)
		logger.Error().Err(err).Msg("launch failed")
		o.onError(req.Account, err)
		return
	}

	o.reg.Register(id, res.PID, res.LoggedIn)
	o.track(res.PID)
	logger.Info().Int("pid", res.PID).Bool("loggedIn", res.LoggedIn).Msg("launch confirmed")
	o.onSuccess(res)
}

// track drops the record of pid once the process exits.
func (o *Orchestrator) track(pid int) {
	err := o.tracker.Track(pid, func(pid int) {
		if id, ok := o.reg.UnregisterPID(pid); ok {
			log.Info().Str("account", id).Int("pid", pid).Msg("instance exited")
		}
	})
	switch {
	case errors.Is(err, proctracker.ErrProcessNotFound):
		o.reg.UnregisterPID(pid)
	case err != nil:
		log.Warn().Err(err).Int("pid", pid).Msg("could not track instance")
	}
}

// Kill terminates the process tree of pid and removes its record. The
// record is removed even when termination fails.
func (o *Orchestrator) Kill(pid int) error {
	o.tracker.Untrack(pid)
	err := o.pl.Processes().KillTree(context.Background(), pid)

	id, ok := o.reg.UnregisterPID(pid)
	if ok {
		log.Info().Str("account", id).Int("pid", pid).Msg("instance killed")
	}
	if err != nil {
		return fmt.Errorf("failed to kill pid %d: %w", pid, err)
	}
	return nil
}

// FindActiveInstances registers games already running for accs, matched
// by window title, and returns their pids by account id.
func (o *Orchestrator) FindActiveInstances(
	ctx context.Context,
	accs []accounts.Account,
) (map[string]int, error) {
	ws := o.pl.Windows()
	if ws == nil {
		return map[string]int{}, nil
	}
	found, err := o.reg.Reconcile(ctx, ws, accs)
	if err != nil {
		return nil, fmt.Errorf("failed to find active instances: %w", err)
	}
	for _, pid := range found {
		if _, ok := o.reg.FindPID(pid); ok {
			o.track(pid)
		}
	}
	return found, nil
}

// Registry returns the instance registry.
func (o *Orchestrator) Registry() *registry.Registry {
	return o.reg
}

// Stop cancels in-flight launches and waits for their callbacks. Started
// games keep running.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
	o.tracker.Stop()
}
