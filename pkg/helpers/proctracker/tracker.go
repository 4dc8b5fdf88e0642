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

// Package proctracker reports when launched game processes exit so that
// their instance records can be dropped. Linux 5.3+ uses pidfd_open; other
// systems poll.
package proctracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/d2rloader/d2rloader-core/pkg/helpers"
	"github.com/d2rloader/d2rloader-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrProcessNotFound is returned when a process doesn't exist.
var ErrProcessNotFound = errors.New("process not found")

// PollInterval is the default interval for fallback polling.
const PollInterval = 2 * time.Second

// ExitCallback is called when a tracked process exits.
type ExitCallback func(pid int)

// Tracker monitors processes and calls callbacks when they exit.
type Tracker struct {
	clock    clockwork.Clock
	tracked  map[int]*trackedProcess
	alive    func(int) bool
	done     chan struct{}
	wg       sync.WaitGroup
	interval time.Duration
	mu       syncutil.Mutex
	stopOnce sync.Once
	usePidfd bool
}

type trackedProcess struct {
	callback ExitCallback
	cancel   context.CancelFunc
	pid      int
	pidfd    int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the clock used by the polling fallback.
func WithClock(clock clockwork.Clock) Option {
	return func(t *Tracker) { t.clock = clock }
}

// WithPollInterval sets the polling fallback interval.
func WithPollInterval(d time.Duration) Option {
	return func(t *Tracker) { t.interval = d }
}

// WithAliveFunc replaces the liveness check and forces polling.
func WithAliveFunc(alive func(int) bool) Option {
	return func(t *Tracker) {
		t.alive = alive
		t.usePidfd = false
	}
}

// New creates a tracker, using pidfd when the kernel supports it.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		tracked:  make(map[int]*trackedProcess),
		clock:    clockwork.NewRealClock(),
		alive:    helpers.ProcessAlive,
		interval: PollInterval,
		done:     make(chan struct{}),
		usePidfd: pidfdSupported(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.usePidfd {
		log.Debug().Msg("proctracker: using pidfd_open for process tracking")
	} else {
		log.Debug().Msg("proctracker: using poll fallback")
	}
	return t
}

// Track starts monitoring a process. Tracking an already tracked pid is a
// no-op.
func (t *Tracker) Track(pid int, callback ExitCallback) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.done:
		return errors.New("tracker stopped")
	default:
	}

	if _, exists := t.tracked[pid]; exists {
		return nil
	}

	if !t.alive(pid) {
		return ErrProcessNotFound
	}

	ctx, cancel := context.WithCancel(context.Background())
	tp := &trackedProcess{
		pid:      pid,
		pidfd:    -1,
		callback: callback,
		cancel:   cancel,
	}

	if t.usePidfd {
		fd, err := openPidfd(pid)
		switch {
		case errors.Is(err, ErrProcessNotFound):
			cancel()
			return ErrProcessNotFound
		case err != nil:
			log.Debug().Err(err).Int("pid", pid).Msg("pidfd_open failed, using poll fallback")
		default:
			tp.pidfd = fd
		}
	}

	t.tracked[pid] = tp

	t.wg.Add(1)
	if tp.pidfd >= 0 {
		go t.watchPidfd(ctx, tp)
	} else {
		go t.watchPoll(ctx, tp)
	}

	return nil
}

// Untrack stops monitoring a process without calling its callback.
func (t *Tracker) Untrack(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tp, exists := t.tracked[pid]; exists {
		tp.cancel()
		closePidfd(tp.pidfd)
		delete(t.tracked, pid)
	}
}

// Tracked reports whether pid is being monitored.
func (t *Tracker) Tracked(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.tracked[pid]
	return ok
}

// Stop stops all tracking and waits for the watchers to finish.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)

		t.mu.Lock()
		for _, tp := range t.tracked {
			tp.cancel()
			closePidfd(tp.pidfd)
		}
		t.tracked = make(map[int]*trackedProcess)
		t.mu.Unlock()

		t.wg.Wait()
	})
}

func (t *Tracker) watchPidfd(ctx context.Context, tp *trackedProcess) {
	defer t.wg.Done()
	if waitPidfd(ctx, t.done, tp.pidfd, tp.pid) {
		t.handleExit(tp)
	}
}

func (t *Tracker) watchPoll(ctx context.Context, tp *trackedProcess) {
	defer t.wg.Done()

	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case <-ticker.Chan():
			if !t.alive(tp.pid) {
				t.handleExit(tp)
				return
			}
		}
	}
}

func (t *Tracker) handleExit(tp *trackedProcess) {
	t.mu.Lock()
	// Untrack may have raced with the exit.
	if current, exists := t.tracked[tp.pid]; !exists || current != tp {
		t.mu.Unlock()
		return
	}
	tp.cancel()
	closePidfd(tp.pidfd)
	delete(t.tracked, tp.pid)
	t.mu.Unlock()

	log.Debug().Int("pid", tp.pid).Msg("process exited")
	if tp.callback != nil {
		tp.callback(tp.pid)
	}
}
