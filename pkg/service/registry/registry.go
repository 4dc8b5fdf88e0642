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

// Package registry tracks which accounts have a running game, so that an
// account is never started twice.
package registry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/helpers/syncutil"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyRunning = errors.New("account is already running")
	ErrPending        = errors.New("account is already being launched")
)

// Record is a running game owned by an account.
type Record struct {
	Started   time.Time
	AccountID string
	PID       int
	Confirmed bool
}

// Registry holds at most one record or reservation per account id.
type Registry struct {
	clock   clockwork.Clock
	alive   func(pid int) bool
	records map[string]Record
	pending map[string]struct{}
	mu      syncutil.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock used for record start times.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Registry) { r.clock = clock }
}

// New returns an empty registry. alive reports whether a pid still runs
// and is used to drop stale records.
func New(alive func(pid int) bool, opts ...Option) *Registry {
	r := &Registry{
		clock:   clockwork.NewRealClock(),
		alive:   alive,
		records: make(map[string]Record),
		pending: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// dropStaleLocked removes the record of id if its process is gone.
func (r *Registry) dropStaleLocked(id string) {
	rec, ok := r.records[id]
	if !ok || r.alive == nil || r.alive(rec.PID) {
		return
	}
	log.Debug().Str("account", id).Int("pid", rec.PID).Msg("dropping stale instance record")
	delete(r.records, id)
}

// Reserve marks id as launching. It fails if the account has a live
// record or another launch holds the reservation.
func (r *Registry) Reserve(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[id]; ok {
		return fmt.Errorf("%s: %w", id, ErrPending)
	}
	r.dropStaleLocked(id)
	if rec, ok := r.records[id]; ok {
		return fmt.Errorf("%s (pid %d): %w", id, rec.PID, ErrAlreadyRunning)
	}
	r.pending[id] = struct{}{}
	return nil
}

// Release drops the reservation of id without registering.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}

// Register records a running game for id and clears its reservation.
func (r *Registry) Register(id string, pid int, confirmed bool) Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, id)
	rec := Record{
		AccountID: id,
		PID:       pid,
		Confirmed: confirmed,
		Started:   r.clock.Now(),
	}
	r.records[id] = rec
	return rec
}

// Unregister removes the record of id.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
}

// UnregisterPID removes the record owning pid and returns its account id.
func (r *Registry) UnregisterPID(pid int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.records {
		if rec.PID == pid {
			delete(r.records, id)
			return id, true
		}
	}
	return "", false
}

// Find returns the record of id.
func (r *Registry) Find(id string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	return rec, ok
}

// FindPID returns the record owning pid.
func (r *Registry) FindPID(pid int) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.PID == pid {
			return rec, true
		}
	}
	return Record{}, false
}

// Pending reports whether id is reserved.
func (r *Registry) Pending(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[id]
	return ok
}

// All returns every record ordered by account id.
func (r *Registry) All() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := slices.Sorted(maps.Keys(r.records))
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.records[id])
	}
	return out
}

// Reconcile matches renamed game windows to accounts and registers the
// matches, so games started before this process are known. It returns the
// pid of every matched account. Stale records are dropped first.
func (r *Registry) Reconcile(
	ctx context.Context,
	windows platforms.WindowSystem,
	accs []accounts.Account,
) (map[string]int, error) {
	list, err := windows.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}

	byTitle := make(map[string]int, len(list))
	for _, w := range list {
		if _, ok := byTitle[w.Title]; !ok {
			byTitle[w.Title] = w.PID
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.records {
		r.dropStaleLocked(id)
	}

	found := make(map[string]int)
	for _, acc := range accs {
		pid, ok := byTitle[acc.WindowTitle()]
		if !ok {
			continue
		}
		id := acc.ID()
		found[id] = pid
		if _, pending := r.pending[id]; pending {
			continue
		}
		if rec, exists := r.records[id]; exists && rec.PID == pid {
			continue
		}
		log.Info().Str("account", id).Int("pid", pid).Msg("found running instance")
		r.records[id] = Record{
			AccountID: id,
			PID:       pid,
			Confirmed: true,
			Started:   r.clock.Now(),
		}
	}
	return found, nil
}
