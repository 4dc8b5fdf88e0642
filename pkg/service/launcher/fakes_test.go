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
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/config"
	"github.com/d2rloader/d2rloader-core/pkg/helpers/proctracker"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/d2rloader/d2rloader-core/pkg/platforms/shared/credentials"
	"github.com/d2rloader/d2rloader-core/pkg/platforms/shared/launchctx"
	"github.com/d2rloader/d2rloader-core/pkg/service/registry"
	"github.com/d2rloader/d2rloader-core/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	gameDir      = "/games/d2r"
	pollInterval = 500 * time.Millisecond
	loginTimeout = 10 * time.Second
	trackPoll    = time.Second
)

type fakeProcs struct {
	spawnErr   error
	alive      map[int]bool
	spawned    []platforms.Invocation
	killed     []int
	nextPID    int
	mu         sync.Mutex
	nested     bool
	dieOnSpawn bool
}

func newFakeProcs() *fakeProcs {
	return &fakeProcs{alive: make(map[int]bool), nextPID: 1000}
}

func (f *fakeProcs) Spawn(inv platforms.Invocation) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spawnErr != nil {
		return 0, f.spawnErr
	}
	f.nextPID++
	f.alive[f.nextPID] = !f.dieOnSpawn
	f.spawned = append(f.spawned, inv)
	return f.nextPID, nil
}

func (f *fakeProcs) Alive(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[pid]
}

func (f *fakeProcs) gamePID(pid int) int {
	if f.nested {
		return pid + 100
	}
	return pid
}

func (f *fakeProcs) GamePIDs(_ context.Context, pid int) []int {
	return []int{f.gamePID(pid)}
}

func (f *fakeProcs) KillTree(_ context.Context, pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killed = append(f.killed, pid)
	f.alive[pid] = false
	return nil
}

func (f *fakeProcs) exit(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive[pid] = false
}

func (f *fakeProcs) invocations() []platforms.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.spawned)
}

func (f *fakeProcs) killedPIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.killed)
}

func (f *fakeProcs) alivePIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pids []int
	for pid, ok := range f.alive {
		if ok {
			pids = append(pids, pid)
		}
	}
	slices.Sort(pids)
	return pids
}

// fakeWindows shows an untitled game window for every running game until
// it is renamed.
type fakeWindows struct {
	procs  *fakeProcs
	titles map[int]string
	extra  []platforms.Window
	mu     sync.Mutex
}

func (w *fakeWindows) List(context.Context) ([]platforms.Window, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	windows := slices.Clone(w.extra)
	for _, pid := range w.procs.alivePIDs() {
		gamePID := w.procs.gamePID(pid)
		title, ok := w.titles[gamePID]
		if !ok {
			title = platforms.DefaultWindowTitle
		}
		windows = append(windows, platforms.Window{ID: uint64(gamePID), PID: gamePID, Title: title})
	}
	return windows, nil
}

func (w *fakeWindows) SetTitle(_ context.Context, win platforms.Window, title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.titles[win.PID] = title
	return nil
}

func (w *fakeWindows) title(pid int) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.titles[pid]
}

type fakeSlot struct {
	value []byte
	mu    sync.Mutex
}

func (s *fakeSlot) Read(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.value), nil
}

func (s *fakeSlot) set(v []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = slices.Clone(v)
}

// fakeVault stores tokens in the slot the way the game expects to find
// them.
type fakeVault struct {
	slot    *fakeSlot
	regions []string
	tokens  int
	mu      sync.Mutex
}

func (v *fakeVault) Protect(plain []byte) ([]byte, error) {
	return append([]byte("enc:"), plain...), nil
}

func (v *fakeVault) WriteRegion(code string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.regions = append(v.regions, code)
	return nil
}

func (v *fakeVault) WriteToken(protected []byte) error {
	v.mu.Lock()
	v.tokens++
	v.mu.Unlock()
	v.slot.set(protected)
	return nil
}

func (v *fakeVault) writes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tokens
}

type fakeLocks struct {
	silent []bool
	mu     sync.Mutex
}

func (*fakeLocks) Search(context.Context) (platforms.HandleProbe, bool) {
	return platforms.HandleProbe{}, false
}

func (l *fakeLocks) Kill(_ context.Context, silent bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.silent = append(l.silent, silent)
	return true
}

func (l *fakeLocks) calls() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.silent)
}

type fakeSettings struct {
	applied []string
	mu      sync.Mutex
}

func (s *fakeSettings) Apply(acc accounts.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, acc.ID())
	return nil
}

type outcome struct {
	err error
	res Result
	acc accounts.Account
}

type stateChange struct {
	id    string
	state State
}

type env struct {
	clock      *clockwork.FakeClock
	trackClock *clockwork.FakeClock
	procs      *fakeProcs
	windows    *fakeWindows
	slot       *fakeSlot
	vault      *fakeVault
	locks      *fakeLocks
	settings   *fakeSettings
	fs         afero.Fs
	reg        *registry.Registry
	orch       *Orchestrator
	outcomes   chan outcome
	states     chan stateChange
}

type envOptions struct {
	caps     platforms.Capabilities
	settle   string
	// injector replaces the credentials injector when set.
	injector platforms.CredentialInjector
	withSlot bool
	noExe    bool
}

func windowsCaps() platforms.Capabilities {
	return platforms.Capabilities{
		Context:         platforms.ContextDirect,
		WindowTimeout:   10 * time.Second,
		SerializeLaunch: true,
		TokenAuth:       true,
	}
}

func linuxCaps() platforms.Capabilities {
	return platforms.Capabilities{
		Context:           platforms.ContextScript,
		WindowTimeout:     30 * time.Second,
		NestedGameProcess: true,
	}
}

func newEnv(t *testing.T, opts envOptions) *env {
	t.Helper()

	settle := opts.settle
	if settle == "" {
		settle = "0s"
	}
	defaults := config.BaseDefaults
	defaults.Launch = config.Launch{
		PollInterval:  pollInterval.String(),
		LoginTimeout:  loginTimeout.String(),
		SettleDelay:   settle,
		WindowTimeout: "5s",
	}
	cfg, err := config.NewConfig(t.TempDir(), defaults)
	require.NoError(t, err)

	e := &env{
		clock:      clockwork.NewFakeClock(),
		trackClock: clockwork.NewFakeClock(),
		procs:      newFakeProcs(),
		slot:       &fakeSlot{},
		locks:      &fakeLocks{},
		settings:   &fakeSettings{},
		fs:         afero.NewMemMapFs(),
		outcomes:   make(chan outcome, 8),
		states:     make(chan stateChange, 64),
	}
	e.procs.nested = opts.caps.NestedGameProcess
	e.windows = &fakeWindows{procs: e.procs, titles: make(map[int]string)}
	e.vault = &fakeVault{slot: e.slot}
	if !opts.noExe {
		require.NoError(t, afero.WriteFile(e.fs, filepath.Join(gameDir, "D2R.exe"), []byte("MZ"), 0o755))
	}

	var injector platforms.CredentialInjector = credentials.PasswordOnlyInjector{}
	if opts.caps.TokenAuth {
		injector = &credentials.TokenInjector{Vault: e.vault}
	}

	pl := &mocks.MockPlatform{}
	pl.On("Capabilities").Return(opts.caps).Maybe()
	if opts.injector != nil {
		injector = opts.injector
	}
	pl.On("Injector").Return(injector).Maybe()
	pl.On("Builder").Return(&launchctx.Direct{Fs: e.fs, GameDir: gameDir}).Maybe()
	pl.On("Locks").Return(e.locks).Maybe()
	pl.On("Windows").Return(e.windows).Maybe()
	pl.On("Processes").Return(e.procs).Maybe()
	pl.On("GameSettings").Return(e.settings).Maybe()
	if opts.withSlot {
		pl.On("CredentialSlot").Return(e.slot).Maybe()
	} else {
		pl.On("CredentialSlot").Return(nil).Maybe()
	}

	e.reg = registry.New(e.procs.Alive)
	tracker := proctracker.New(
		proctracker.WithAliveFunc(e.procs.Alive),
		proctracker.WithClock(e.trackClock),
		proctracker.WithPollInterval(trackPoll),
	)
	e.orch = New(pl, cfg, e.reg,
		WithClock(e.clock),
		WithTracker(tracker),
		OnSuccess(func(r Result) { e.outcomes <- outcome{res: r, acc: r.Account} }),
		OnError(func(acc accounts.Account, err error) { e.outcomes <- outcome{acc: acc, err: err} }),
		OnState(func(acc accounts.Account, s State) {
			select {
			case e.states <- stateChange{id: acc.ID(), state: s}:
			default:
			}
		}),
	)
	t.Cleanup(e.orch.Stop)
	return e
}

func (e *env) waitOutcome(t *testing.T) outcome {
	t.Helper()
	select {
	case o := <-e.outcomes:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("launch did not finish")
		return outcome{}
	}
}

func (e *env) waitState(t *testing.T, id string, want State) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case sc := <-e.states:
			if sc.id == id && sc.state == want {
				return
			}
		case <-timeout:
			t.Fatalf("%s never reached %s", id, want)
		}
	}
}

func (e *env) assertNoOutcome(t *testing.T) {
	t.Helper()
	select {
	case o := <-e.outcomes:
		t.Fatalf("unexpected outcome for %s: %+v", o.acc.ID(), o)
	case <-time.After(50 * time.Millisecond):
	}
}

func passwordAccount() accounts.Account {
	return accounts.Account{
		Email:      "a@b.com",
		AuthMethod: accounts.AuthPassword,
		Password:   "x",
		Region:     accounts.RegionEurope,
	}
}

func tokenAccount(name, token string) accounts.Account {
	return accounts.Account{
		ProfileName: name,
		Email:       name + "@example.com",
		AuthMethod:  accounts.AuthToken,
		Token:       token,
		Region:      accounts.RegionAmericas,
	}
}

var errBoom = errors.New("boom")
