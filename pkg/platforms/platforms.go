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

package platforms

import (
	"context"
	"time"

	"github.com/d2rloader/d2rloader-core/pkg/accounts"
	"github.com/d2rloader/d2rloader-core/pkg/config"
)

const (
	PlatformIDLinux   = "linux"
	PlatformIDWindows = "windows"
)

const (
	// GameExecutable is the file name of the game binary and of the process
	// that owns the game window.
	GameExecutable = "D2R.exe"
	// DefaultWindowTitle is the title the game gives its window on start.
	DefaultWindowTitle = "Diablo II: Resurrected"
)

// ContextKind names the launch context strategy of a platform.
type ContextKind string

const (
	ContextDirect ContextKind = "direct"
	ContextScript ContextKind = "script"
)

// Capabilities is resolved once when the platform is created and drives
// every platform-dependent branch of the launcher.
type Capabilities struct {
	// Context is the launch context strategy.
	Context ContextKind
	// WindowTimeout bounds the wait for the game window.
	WindowTimeout time.Duration
	// SerializeLaunch is set when credential injection or the single
	// instance lock touch global, per-user OS state. Launches must then run
	// the inject, spawn and lock-release steps one at a time.
	SerializeLaunch bool
	// TokenAuth is set when the platform can hand a token to the game.
	TokenAuth bool
	// NestedGameProcess is set when the spawned pid is a supervisor and the
	// game runs as one of its descendants.
	NestedGameProcess bool
}

// Settings holds the directories a platform uses.
type Settings struct {
	// ConfigDir holds config.toml, accounts.json and per-account data.
	ConfigDir string
	// DataDir holds persistent runtime data.
	DataDir string
	// LogDir holds the rotated log file.
	LogDir string
}

// Invocation is a fully resolved command line for the game.
type Invocation struct {
	Path string
	Dir  string
	Args []string
	Env  []string
}

// Masked returns the command line with every secret replaced, for logging.
func (i Invocation) Masked(secrets ...string) []string {
	out := make([]string, 0, len(i.Args)+1)
	out = append(out, i.Path)
	for _, arg := range i.Args {
		masked := arg
		for _, s := range secrets {
			if s != "" && arg == s {
				masked = "********"
				break
			}
		}
		out = append(out, masked)
	}
	return out
}

// HandleProbe identifies the single-instance event held by a game process.
type HandleProbe struct {
	Handle string
	PID    int
}

// Window is a top-level window as reported by the window system.
type Window struct {
	Title string
	ID    uint64
	PID   int
}

// CredentialInjector prepares the OS so the game picks up an account's
// credential, and returns the arguments that select it.
type CredentialInjector interface {
	// Validate checks the credential is present and usable on this platform
	// without touching any OS state.
	Validate(acc accounts.Account) error
	// Inject writes any OS-side state and returns the launch arguments.
	Inject(ctx context.Context, acc accounts.Account) ([]string, error)
}

// ContextBuilder turns an account into a command line.
type ContextBuilder interface {
	// Validate checks the game installation without side effects.
	Validate(acc accounts.Account) error
	// Build resolves the invocation. injected are the credential arguments.
	Build(ctx context.Context, acc accounts.Account, injected []string) (Invocation, error)
}

// LockSuppressor releases the object the game uses to detect a running copy.
type LockSuppressor interface {
	Search(ctx context.Context) (HandleProbe, bool)
	Kill(ctx context.Context, silent bool) bool
}

// WindowSystem lists and retitles top-level windows.
type WindowSystem interface {
	List(ctx context.Context) ([]Window, error)
	SetTitle(ctx context.Context, w Window, title string) error
}

// CredentialSlot is the persisted value the game rewrites after a
// successful login.
type CredentialSlot interface {
	Read(ctx context.Context) ([]byte, error)
}

// ProcessControl spawns and supervises game processes.
type ProcessControl interface {
	Spawn(inv Invocation) (int, error)
	Alive(pid int) bool
	// GamePIDs returns the pids that may own the game window for a spawned
	// pid. It is empty while a nested game process has not appeared yet.
	GamePIDs(ctx context.Context, pid int) []int
	// KillTree terminates pid and all of its descendants.
	KillTree(ctx context.Context, pid int) error
}

// SettingsApplier copies an account's game settings into place.
type SettingsApplier interface {
	Apply(acc accounts.Account) error
}

// Platform wires the strategies for one operating system. Accessors are
// valid after StartPre.
type Platform interface {
	// ID returns the unique ID of this platform.
	ID() string
	// Capabilities returns the fixed capability set.
	Capabilities() Capabilities
	// Settings returns the platform directories.
	Settings() Settings
	// StartPre resolves paths from the config and builds the strategies.
	StartPre(cfg *config.Instance) error
	// Stop releases platform resources.
	Stop() error

	Injector() CredentialInjector
	Builder() ContextBuilder
	Locks() LockSuppressor
	Windows() WindowSystem
	// CredentialSlot returns nil when the platform has no observable login.
	CredentialSlot() CredentialSlot
	Processes() ProcessControl
	GameSettings() SettingsApplier
}
