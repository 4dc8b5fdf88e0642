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

// Package proctree walks and terminates process trees. On Linux the pid
// returned by a launch is the shell running the start script, and the game
// itself is a descendant several levels down under the compatibility
// runtime.
package proctree

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	// TerminateTimeout is how long to wait for a graceful shutdown.
	TerminateTimeout = 3 * time.Second
	// KillTimeout is how long to wait after a hard kill before giving up.
	KillTimeout = 500 * time.Millisecond

	exitPollInterval = 50 * time.Millisecond
)

// Tree returns the process and all its descendants, descendants ordered
// before their parents.
func Tree(ctx context.Context, pid int) []*process.Process {
	//nolint:gosec // pids fit in int32
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return nil
	}

	descendants := descendantsOf(ctx, proc)
	result := make([]*process.Process, 0, len(descendants)+1)
	result = append(result, descendants...)
	result = append(result, proc)
	return result
}

func descendantsOf(ctx context.Context, proc *process.Process) []*process.Process {
	children, err := proc.ChildrenWithContext(ctx)
	if err != nil || len(children) == 0 {
		return nil
	}
	out := make([]*process.Process, 0, len(children))
	for _, child := range children {
		out = append(out, descendantsOf(ctx, child)...)
		out = append(out, child)
	}
	return out
}

// FindDescendants returns the pids below pid whose executable name matches
// name, case-insensitively. Wine processes are matched on the first
// command line argument as well, since their comm may be the loader.
func FindDescendants(ctx context.Context, pid int, name string) []int {
	tree := Tree(ctx, pid)
	if len(tree) == 0 {
		return nil
	}

	var pids []int
	for _, proc := range tree[:len(tree)-1] {
		if matchesName(ctx, proc, name) {
			pids = append(pids, int(proc.Pid))
		}
	}
	return pids
}

func matchesName(ctx context.Context, proc *process.Process, name string) bool {
	if n, err := proc.NameWithContext(ctx); err == nil && strings.EqualFold(n, name) {
		return true
	}
	args, err := proc.CmdlineSliceWithContext(ctx)
	if err != nil || len(args) == 0 {
		return false
	}
	// Wine reports Windows paths; normalise before taking the base name.
	exe := strings.ReplaceAll(args[0], `\`, "/")
	return strings.EqualFold(filepath.Base(exe), name)
}

// Killer terminates process trees, escalating to a hard kill when the root
// survives the graceful timeout.
type Killer struct {
	Clock clockwork.Clock
	Alive func(pid int) bool
}

// KillTree terminates pid and everything below it. A process that is
// already gone is not an error.
func (k *Killer) KillTree(ctx context.Context, pid int) error {
	procs := Tree(ctx, pid)
	if len(procs) == 0 {
		log.Debug().Int("pid", pid).Msg("process not found, may have already exited")
		return nil
	}

	log.Debug().Int("count", len(procs)).Int("rootPid", pid).Msg("terminating process tree")
	signalTree(ctx, procs, false)

	if k.waitForExit(ctx, pid, TerminateTimeout) {
		return nil
	}

	log.Debug().Int("pid", pid).Msg("terminate timeout, killing process tree")
	signalTree(ctx, procs, true)

	if !k.waitForExit(ctx, pid, KillTimeout) {
		log.Warn().Int("pid", pid).Msg("process still alive after kill")
	}
	return nil
}

func signalTree(ctx context.Context, procs []*process.Process, hard bool) {
	for _, proc := range procs {
		var err error
		if hard {
			err = proc.KillWithContext(ctx)
		} else {
			err = proc.TerminateWithContext(ctx)
		}
		if err != nil {
			log.Debug().Err(err).Int32("pid", proc.Pid).Bool("hard", hard).Msg("failed to signal process")
		}
	}
}

func (k *Killer) waitForExit(ctx context.Context, pid int, timeout time.Duration) bool {
	if !k.Alive(pid) {
		return true
	}

	ticker := k.Clock.NewTicker(exitPollInterval)
	defer ticker.Stop()
	deadline := k.Clock.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return !k.Alive(pid)
		case <-deadline:
			return !k.Alive(pid)
		case <-ticker.Chan():
			if !k.Alive(pid) {
				return true
			}
		}
	}
}
