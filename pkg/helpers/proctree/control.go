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

package proctree

import (
	"context"

	"github.com/d2rloader/d2rloader-core/pkg/helpers"
	"github.com/d2rloader/d2rloader-core/pkg/helpers/command"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/jonboulle/clockwork"
)

// Control is the process control shared by both platforms. With
// GameProcess set, the spawned pid is treated as a supervisor and the game
// window is looked up on its descendants of that name.
type Control struct {
	Executor    command.Executor
	killer      *Killer
	GameProcess string
}

// NewControl returns a Control using the real clock and process checks.
func NewControl(executor command.Executor, gameProcess string) *Control {
	return &Control{
		Executor:    executor,
		GameProcess: gameProcess,
		killer:      &Killer{Clock: clockwork.NewRealClock(), Alive: helpers.ProcessAlive},
	}
}

func (c *Control) Spawn(inv platforms.Invocation) (int, error) {
	//nolint:wrapcheck // executor errors name the program
	return c.Executor.Spawn(command.SpawnOptions{Dir: inv.Dir, Env: inv.Env}, inv.Path, inv.Args...)
}

func (*Control) Alive(pid int) bool {
	return helpers.ProcessAlive(pid)
}

func (c *Control) GamePIDs(ctx context.Context, pid int) []int {
	if c.GameProcess == "" {
		return []int{pid}
	}
	return FindDescendants(ctx, pid, c.GameProcess)
}

func (c *Control) KillTree(ctx context.Context, pid int) error {
	return c.killer.KillTree(ctx, pid)
}
