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

// Package command abstracts process execution so that the helper tools
// (handle.exe, wmctrl) and the game spawn can be replaced in tests.
package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrEmptyCommand is returned when Spawn is called without a program.
var ErrEmptyCommand = errors.New("empty command")

// SpawnOptions configures a detached child process.
type SpawnOptions struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is appended to the current environment.
	Env []string
	// HideWindow suppresses the console window of helper tools (Windows).
	HideWindow bool
}

// Executor runs external programs.
type Executor interface {
	// Run executes a command and waits for it to complete. A non-zero exit
	// status is reported as an error.
	Run(ctx context.Context, name string, args ...string) error

	// Output runs a command and returns its standard output. The output is
	// returned even when the command exits non-zero.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Spawn starts a long-lived process that is not bound to any context
	// and returns its pid. The child is reaped in the background.
	Spawn(opts SpawnOptions, name string, args ...string) (int, error)
}

// RealExecutor runs commands through os/exec.
type RealExecutor struct{}

//nolint:wrapcheck // exec errors already carry the program name
func (*RealExecutor) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	configureHelper(cmd)
	return cmd.Run()
}

//nolint:wrapcheck // exec errors already carry the program name
func (*RealExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	configureHelper(cmd)
	return cmd.Output()
}

func (*RealExecutor) Spawn(opts SpawnOptions, name string, args ...string) (int, error) {
	if name == "" {
		return 0, ErrEmptyCommand
	}

	//nolint:noctx // the game must outlive the launch request
	cmd := exec.Command(name, args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	configureSpawn(cmd, opts)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", name, err)
	}

	pid := cmd.Process.Pid
	// Without Wait the exited child stays a zombie and still answers
	// signal 0, which would make it look alive forever.
	go func() { _ = cmd.Wait() }()

	return pid, nil
}
