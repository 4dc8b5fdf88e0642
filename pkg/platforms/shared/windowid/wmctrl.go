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

package windowid

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/d2rloader/d2rloader-core/pkg/helpers/command"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
)

const wmctrlBin = "wmctrl"

// Wmctrl lists and renames X11 windows with the wmctrl tool.
type Wmctrl struct {
	Executor command.Executor
}

// ParseWmctrl parses `wmctrl -lp` output. Lines that do not carry a
// window id and pid are skipped.
func ParseWmctrl(out string) []platforms.Window {
	var windows []platforms.Window
	for line := range strings.Lines(out) {
		// id, desktop, pid, host, title
		fields := splitFields(strings.TrimRight(line, "\r\n"), 5)
		if len(fields) < 4 {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(fields[0], "0x"), 16, 64)
		if err != nil {
			continue
		}
		pid, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		w := platforms.Window{ID: id, PID: pid}
		if len(fields) == 5 {
			w.Title = fields[4]
		}
		windows = append(windows, w)
	}
	return windows
}

// splitFields splits s on runs of whitespace into at most n fields. The
// last field keeps the remainder of the line as is.
func splitFields(s string, n int) []string {
	var out []string
	s = strings.TrimLeft(s, " \t")
	for s != "" && len(out) < n-1 {
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			break
		}
		out = append(out, s[:end])
		s = strings.TrimLeft(s[end:], " \t")
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func (w *Wmctrl) List(ctx context.Context) ([]platforms.Window, error) {
	out, err := w.Executor.Output(ctx, wmctrlBin, "-lp")
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	return ParseWmctrl(string(out)), nil
}

func (w *Wmctrl) SetTitle(ctx context.Context, win platforms.Window, title string) error {
	id := fmt.Sprintf("0x%08x", win.ID)
	if err := w.Executor.Run(ctx, wmctrlBin, "-i", "-r", id, "-N", title); err != nil {
		return fmt.Errorf("failed to rename window %s: %w", id, err)
	}
	return nil
}
