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

// Package handles closes the event the game uses to refuse a second copy,
// using the Sysinternals handle tool.
package handles

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/d2rloader/d2rloader-core/pkg/helpers/command"
	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"github.com/rs/zerolog/log"
)

// InstanceEvent is the name of the single-instance event.
const InstanceEvent = "Check For Other Instances"

var searchRe = regexp.MustCompile(`pid:\s+(?P<pid>\d+)\s+type:\s+Event\s+(?P<handle>\w+):`)

// Manager searches and closes the event with handle.exe.
type Manager struct {
	Executor command.Executor
	ToolPath string
}

func searchArgs() []string {
	return []string{"-accepteula", "-a", "-p", platforms.GameExecutable, InstanceEvent, "-nobanner"}
}

// ParseProbe extracts the first event handle from handle.exe output.
func ParseProbe(out string) (platforms.HandleProbe, bool) {
	m := searchRe.FindStringSubmatch(out)
	if m == nil {
		return platforms.HandleProbe{}, false
	}
	pid, err := strconv.Atoi(m[searchRe.SubexpIndex("pid")])
	if err != nil {
		return platforms.HandleProbe{}, false
	}
	return platforms.HandleProbe{PID: pid, Handle: m[searchRe.SubexpIndex("handle")]}, true
}

func (m *Manager) search(ctx context.Context, silent bool) (platforms.HandleProbe, bool) {
	if m.ToolPath == "" {
		if !silent {
			log.Error().Msg("handle tool path is not set")
		}
		return platforms.HandleProbe{}, false
	}

	// handle.exe exits non-zero when nothing matched; the output decides.
	out, err := m.Executor.Output(ctx, m.ToolPath, searchArgs()...)
	if err != nil && len(out) == 0 {
		log.Debug().Err(err).Msg("handle search failed")
		return platforms.HandleProbe{}, false
	}
	return ParseProbe(string(out))
}

// Search returns the event held by a running game, if any.
func (m *Manager) Search(ctx context.Context) (platforms.HandleProbe, bool) {
	return m.search(ctx, false)
}

// Kill closes the event of a running game. It returns false when no event
// was found or the tool failed. Failures are logged unless silent.
func (m *Manager) Kill(ctx context.Context, silent bool) bool {
	probe, ok := m.search(ctx, silent)
	if !ok {
		if !silent {
			log.Error().Msg("game pid or event handle not found")
		}
		return false
	}

	pid := strconv.Itoa(probe.PID)
	out, err := m.Executor.Output(ctx, m.ToolPath, "-c", probe.Handle, "-p", pid, "-y")
	if err != nil {
		if !silent {
			log.Error().Err(err).
				Str("output", strings.TrimSpace(string(out))).
				Msg("could not close instance handle")
		}
		return false
	}

	log.Info().Str("handle", probe.Handle).Int("pid", probe.PID).Msg("killed instance handle")
	return true
}

// Noop is used where each game copy runs in its own wine prefix and no
// event is shared.
type Noop struct{}

func (Noop) Search(context.Context) (platforms.HandleProbe, bool) {
	return platforms.HandleProbe{}, false
}

func (Noop) Kill(context.Context, bool) bool {
	return true
}
