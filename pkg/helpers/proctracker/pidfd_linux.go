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

//go:build linux

package proctracker

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

func pidfdSupported() bool {
	fd, err := unix.PidfdOpen(os.Getpid(), 0)
	if err != nil {
		return false
	}
	_ = unix.Close(fd)
	return true
}

func openPidfd(pid int) (int, error) {
	fd, err := unix.PidfdOpen(pid, 0)
	if errors.Is(err, unix.ESRCH) {
		return -1, ErrProcessNotFound
	}
	if err != nil {
		return -1, err //nolint:wrapcheck // logged by caller
	}
	return fd, nil
}

func closePidfd(fd int) {
	if fd >= 0 {
		_ = unix.Close(fd)
	}
}

// waitPidfd blocks until the process exits (true) or the watch is
// cancelled (false).
func waitPidfd(ctx context.Context, done <-chan struct{}, fd, pid int) bool {
	pollFds := []unix.PollFd{
		{Fd: int32(fd), Events: unix.POLLIN}, //nolint:gosec // fds are small
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case <-done:
			return false
		default:
		}

		// Short poll timeout so cancellation is noticed.
		n, err := unix.Poll(pollFds, 100)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			log.Warn().Err(err).Int("pid", pid).Msg("poll error on pidfd")
			return false
		}
		if n > 0 && pollFds[0].Revents&unix.POLLIN != 0 {
			return true
		}
	}
}
