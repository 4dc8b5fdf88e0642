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

//go:build !linux

package proctracker

import (
	"context"

	"github.com/d2rloader/d2rloader-core/pkg/platforms"
)

func pidfdSupported() bool { return false }

func openPidfd(int) (int, error) { return -1, platforms.ErrNotSupported }

func closePidfd(int) {}

func waitPidfd(context.Context, <-chan struct{}, int, int) bool { return false }
