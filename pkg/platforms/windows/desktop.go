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

//go:build windows

package windows

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/d2rloader/d2rloader-core/pkg/platforms"
	"golang.org/x/sys/windows"
)

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procSetWindowTextW = user32.NewProc("SetWindowTextW")

	enumWindowsCallback = windows.NewCallback(enumWindowsProc)
)

const maxTitle = 512

// enumWindowsProc collects visible top-level windows into the slice
// passed as lparam.
func enumWindowsProc(hwnd windows.HWND, lparam uintptr) uintptr {
	if !windows.IsWindowVisible(hwnd) {
		return 1
	}
	out := (*[]platforms.Window)(unsafe.Pointer(lparam)) //nolint:govet // lparam is the slice pointer given to EnumWindows

	buf := make([]uint16, maxTitle)
	n, _ := windows.GetWindowText(hwnd, &buf[0], int32(len(buf)))

	var pid uint32
	_, _ = windows.GetWindowThreadProcessId(hwnd, &pid)

	*out = append(*out, platforms.Window{
		Title: windows.UTF16ToString(buf[:n]),
		ID:    uint64(hwnd),
		PID:   int(pid),
	})
	return 1
}

// Desktop lists and retitles windows through user32.
type Desktop struct{}

func (Desktop) List(_ context.Context) ([]platforms.Window, error) {
	var found []platforms.Window
	if err := windows.EnumWindows(enumWindowsCallback, unsafe.Pointer(&found)); err != nil {
		return nil, fmt.Errorf("EnumWindows failed: %w", err)
	}
	return found, nil
}

func (Desktop) SetTitle(_ context.Context, w platforms.Window, title string) error {
	ptr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return fmt.Errorf("invalid window title: %w", err)
	}
	r1, _, callErr := procSetWindowTextW.Call(uintptr(w.ID), uintptr(unsafe.Pointer(ptr)))
	if r1 == 0 {
		return fmt.Errorf("SetWindowTextW failed for window 0x%x: %w", w.ID, callErr)
	}
	return nil
}
