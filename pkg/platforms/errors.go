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
	"errors"
	"strings"
)

// ErrorKind classifies a failed launch.
type ErrorKind int

const (
	KindAuth ErrorKind = iota + 1
	KindInjection
	KindLaunch
	KindProcessExited
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindInjection:
		return "injection"
	case KindLaunch:
		return "launch"
	case KindProcessExited:
		return "process exited"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

var (
	// ErrValidation matches any failure raised before a process was spawned
	// because the account or installation was not usable.
	ErrValidation    = errors.New("validation failed")
	ErrAuth          = errors.New("authentication error")
	ErrInjection     = errors.New("credential injection failed")
	ErrLaunch        = errors.New("launch failed")
	ErrProcessExited = errors.New("process exited before confirmation")
	ErrCanceled      = errors.New("launch canceled")
	ErrNotSupported  = errors.New("operation not supported on this platform")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindAuth:
		return ErrAuth
	case KindInjection:
		return ErrInjection
	case KindLaunch:
		return ErrLaunch
	case KindProcessExited:
		return ErrProcessExited
	case KindCanceled:
		return ErrCanceled
	default:
		return nil
	}
}

// LaunchError is the error delivered for a failed launch. It matches its
// kind's sentinel with errors.Is, and ErrValidation when Validation is set.
type LaunchError struct {
	Err        error
	Msg        string
	Stage      string
	Kind       ErrorKind
	Validation bool
}

func (e *LaunchError) Error() string {
	var b strings.Builder
	if e.Stage != "" {
		b.WriteString(e.Stage)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.String())
		b.WriteString(" error")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LaunchError) Unwrap() []error {
	errs := make([]error, 0, 3)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Validation {
		errs = append(errs, ErrValidation)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(kind ErrorKind, msg string, err error) *LaunchError {
	return &LaunchError{Kind: kind, Msg: msg, Err: err}
}

// AuthError reports a missing, invalid or unsupported credential.
func AuthError(msg string, err error) *LaunchError { return newError(KindAuth, msg, err) }

// InjectionError reports a failure to protect or store a credential.
func InjectionError(msg string, err error) *LaunchError { return newError(KindInjection, msg, err) }

// NewLaunchError reports a missing executable or a failed process start.
func NewLaunchError(msg string, err error) *LaunchError { return newError(KindLaunch, msg, err) }

// ProcessExitedError reports an instance that died before confirmation.
func ProcessExitedError(msg string) *LaunchError { return newError(KindProcessExited, msg, nil) }

// CanceledError reports a launch abandoned at shutdown.
func CanceledError(err error) *LaunchError { return newError(KindCanceled, "launch canceled", err) }

// KindOf returns the kind of a launch error, or 0 if err is not one.
func KindOf(err error) ErrorKind {
	var le *LaunchError
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}
