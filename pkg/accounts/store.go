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

package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/d2rloader/d2rloader-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// AccountsFile is the default file name of the account list.
const AccountsFile = "accounts.json"

// Store loads and saves the ordered account list as a JSON array. The
// launcher never writes accounts; Save exists for the CLI and tests.
type Store struct {
	fs   afero.Fs
	path string
	mu   syncutil.RWMutex
}

// NewStore returns a store for the JSON file at path.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the location of the account file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the account list. A missing or empty file yields no accounts.
func (s *Store) Load() ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", s.path).Msg("account file not found")
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read account file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var accs []Account
	if err := json.Unmarshal(data, &accs); err != nil {
		return nil, fmt.Errorf("failed to parse account file %s: %w", s.path, err)
	}
	return accs, nil
}

// Save replaces the account file.
func (s *Store) Save(accs []Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accs == nil {
		accs = []Account{}
	}
	data, err := json.MarshalIndent(accs, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create account dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write account file: %w", err)
	}
	return nil
}
