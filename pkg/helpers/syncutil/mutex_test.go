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

package syncutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type counter struct {
	hits map[string]int
	mu   RWMutex
}

func (c *counter) add(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits[id]++
}

func (c *counter) get(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits[id]
}

func TestRWMutex_GuardsConcurrentWriters(t *testing.T) {
	t.Parallel()

	c := &counter{hits: make(map[string]int)}
	ids := []string{"jane", "joe"}

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			c.add(id)
			_ = c.get(id)
		}(ids[i%len(ids)])
	}
	wg.Wait()

	assert.Equal(t, 25, c.get("jane"))
	assert.Equal(t, 25, c.get("joe"))
}

func TestMutex_ZeroValueUsable(t *testing.T) {
	t.Parallel()

	var mu Mutex
	done := make(chan struct{})
	mu.Lock()
	go func() {
		mu.Lock()
		defer mu.Unlock()
		close(done)
	}()
	mu.Unlock()

	<-done
}
