// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package store

import "sync"

// Memory is an in-process Gateway. Staged values become visible to Get
// immediately; Flush copies them to the "durable" map unless FlushErr
// is set, in which case the durable map is left untouched.
type Memory struct {
	mu       sync.Mutex
	staged   map[string]float64
	durable  map[string]float64
	FlushErr error
	Flushes  int
}

func NewMemory() *Memory {
	return &Memory{
		staged:  map[string]float64{},
		durable: map[string]float64{},
	}
}

func (m *Memory) Get(key string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.staged[key]; ok {
		return v, true
	}
	v, ok := m.durable[key]
	return v, ok
}

func (m *Memory) Set(key string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged[key] = value
}

func (m *Memory) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

func (m *Memory) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushes++
	if m.FlushErr != nil {
		return m.FlushErr
	}
	for k, v := range m.staged {
		m.durable[k] = v
	}
	m.staged = map[string]float64{}
	return nil
}

// Reopen simulates an app restart: anything not flushed is lost.
func (m *Memory) Reopen() *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := NewMemory()
	for k, v := range m.durable {
		out.durable[k] = v
	}
	return out
}
