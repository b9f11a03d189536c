// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package store

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

var calibrationBucket = []byte("calibration")

// Bolt is a Gateway backed by a bbolt file. Writes are staged in memory
// and committed in a single transaction by Flush.
//
// Opening a writable bbolt file takes an exclusive file lock, so only one
// process (the producer, or tapctl) can hold the store at a time.
type Bolt struct {
	db *bbolt.DB

	mu     sync.Mutex
	staged map[string]float64
}

// OpenBolt opens (or creates) the store at path.
func OpenBolt(path string, readOnly bool) (*Bolt, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create dir: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout:  2 * time.Second,
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &Bolt{db: db, staged: map[string]float64{}}, nil
}

func (s *Bolt) Close() error {
	return s.db.Close()
}

func (s *Bolt) Get(key string) (float64, bool) {
	s.mu.Lock()
	if v, ok := s.staged[key]; ok {
		s.mu.Unlock()
		return v, true
	}
	s.mu.Unlock()

	var (
		val   float64
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(calibrationBucket)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(key))
		if raw == nil {
			return nil
		}
		if len(raw) != 8 {
			return fmt.Errorf("key %q: unexpected value length %d", key, len(raw))
		}
		val = math.Float64frombits(binary.BigEndian.Uint64(raw))
		found = true
		return nil
	})
	if err != nil {
		log.Printf("store: read error: %v", err)
		return 0, false
	}
	return val, found
}

func (s *Bolt) Set(key string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged[key] = value
}

func (s *Bolt) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Flush commits all staged values. On failure the staged values are kept
// so a later Flush can retry.
func (s *Bolt) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.staged) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(calibrationBucket)
		if err != nil {
			return err
		}
		for k, v := range s.staged {
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, math.Float64bits(v))
			if err := b.Put([]byte(k), buf); err != nil {
				return fmt.Errorf("put %q: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: flush: %w", err)
	}
	s.staged = map[string]float64{}
	return nil
}

// Delete removes keys immediately, dropping any staged value for them.
func (s *Bolt) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.staged, k)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(calibrationBucket)
		if b == nil {
			return nil
		}
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return fmt.Errorf("store: delete %q: %w", k, err)
			}
		}
		return nil
	})
}

// ClearBounds forgets any calibration so the defaults apply again.
func (s *Bolt) ClearBounds() error {
	return s.Delete(KeyRightBound, KeyLeftBound, KeyCalibratedAt)
}
