// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "github.com/relabs-tech/tap_controller/internal/motion"

// queue hands samples from a reader goroutine (serial line reader,
// MQTT callback) to the tick loop. When full, the oldest sample is
// dropped so the loop always works on recent data.
type queue struct {
	ch chan motion.Sample
}

func newQueue(size int) *queue {
	return &queue{ch: make(chan motion.Sample, size)}
}

// push never blocks.
func (q *queue) push(s motion.Sample) {
	for {
		select {
		case q.ch <- s:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

// Next returns the oldest queued sample, or motion.ErrUnavailable when
// nothing has arrived since the last call.
func (q *queue) Next() (motion.Sample, error) {
	select {
	case s := <-q.ch:
		return s, nil
	default:
		return motion.Sample{}, motion.ErrUnavailable
	}
}
