// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package events fans engine events out to the sinks of a process
// (MQTT, display, websocket, log).
package events

import (
	"context"
	"log"

	"github.com/ethereum/go-ethereum/event"

	"github.com/relabs-tech/tap_controller/internal/engine"
)

// Bus is a typed feed of engine events. Publish blocks until every
// subscriber has taken the event, so subscribers must keep draining.
type Bus struct {
	feed event.FeedOf[engine.Event]
}

func NewBus() *Bus {
	return &Bus{}
}

// Publish sends each event in order and returns the number of
// deliveries made.
func (b *Bus) Publish(evs ...engine.Event) int {
	n := 0
	for _, ev := range evs {
		n += b.feed.Send(ev)
	}
	return n
}

// Subscribe registers ch; events are delivered until the returned
// subscription is unsubscribed.
func (b *Bus) Subscribe(ch chan<- engine.Event) event.Subscription {
	return b.feed.Subscribe(ch)
}

// forwardBacklog bounds the events a slow Forward callback can fall behind.
const forwardBacklog = 32

// Forward calls fn for every published event from a dedicated goroutine
// until ctx is done. name is used in log lines only. A callback that
// falls more than forwardBacklog events behind loses the oldest ones;
// Publish never waits on fn.
func (b *Bus) Forward(ctx context.Context, name string, fn func(engine.Event)) {
	ch := make(chan engine.Event, forwardBacklog)
	sub := b.feed.Subscribe(ch)
	pending := make(chan engine.Event, forwardBacklog)

	go func() {
		defer sub.Unsubscribe()
		dropped := 0
		for {
			select {
			case ev := <-ch:
				select {
				case pending <- ev:
					continue
				default:
				}
				select {
				case <-pending:
					dropped++
					if dropped == 1 || dropped%100 == 0 {
						log.Printf("events: %s is behind, dropped %d events", name, dropped)
					}
				default:
				}
				pending <- ev
			case err := <-sub.Err():
				if err != nil {
					log.Printf("events: %s subscription error: %v", name, err)
				}
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		for {
			select {
			case ev := <-pending:
				fn(ev)
			case <-ctx.Done():
				return
			}
		}
	}()
}
