// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package events

import (
	"context"
	"testing"
	"time"

	"github.com/relabs-tech/tap_controller/internal/engine"
)

func TestPublishWithoutSubscribers(t *testing.T) {
	b := NewBus()
	if n := b.Publish(engine.Event{Kind: engine.KindDirection}); n != 0 {
		t.Fatalf("delivered %d with no subscribers", n)
	}
}

func TestSubscribeReceivesInOrder(t *testing.T) {
	b := NewBus()
	ch := make(chan engine.Event, 4)
	sub := b.Subscribe(ch)
	defer sub.Unsubscribe()

	n := b.Publish(
		engine.Event{Kind: engine.KindPrompt},
		engine.Event{Kind: engine.KindCalibrationTap},
	)
	if n != 2 {
		t.Fatalf("delivered %d, want 2", n)
	}
	if got := (<-ch).Kind; got != engine.KindPrompt {
		t.Errorf("first event %s", got)
	}
	if got := (<-ch).Kind; got != engine.KindCalibrationTap {
		t.Errorf("second event %s", got)
	}
}

func TestForward(t *testing.T) {
	b := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan engine.Event, 1)
	b.Forward(ctx, "test", func(ev engine.Event) { got <- ev })

	b.Publish(engine.Event{Kind: engine.KindDirection, Direction: "left"})
	select {
	case ev := <-got:
		if ev.Direction != "left" {
			t.Fatalf("forwarded %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event not forwarded")
	}
}

func TestForwardDoesNotStallPublish(t *testing.T) {
	b := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gate := make(chan struct{})
	seen := make(chan engine.Event, 100)
	b.Forward(ctx, "slow", func(ev engine.Event) {
		<-gate
		seen <- ev
	})

	published := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(engine.Event{Kind: engine.KindDirection, Angle: float64(i)})
		}
		close(published)
	}()
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow forward callback")
	}

	close(gate)
	timeout := time.After(time.Second)
	for {
		select {
		case ev := <-seen:
			if ev.Angle == 99 {
				return
			}
		case <-timeout:
			t.Fatal("latest event never forwarded")
		}
	}
}
