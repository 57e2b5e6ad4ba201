// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package charm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/state"
)

// ErrDefer marks a handler result that asks for the event to be run again
// on the next dispatch.
var ErrDefer = errors.New("event deferred")

// DeferError carries the failure that made a handler defer its event.
type DeferError struct {
	Err error
}

func (e *DeferError) Error() string {
	if e.Err == nil {
		return ErrDefer.Error()
	}
	return ErrDefer.Error() + ": " + e.Err.Error()
}

func (e *DeferError) Unwrap() error { return e.Err }

// Is matches ErrDefer.
func (e *DeferError) Is(target error) bool { return target == ErrDefer }

// Defer wraps err so the dispatcher queues the event instead of failing.
func Defer(err error) error {
	return &DeferError{Err: err}
}

// Handler reacts to one event.
type Handler func(ctx context.Context, e Event) error

// EventStore keeps deferred events between dispatches.
type EventStore interface {
	Deferred() ([]state.Event, error)
	Defer(e state.Event) error
	Resolve(e state.Event) error
}

// Dispatcher routes events to handlers and replays deferred events.
type Dispatcher struct {
	store      EventStore
	handlers   map[Kind][]Handler
	supersedes map[Kind][]Kind
}

// NewDispatcher returns a Dispatcher that queues deferred events in store.
func NewDispatcher(store EventStore) *Dispatcher {
	return &Dispatcher{
		store:      store,
		handlers:   make(map[Kind][]Handler),
		supersedes: make(map[Kind][]Kind),
	}
}

// Supersede makes an event of kind k drop queued events of the given kinds
// before deferred events are replayed.
func (d *Dispatcher) Supersede(k Kind, kinds ...Kind) {
	d.supersedes[k] = append(d.supersedes[k], kinds...)
}

// Observe registers h for events of kind k. Handlers run in registration order.
func (d *Dispatcher) Observe(k Kind, h Handler) {
	d.handlers[k] = append(d.handlers[k], h)
}

// Dispatch re-runs deferred events, oldest first, then e. Events whose
// handlers defer stay queued. The first non-deferral error stops the
// dispatch and is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) error {
	if kinds := d.supersedes[e.Kind]; len(kinds) > 0 {
		if err := d.Cancel(kinds...); err != nil {
			return err
		}
	}

	queued, err := d.store.Deferred()
	if err != nil {
		return err
	}

	for _, q := range queued {
		ev := fromRecord(q)
		if ev.same(e) {
			continue
		}
		slog.Info("re-emitting deferred event", "event", ev.String(), "deferredAt", q.DeferredAt)
		if err := d.emit(ctx, ev); err != nil {
			return err
		}
	}

	return d.emit(ctx, e)
}

func (d *Dispatcher) emit(ctx context.Context, e Event) error {
	handlers := d.handlers[e.Kind]
	if len(handlers) == 0 {
		slog.Debug("no handler for event", "event", e.String())
		return d.store.Resolve(e.record())
	}

	for _, h := range handlers {
		err := h(ctx, e)
		switch {
		case err == nil:
		case errors.Is(err, ErrDefer):
			slog.Warn("event deferred", "event", e.String(), "error", err)
			return d.store.Defer(e.record())
		default:
			return fmt.Errorf("%s handler failed: %w", e.Name, err)
		}
	}
	return d.store.Resolve(e.record())
}

// Cancel drops queued events of the given kinds.
func (d *Dispatcher) Cancel(kinds ...Kind) error {
	queued, err := d.store.Deferred()
	if err != nil {
		return err
	}
	for _, q := range queued {
		if ev := fromRecord(q); slices.Contains(kinds, ev.Kind) {
			slog.Info("dropping deferred event", "event", ev.String())
			if err := d.store.Resolve(q); err != nil {
				return err
			}
		}
	}
	return nil
}
