// Copyright 2024 Guillaume Belanger
// See LICENSE file for licensing details.

package charm

import (
	"github.com/gruyaume/nrf-operator/internal/hook"
)

// Event is a single delivery of a hook to the charm. A handler that
// cannot make progress yet calls Defer; the dispatcher then queues the
// hook to be run again before the next one.
type Event struct {
	hook.Info

	deferred bool
}

// NewEvent wraps hook information for dispatch.
func NewEvent(info hook.Info) *Event {
	return &Event{Info: info}
}

// Defer marks the event for redelivery ahead of the next hook.
func (e *Event) Defer() {
	e.deferred = true
}

// Deferred reports whether a handler asked for the event to be
// redelivered.
func (e *Event) Deferred() bool {
	return e.deferred
}
