package ecs

import "github.com/milk9111/animgraph/anim"

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

const (
	EventFootstep   = "footstep"
	EventScriptEmit = "script_emit"
)

// FootstepEvent is pushed when an animation footstep marker fires.
type FootstepEvent struct {
	Entity Entity
	Side   anim.FootSide
}

// ScriptEmitEvent carries a value a Function event's script emitted.
type ScriptEmitEvent struct {
	Entity Entity
	Source string
	Name   string
	Arg    any
}

// EventQueue is a simple FIFO queue, flushed at the end of every tick.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events of type typ and keeps the rest queued. An empty
// typ drains everything.
func (q *EventQueue) Drain(typ string) []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	if typ == "" {
		out := q.items
		q.items = nil
		return out
	}
	var out []Event
	kept := q.items[:0]
	for _, evt := range q.items {
		if evt.Type == typ {
			out = append(out, evt)
			continue
		}
		kept = append(kept, evt)
	}
	q.items = kept
	return out
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}
