package anim

import (
	"fmt"

	"github.com/milk9111/animgraph/common"
)

// EventType selects how an Event is dispatched.
type EventType uint8

const (
	EventVoice EventType = iota
	EventFunction
	EventFootstep
)

func (t EventType) String() string {
	switch t {
	case EventVoice:
		return "voice"
	case EventFunction:
		return "function"
	case EventFootstep:
		return "footstep"
	default:
		return "unknown"
	}
}

// ParseEventType maps authoring names to event types.
func ParseEventType(s string) (EventType, bool) {
	switch s {
	case "voice":
		return EventVoice, true
	case "function", "func":
		return EventFunction, true
	case "footstep", "footstep_marker":
		return EventFootstep, true
	default:
		return 0, false
	}
}

// Event positions stay clear of 0 and 1 since both alias the loop boundary.
const (
	MinEventPosition = 0.0005
	MaxEventPosition = 0.9995
)

// FootSide tags a footstep marker.
type FootSide uint8

const (
	FootLeft FootSide = iota
	FootRight
)

func (s FootSide) String() string {
	if s == FootRight {
		return "right"
	}
	return "left"
}

// Source is whoever authored an event or requested a Play: a character or an
// item owned by one.
type Source interface {
	SourceName() string
}

// Character is the receiver of fired events.
type Character interface {
	Source
	Speaking() bool
	PlayVoice(group string)
	Footstep(side FootSide)
	// Holds reports whether any grabber of the character holds item.
	Holds(item Source) bool
	CallFunction(source Source, name string, arg int) error
	ReportScriptError(source Source, err error)
}

// Event is a timeline marker fired when playback crosses Position.
//
// Param1 is the voice group or function name. Param2 is the
// ignore-if-talking flag for voices, the argument for functions and the foot
// (0 left, otherwise right) for footstep markers.
type Event struct {
	Type     EventType
	Position float64
	Param1   string
	Param2   int
	Source   Source
}

// NewEvent builds an event with its position clamped off the loop boundary.
func NewEvent(typ EventType, position float64, param1 string, param2 int, source Source) Event {
	return Event{
		Type:     typ,
		Position: common.Clamp(position, MinEventPosition, MaxEventPosition),
		Param1:   param1,
		Param2:   param2,
		Source:   source,
	}
}

// Equal compares events structurally.
func (e Event) Equal(o Event) bool {
	return e.Type == o.Type &&
		e.Position == o.Position &&
		e.Param1 == o.Param1 &&
		e.Param2 == o.Param2 &&
		e.Source == o.Source
}

func (e Event) String() string {
	return fmt.Sprintf("%s@%.4f(%s,%d)", e.Type, e.Position, e.Param1, e.Param2)
}

// Fire dispatches the event to c and reports whether anything ran.
func (e Event) Fire(c Character) bool {
	return e.fire(c, nil)
}

func (e Event) fire(c Character, fallback Source) bool {
	if c == nil {
		return false
	}
	switch e.Type {
	case EventVoice:
		if e.Param2 != 0 && c.Speaking() {
			return false
		}
		c.PlayVoice(e.Param1)
		return true
	case EventFunction:
		src := e.Source
		if src == nil {
			src = fallback
		}
		if !e.allowed(c, src) {
			return false
		}
		if err := callGuarded(c, src, e.Param1, e.Param2); err != nil {
			c.ReportScriptError(src, err)
		}
		return true
	case EventFootstep:
		side := FootLeft
		if e.Param2 != 0 {
			side = FootRight
		}
		c.Footstep(side)
		return true
	}
	return false
}

// allowed lets character-authored functions through, and item-authored ones
// only while the item is held by the firing character.
func (e Event) allowed(c Character, src Source) bool {
	if src == nil {
		return true
	}
	if src == Source(c) {
		return true
	}
	return c.Holds(src)
}

func callGuarded(c Character, src Source, name string, arg int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("anim: function %q panicked: %v", name, r)
		}
	}()
	return c.CallFunction(src, name, arg)
}
