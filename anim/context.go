package anim

// Speed is a set of named playback rate overrides. With no overrides the
// rate is 1; any override of 0 pauses playback.
type Speed struct {
	overrides map[string]float64
}

func (s *Speed) Set(name string, v float64) {
	if s.overrides == nil {
		s.overrides = map[string]float64{}
	}
	s.overrides[name] = v
}

func (s *Speed) Remove(name string) {
	delete(s.overrides, name)
}

func (s *Speed) Has(name string) bool {
	_, ok := s.overrides[name]
	return ok
}

// Value is the product of all overrides.
func (s *Speed) Value() float64 {
	v := 1.0
	for _, o := range s.overrides {
		if o == 0 {
			return 0
		}
		v *= o
	}
	return v
}

// PlaybackState is the timing of the node that drives the player's clock.
type PlaybackState struct {
	NormalizedTime float64
	LoopsB         int
}

// Context is the mutable playback state threaded through Node.Read. Each
// player owns exactly one.
type Context struct {
	Speed Speed
	Main  PlaybackState

	// Source is the provenance of the last Play call.
	Source Source
	// Target receives events fired during Read.
	Target Character

	DeltaTime float64

	stack   []*Transition
	primary bool
	pending Node
	fired   []Event
}

func NewContext() *Context {
	return &Context{}
}

// Reset clears the transition stack and playback state.
func (c *Context) Reset() {
	c.stack = nil
	c.Main = PlaybackState{}
	c.pending = nil
	c.fired = nil
}

// BeginTick restarts the per-tick accumulators.
func (c *Context) BeginTick(dt float64) {
	c.DeltaTime = dt
	c.primary = true
	c.pending = nil
	c.fired = c.fired[:0]
}

// Insert pushes a transition; earlier entries stay addressable until the
// newest one completes.
func (c *Context) Insert(t *Transition) {
	if t == nil {
		return
	}
	c.stack = append(c.stack, t)
}

// Transitions returns the live transitions in insertion order.
func (c *Context) Transitions() []*Transition {
	return append([]*Transition(nil), c.stack...)
}

// Top returns the newest live transition, or nil.
func (c *Context) Top() *Transition {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// Fired returns the events fired during the current tick.
func (c *Context) Fired() []Event {
	return append([]Event(nil), c.fired...)
}

// complete drops t and everything inserted before it, and schedules its
// destination as the new active state.
func (c *Context) complete(t *Transition) {
	for i, s := range c.stack {
		if s == t {
			c.stack = append([]*Transition(nil), c.stack[i+1:]...)
			break
		}
	}
	if c.pending == nil {
		c.pending = t.to
	}
}

func (c *Context) takePending() Node {
	n := c.pending
	c.pending = nil
	return n
}

// withPrimary runs fn with the primary flag narrowed to p.
func (c *Context) withPrimary(p bool, fn func()) {
	prev := c.primary
	c.primary = prev && p
	fn()
	c.primary = prev
}

func (c *Context) fire(e Event) {
	c.fired = append(c.fired, e)
	if c.Target != nil {
		e.fire(c.Target, c.Source)
	}
}
