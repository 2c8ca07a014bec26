package ecs

// System is one stage of a simulation tick.
type System interface {
	Update(w *World)
}

// SystemFunc adapts a plain function to System.
type SystemFunc func(w *World)

func (f SystemFunc) Update(w *World) { f(w) }

// Scheduler runs its systems in registration order. Animation stages
// depend on that order: blend parameters settle before the player
// animates, and event consumers run after the events are pushed.
type Scheduler struct {
	systems []System
}

// NewScheduler keeps the non-nil systems in the given order.
func NewScheduler(systems ...System) *Scheduler {
	s := &Scheduler{}
	for _, system := range systems {
		s.Add(system)
	}
	return s
}

// Add appends a stage; nil is ignored.
func (s *Scheduler) Add(system System) {
	if system != nil {
		s.systems = append(s.systems, system)
	}
}

// Update runs a single tick. Events nobody drained are dropped when it
// ends, and the world's tick counter advances.
func (s *Scheduler) Update(w *World) {
	if w == nil {
		return
	}
	for _, system := range s.systems {
		system.Update(w)
	}
	w.endTick()
}

// Step runs n ticks back to back.
func (s *Scheduler) Step(w *World, n int) {
	for ; n > 0; n-- {
		s.Update(w)
	}
}

// Systems returns a copy of the registered stages.
func (s *Scheduler) Systems() []System {
	return append([]System(nil), s.systems...)
}
