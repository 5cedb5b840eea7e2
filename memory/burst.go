package memory

// Burst is the handle an execution-burst controller registers on the
// memory objects it caches. When a memory object is released, every burst
// still alive is asked to forget it, so the controller drops whatever
// driver-side slot it kept for that object.
//
// Memory objects hold bursts weakly: a burst that was garbage collected
// before the memory object is released is silently skipped, never
// dereferenced.
type Burst struct {
	forget func(*Memory)
}

// NewBurst returns a burst handle that invokes forget for every released
// memory object it was registered on.
func NewBurst(forget func(*Memory)) *Burst {
	return &Burst{forget: forget}
}

// Forget tells the burst to drop its cached state for m.
func (b *Burst) Forget(m *Memory) {
	if b.forget != nil {
		b.forget(m)
	}
}
