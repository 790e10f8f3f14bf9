package action

// Instant does nothing and finishes on its first poll.
type Instant struct {
	core
}

// NewInstant creates a no-op action.
func NewInstant() *Instant {
	return &Instant{core: newCore("instant")}
}

func (i *Instant) Kind() Kind         { return KindInstant }
func (i *Instant) Children() []Action { return nil }

func (i *Instant) onStart(Tick) error      { return nil }
func (i *Instant) onDrive(Tick) error      { return nil }
func (i *Instant) isDone(Tick) bool        { return true }
func (i *Instant) onStop(Tick, bool) error { return nil }
