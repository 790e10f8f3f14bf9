package action

// Sequential runs its children one after another. A child is started only
// after the previous one finished, and is first driven on the tick after it
// started.
type Sequential struct {
	core
	children []Action
	index    int
}

// NewSequential composes children into a sequence. With no children it
// finishes on its first poll, like Instant.
func NewSequential(children ...Action) (*Sequential, error) {
	c, err := newComposite("sequential", children, false)
	if err != nil {
		return nil, err
	}
	return &Sequential{core: c, children: children}, nil
}

func (s *Sequential) Kind() Kind         { return KindSequential }
func (s *Sequential) Children() []Action { return s.children }

// Current returns the index of the running child.
func (s *Sequential) Current() int { return s.index }

func (s *Sequential) onStart(t Tick) error {
	s.index = 0
	if len(s.children) == 0 {
		return nil
	}
	return Start(s.children[0], t)
}

func (s *Sequential) onDrive(t Tick) error {
	if s.index >= len(s.children) {
		return nil
	}
	cur := s.children[s.index]
	done, err := Drive(cur, t)
	if err != nil {
		return err
	}
	if !done {
		return nil
	}
	if err := Stop(cur, t, false); err != nil {
		return err
	}
	s.index++
	if s.index < len(s.children) {
		return Start(s.children[s.index], t)
	}
	return nil
}

func (s *Sequential) isDone(Tick) bool {
	return s.index >= len(s.children)
}

func (s *Sequential) onStop(t Tick, interrupted bool) error {
	if s.index >= len(s.children) {
		return nil
	}
	return Stop(s.children[s.index], t, interrupted)
}
