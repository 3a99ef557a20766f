package mixer

import "fmt"

// SessionMode is the kind of a copy/move editing session.
type SessionMode int

const (
	CopyMode SessionMode = iota + 1
	MoveMode
)

func (m SessionMode) String() string {
	switch m {
	case CopyMode:
		return "copy"
	case MoveMode:
		return "move"
	}
	return "none"
}

// Session drags a mix through the list, either the mix itself (move) or a
// fresh clone of it (copy). Offset counts the steps taken from the source
// slot; Cancel walks them back.
type Session struct {
	list   *MixList
	mode   SessionMode
	index  int // current slot of the dragged mix
	offset int
}

// StartSession begins a session on slot index.
func StartSession(list *MixList, mode SessionMode, index int) (*Session, error) {
	m, ok := list.Mix(index)
	if !ok || m.Empty() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return &Session{list: list, mode: mode, index: index}, nil
}

func (s *Session) Mode() SessionMode { return s.mode }
func (s *Session) Index() int        { return s.index }
func (s *Session) Offset() int       { return s.offset }

// Step moves the dragged mix one slot in dir. The first step of a copy
// session creates the clone; stepping a copy back onto its source removes it.
func (s *Session) Step(dir Direction) error {
	next := s.offset + 1
	if dir == Up {
		next = s.offset - 1
	}
	switch {
	case s.offset == 0 && s.mode == CopyMode:
		if s.list.IsAtCapacity() {
			return ErrCapacityExceeded
		}
		if err := s.list.Duplicate(s.index); err != nil {
			return err
		}
		// the clone below the source is the one travelling down; going up
		// the slot at index is already the upper twin.
		if dir == Down {
			s.index++
		}
	case next == 0 && s.mode == CopyMode:
		if err := s.list.Remove(s.index); err != nil {
			return err
		}
		if dir == Up {
			s.index--
		}
	default:
		index, ok := s.list.TrySwap(s.index, dir)
		if !ok {
			return fmt.Errorf("mix %d: cannot move %s", s.index, dir)
		}
		s.index = index
		s.list.Notifier().Dirty()
	}
	s.offset = next
	return nil
}

// Cancel undoes the session: a copy is deleted, a moved mix is walked back
// to where it started. The calculation pass is held for the whole walk.
func (s *Session) Cancel() error {
	if s.offset == 0 {
		return nil
	}
	if s.mode == CopyMode {
		if err := s.list.Remove(s.index); err != nil {
			return err
		}
		s.offset = 0
		return nil
	}
	s.list.gate.Pause()
	defer s.list.gate.Resume()
	for s.offset != 0 {
		dir := Down
		if s.offset > 0 {
			dir = Up
		}
		index, ok := s.list.TrySwap(s.index, dir)
		if !ok {
			return fmt.Errorf("mix %d: cannot move %s", s.index, dir)
		}
		s.index = index
		if dir == Up {
			s.offset--
		} else {
			s.offset++
		}
	}
	s.list.Notifier().Dirty()
	return nil
}

// Commit keeps the current result and ends the session.
func (s *Session) Commit() {
	s.offset = 0
}
