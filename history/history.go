// Package history implements the bounded undo/redo stack backing an editing
// session. Snapshots are deep copies, so a restored state is never aliased
// by later edits.
package history

// DefaultLimit is the number of snapshots kept when no limit is given.
const DefaultLimit = 20

// Stack is a bounded undo/redo stack over snapshots of type T. It is not
// safe for concurrent use; an editing session serializes access.
type Stack[T any] struct {
	clone   func(T) T
	limit   int
	states  []T
	current int
}

// NewStack returns a stack keeping at most limit snapshots. clone must
// return an independent copy of a snapshot; limit values below one select
// DefaultLimit.
func NewStack[T any](limit int, clone func(T) T) *Stack[T] {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Stack[T]{clone: clone, limit: limit, current: -1}
}

// Save records a new snapshot. Any redo tail beyond the current position is
// discarded; when the limit is exceeded the oldest snapshot is dropped.
func (s *Stack[T]) Save(state T) {
	if s.current < len(s.states)-1 {
		s.states = s.states[:s.current+1]
	}
	s.states = append(s.states, s.clone(state))
	if len(s.states) > s.limit {
		s.states = s.states[1:]
	} else {
		s.current++
	}
}

// Undo steps back one snapshot and returns a copy of it. The second return
// value is false when there is nothing to undo.
func (s *Stack[T]) Undo() (T, bool) {
	var zero T
	if !s.CanUndo() {
		return zero, false
	}
	s.current--
	return s.clone(s.states[s.current]), true
}

// Redo steps forward one snapshot and returns a copy of it.
func (s *Stack[T]) Redo() (T, bool) {
	var zero T
	if !s.CanRedo() {
		return zero, false
	}
	s.current++
	return s.clone(s.states[s.current]), true
}

// CanUndo reports whether a prior snapshot exists.
func (s *Stack[T]) CanUndo() bool { return s.current > 0 }

// CanRedo reports whether an undone snapshot can be restored.
func (s *Stack[T]) CanRedo() bool { return s.current < len(s.states)-1 }

// Current returns a copy of the snapshot at the current position.
func (s *Stack[T]) Current() (T, bool) {
	var zero T
	if s.current < 0 || s.current >= len(s.states) {
		return zero, false
	}
	return s.clone(s.states[s.current]), true
}

// Len returns the number of stored snapshots.
func (s *Stack[T]) Len() int { return len(s.states) }

// Clear drops all snapshots.
func (s *Stack[T]) Clear() {
	s.states = nil
	s.current = -1
}

// Reset clears the stack and seeds it with state, as done when a new image
// is loaded.
func (s *Stack[T]) Reset(state T) {
	s.Clear()
	s.Save(state)
}
