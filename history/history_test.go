package history

import "testing"

func newIntStack(limit int) *Stack[[]int] {
	return NewStack(limit, func(s []int) []int {
		dup := make([]int, len(s))
		copy(dup, s)
		return dup
	})
}

func TestUndoRedo(t *testing.T) {
	s := newIntStack(10)
	s.Save([]int{1})
	s.Save([]int{2})
	s.Save([]int{3})

	if !s.CanUndo() {
		t.Fatalf("expected CanUndo")
	}
	got, ok := s.Undo()
	if !ok || got[0] != 2 {
		t.Fatalf("Undo() = %v, %v", got, ok)
	}
	got, ok = s.Undo()
	if !ok || got[0] != 1 {
		t.Fatalf("Undo() = %v, %v", got, ok)
	}
	if s.CanUndo() {
		t.Fatalf("undo past first state")
	}
	got, ok = s.Redo()
	if !ok || got[0] != 2 {
		t.Fatalf("Redo() = %v, %v", got, ok)
	}
}

func TestSaveTruncatesRedoTail(t *testing.T) {
	s := newIntStack(10)
	s.Save([]int{1})
	s.Save([]int{2})
	s.Save([]int{3})
	s.Undo()
	s.Save([]int{9})
	if s.CanRedo() {
		t.Fatalf("redo tail should be gone")
	}
	got, _ := s.Current()
	if got[0] != 9 {
		t.Fatalf("Current() = %v", got)
	}
	if got, _ := s.Undo(); got[0] != 2 {
		t.Fatalf("Undo() after truncation = %v", got)
	}
}

func TestLimitDropsOldest(t *testing.T) {
	s := newIntStack(3)
	for i := 1; i <= 5; i++ {
		s.Save([]int{i})
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d", s.Len())
	}
	s.Undo()
	got, ok := s.Undo()
	if !ok || got[0] != 3 {
		t.Fatalf("oldest surviving = %v, %v", got, ok)
	}
	if s.CanUndo() {
		t.Fatalf("state 1 and 2 should have been dropped")
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := newIntStack(5)
	v := []int{1}
	s.Save(v)
	v[0] = 99
	got, _ := s.Current()
	if got[0] != 1 {
		t.Fatalf("snapshot aliased caller slice: %v", got)
	}
	got[0] = 42
	again, _ := s.Current()
	if again[0] != 1 {
		t.Fatalf("returned snapshot aliased stored state: %v", again)
	}
}

func TestReset(t *testing.T) {
	s := newIntStack(5)
	s.Save([]int{1})
	s.Save([]int{2})
	s.Reset([]int{7})
	if s.Len() != 1 || s.CanUndo() || s.CanRedo() {
		t.Fatalf("Reset left stack in bad state: len=%d", s.Len())
	}
	got, _ := s.Current()
	if got[0] != 7 {
		t.Fatalf("Current() = %v", got)
	}
}

func TestZeroLimitDefaults(t *testing.T) {
	s := newIntStack(0)
	for i := 0; i < DefaultLimit+5; i++ {
		s.Save([]int{i})
	}
	if s.Len() != DefaultLimit {
		t.Fatalf("Len() = %d, want %d", s.Len(), DefaultLimit)
	}
}
