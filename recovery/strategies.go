package recovery

import "fmt"

// StrictStrategy fails the batch on the first error.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy { return &StrictStrategy{} }

func (*StrictStrategy) OnError(error, Location) Action { return ActionFail }

// SkipStrategy drops failing files and remembers why.
type SkipStrategy struct {
	Errors []error
}

func NewSkipStrategy() *SkipStrategy { return &SkipStrategy{} }

func (s *SkipStrategy) OnError(err error, loc Location) Action {
	s.Errors = append(s.Errors, describe(err, loc))
	return ActionSkip
}

// LenientStrategy records every error and lets processing continue with
// whatever each file produced before failing.
type LenientStrategy struct {
	Errors []error
}

func NewLenientStrategy() *LenientStrategy { return &LenientStrategy{} }

func (s *LenientStrategy) OnError(err error, loc Location) Action {
	s.Errors = append(s.Errors, describe(err, loc))
	return ActionWarn
}

// ForAction returns the strategy implementing a parsed action.
func ForAction(a Action) Strategy {
	switch a {
	case ActionSkip:
		return NewSkipStrategy()
	case ActionWarn:
		return NewLenientStrategy()
	}
	return NewStrictStrategy()
}

func describe(err error, loc Location) error {
	return fmt.Errorf("%s (file %d, %s): %w", loc.Path, loc.Index, loc.Operation, err)
}
