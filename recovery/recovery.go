// Package recovery decides what batch processing does when one file
// fails: stop everything, skip the file, or record a warning and keep the
// partial result.
package recovery

// Strategy is consulted once per failure.
type Strategy interface {
	OnError(err error, location Location) Action
}

// Location identifies where in a batch an error happened.
type Location struct {
	// Path is the input file being processed.
	Path string
	// Index is the file's position in the batch.
	Index int
	// Operation names the step that failed (open, stitch, fill, ocr,
	// save, script).
	Operation string
}

// Action is a Strategy's verdict.
type Action int

const (
	// ActionFail aborts the whole batch.
	ActionFail Action = iota
	// ActionSkip drops the failed file and moves on.
	ActionSkip
	// ActionWarn records the error and keeps whatever output the file
	// produced so far.
	ActionWarn
)

// ParseAction maps a CLI flag value to an Action.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "", "fail":
		return ActionFail, true
	case "skip":
		return ActionSkip, true
	case "warn":
		return ActionWarn, true
	}
	return ActionFail, false
}
