package animator

import "fmt"

type repeatKind int

const (
	repeatNever repeatKind = iota
	repeatForever
	repeatCount
)

// Repeat controls what happens when a clip reaches its end.
type Repeat struct {
	kind  repeatKind
	count int
}

var (
	// RepeatNever plays the clip once and holds the last frame.
	RepeatNever = Repeat{kind: repeatNever}

	// RepeatForever loops the clip until another is played.
	RepeatForever = Repeat{kind: repeatForever}
)

// RepeatCount plays the clip n times in total, then holds the last frame.
// Values below 1 behave like RepeatNever.
//
// Parameters:
//   - n: the number of plays
//
// Returns:
//   - Repeat: the repeat mode
func RepeatCount(n int) Repeat {
	if n <= 1 {
		return RepeatNever
	}
	return Repeat{kind: repeatCount, count: n}
}

// String returns a readable form of the mode.
func (r Repeat) String() string {
	switch r.kind {
	case repeatForever:
		return "forever"
	case repeatCount:
		return fmt.Sprintf("count(%d)", r.count)
	default:
		return "never"
	}
}

// plays returns how many times the clip runs, 0 meaning unlimited.
func (r Repeat) plays() int {
	switch r.kind {
	case repeatForever:
		return 0
	case repeatCount:
		return r.count
	default:
		return 1
	}
}
