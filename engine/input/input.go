package input

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// KeySet is an immutable set of keys.
type KeySet map[common.Key]struct{}

// Has reports whether k is in the set. A nil set contains nothing.
func (s KeySet) Has(k common.Key) bool {
	if k == common.KeyUnbound {
		return false
	}
	_, ok := s[k]
	return ok
}

// Keys builds a KeySet from the given keys.
func Keys(keys ...common.Key) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// ButtonSet is an immutable set of mouse buttons.
type ButtonSet map[common.MouseButton]struct{}

// Has reports whether b is in the set. A nil set contains nothing.
func (s ButtonSet) Has(b common.MouseButton) bool {
	_, ok := s[b]
	return ok
}

// Buttons builds a ButtonSet from the given buttons.
func Buttons(buttons ...common.MouseButton) ButtonSet {
	s := make(ButtonSet, len(buttons))
	for _, b := range buttons {
		s[b] = struct{}{}
	}
	return s
}

// Snapshot is the input observed during one frame. It is a value: systems read
// it and never mutate it.
type Snapshot struct {
	// Held is the set of keys down at the end of the frame.
	Held KeySet

	// JustPressed is the set of keys that went down during the frame.
	JustPressed KeySet

	// Buttons is the set of mouse buttons down at the end of the frame.
	Buttons ButtonSet

	// MouseDelta is the accumulated cursor motion since the previous frame, in pixels.
	// +X is right, +Y is down.
	MouseDelta mgl32.Vec2

	// Scroll is the accumulated vertical scroll since the previous frame.
	// Positive is scroll up.
	Scroll float32
}

// Empty returns a snapshot with no input.
func Empty() Snapshot {
	return Snapshot{}
}

// Window is the subset of the platform window that State listens to.
type Window interface {
	SetKeyDownCallback(callback func(key common.Key))
	SetKeyUpCallback(callback func(key common.Key))
	SetMouseButtonCallback(callback func(button common.MouseButton, pressed bool))
	SetMouseMoveCallback(callback func(x, y float64))
	SetScrollCallback(callback func(delta float32))
}

// State accumulates raw window events between frames and hands them out as
// Snapshots. Events may arrive from the window callbacks while the frame thread
// takes a snapshot.
type State struct {
	mu sync.Mutex

	held        map[common.Key]struct{}
	justPressed map[common.Key]struct{}
	buttons     map[common.MouseButton]struct{}

	delta   mgl32.Vec2
	scroll  float32
	lastPos mgl32.Vec2
	havePos bool
}

// NewState creates an empty input state.
//
// Returns:
//   - *State: the new state
func NewState() *State {
	return &State{
		held:        make(map[common.Key]struct{}),
		justPressed: make(map[common.Key]struct{}),
		buttons:     make(map[common.MouseButton]struct{}),
	}
}

// Attach registers the state's handlers on the window, replacing any callbacks
// previously set for those events.
//
// Parameters:
//   - w: the window to listen to
func (s *State) Attach(w Window) {
	w.SetKeyDownCallback(s.KeyDown)
	w.SetKeyUpCallback(s.KeyUp)
	w.SetMouseButtonCallback(s.MouseButton)
	w.SetMouseMoveCallback(s.MouseMove)
	w.SetScrollCallback(s.Scroll)
}

// KeyDown records a key press. Auto-repeat presses of an already held key are
// not reported as just pressed again.
func (s *State) KeyDown(key common.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.held[key]; !held {
		s.justPressed[key] = struct{}{}
	}
	s.held[key] = struct{}{}
}

// KeyUp records a key release.
func (s *State) KeyUp(key common.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, key)
}

// MouseButton records a mouse button press or release.
func (s *State) MouseButton(button common.MouseButton, pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pressed {
		s.buttons[button] = struct{}{}
		return
	}
	delete(s.buttons, button)
}

// MouseMove records an absolute cursor position and accumulates the motion
// relative to the previous one. The first position only seeds the tracker.
func (s *State) MouseMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := mgl32.Vec2{float32(x), float32(y)}
	if s.havePos {
		s.delta = s.delta.Add(pos.Sub(s.lastPos))
	}
	s.lastPos = pos
	s.havePos = true
}

// Scroll accumulates a scroll wheel delta.
func (s *State) Scroll(delta float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scroll += delta
}

// Snapshot returns the input gathered since the previous call and resets the
// per-frame accumulators (motion, scroll, just pressed). Held keys and buttons
// carry over.
//
// Returns:
//   - Snapshot: the frame's input
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Held:        make(KeySet, len(s.held)),
		JustPressed: make(KeySet, len(s.justPressed)),
		Buttons:     make(ButtonSet, len(s.buttons)),
		MouseDelta:  s.delta,
		Scroll:      s.scroll,
	}
	for k := range s.held {
		snap.Held[k] = struct{}{}
	}
	for k := range s.justPressed {
		snap.JustPressed[k] = struct{}{}
	}
	for b := range s.buttons {
		snap.Buttons[b] = struct{}{}
	}

	clear(s.justPressed)
	s.delta = mgl32.Vec2{}
	s.scroll = 0
	return snap
}

// ResetMotion drops the cursor tracker and any motion gathered so far. Call it
// after changing the cursor mode, which makes the platform report a jump.
func (s *State) ResetMotion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delta = mgl32.Vec2{}
	s.havePos = false
}

// Reset clears all held keys and buttons, e.g. when the window loses focus.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.held)
	clear(s.justPressed)
	clear(s.buttons)
	s.delta = mgl32.Vec2{}
	s.scroll = 0
	s.havePos = false
}
