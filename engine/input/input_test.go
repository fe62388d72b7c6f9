package input

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

type fakeWindow struct {
	keyDown func(common.Key)
	keyUp   func(common.Key)
	button  func(common.MouseButton, bool)
	move    func(x, y float64)
	scroll  func(float32)
}

func (w *fakeWindow) SetKeyDownCallback(cb func(common.Key))                   { w.keyDown = cb }
func (w *fakeWindow) SetKeyUpCallback(cb func(common.Key))                     { w.keyUp = cb }
func (w *fakeWindow) SetMouseButtonCallback(cb func(common.MouseButton, bool)) { w.button = cb }
func (w *fakeWindow) SetMouseMoveCallback(cb func(x, y float64))               { w.move = cb }
func (w *fakeWindow) SetScrollCallback(cb func(float32))                       { w.scroll = cb }

func TestSnapshotThroughWindowCallbacks(t *testing.T) {
	w := &fakeWindow{}
	s := NewState()
	s.Attach(w)

	w.keyDown(common.KeyW)
	w.keyDown(common.KeyW) // auto-repeat
	w.keyDown(common.KeyLeftShift)
	w.button(common.MouseButtonLeft, true)
	w.move(100, 100)
	w.move(110, 95)
	w.move(130, 90)
	w.scroll(1)
	w.scroll(0.5)

	snap := s.Snapshot()
	assert.True(t, snap.Held.Has(common.KeyW))
	assert.True(t, snap.Held.Has(common.KeyLeftShift))
	assert.True(t, snap.JustPressed.Has(common.KeyW))
	assert.True(t, snap.Buttons.Has(common.MouseButtonLeft))
	assert.Equal(t, mgl32.Vec2{30, -10}, snap.MouseDelta)
	assert.Equal(t, float32(1.5), snap.Scroll)

	// held state carries over, per-frame accumulators do not
	w.keyDown(common.KeyW)
	w.keyUp(common.KeyLeftShift)
	w.button(common.MouseButtonLeft, false)
	next := s.Snapshot()
	assert.True(t, next.Held.Has(common.KeyW))
	assert.False(t, next.JustPressed.Has(common.KeyW))
	assert.False(t, next.Held.Has(common.KeyLeftShift))
	assert.False(t, next.Buttons.Has(common.MouseButtonLeft))
	assert.Equal(t, mgl32.Vec2{}, next.MouseDelta)
	assert.Zero(t, next.Scroll)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewState()
	s.KeyDown(common.KeyA)
	snap := s.Snapshot()
	s.KeyUp(common.KeyA)
	assert.True(t, snap.Held.Has(common.KeyA))
}

func TestPressAndReleaseWithinOneFrame(t *testing.T) {
	s := NewState()
	s.KeyDown(common.KeyM)
	s.KeyUp(common.KeyM)
	snap := s.Snapshot()
	assert.True(t, snap.JustPressed.Has(common.KeyM))
	assert.False(t, snap.Held.Has(common.KeyM))
}

func TestResetMotionDropsCursorJump(t *testing.T) {
	s := NewState()
	s.MouseMove(10, 10)
	s.MouseMove(12, 10)
	s.ResetMotion()
	s.MouseMove(500, 400)
	s.MouseMove(503, 401)
	assert.Equal(t, mgl32.Vec2{3, 1}, s.Snapshot().MouseDelta)
}

func TestResetClearsEverything(t *testing.T) {
	s := NewState()
	s.KeyDown(common.KeyD)
	s.MouseButton(common.MouseButtonRight, true)
	s.MouseMove(0, 0)
	s.MouseMove(4, 4)
	s.Scroll(2)
	s.Reset()
	assert.Equal(t, Empty().MouseDelta, s.Snapshot().MouseDelta)
	snap := s.Snapshot()
	assert.Empty(t, snap.Held)
	assert.Empty(t, snap.Buttons)
	assert.Zero(t, snap.Scroll)
}

func TestUnboundKeyNeverMatches(t *testing.T) {
	s := NewState()
	s.KeyDown(common.KeyUnbound)
	assert.False(t, s.Snapshot().Held.Has(common.KeyUnbound))
	var nilSet KeySet
	assert.False(t, nilSet.Has(common.KeyW))
}

func TestConcurrentEvents(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				s.Scroll(1)
				s.KeyDown(common.KeyW)
			}
		}()
	}
	wg.Wait()
	snap := s.Snapshot()
	assert.Equal(t, float32(800), snap.Scroll)
	assert.True(t, snap.Held.Has(common.KeyW))
}
