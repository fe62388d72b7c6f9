package animator

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/model"
	"github.com/chewxy/math32"
)

// animationPlayer is the implementation of the AnimationPlayer interface.
type animationPlayer struct {
	mu *sync.Mutex

	pose *model.Pose

	clip        int
	repeat      Repeat
	speed       float32
	elapsed     float32
	completions int
	paused      bool
	finished    bool

	// crossfade from a captured pose into the new clip
	from          []common.Transform
	blendDuration float32
	blendElapsed  float32
}

// AnimationPlayer plays one animation clip at a time on a model instance. It owns
// a model.Pose which it writes every Advance; the scene skins meshes from that pose.
//
// Switching clips with a non-zero transition crossfades from the pose at the
// moment of the switch. There is no blend tree or state machine.
type AnimationPlayer interface {
	// Pose returns the pose this player animates.
	//
	// Returns:
	//   - *model.Pose: the pose
	Pose() *model.Pose

	// Model returns the model the player was created for.
	Model() model.Model

	// Play starts a clip from the beginning.
	//
	// Parameters:
	//   - clip: index into the model's animations
	//   - transition: crossfade duration, 0 to switch immediately
	//
	// Returns:
	//   - error: error if the clip index is out of range
	Play(clip int, transition time.Duration) error

	// SetRepeat sets the repeat mode of the current and future clips.
	//
	// Parameters:
	//   - r: the repeat mode
	SetRepeat(r Repeat)

	// Repeat returns the current repeat mode.
	Repeat() Repeat

	// Advance moves playback forward by dt seconds scaled by the speed, samples
	// every channel of the clip and writes the result to the pose. Non-finite or
	// negative dt is treated as zero.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Advance(dt float32)

	// Stop clears the clip and restores the rest pose.
	Stop()

	// Pause freezes playback.
	Pause()

	// Resume continues paused playback.
	Resume()

	// Paused reports whether playback is frozen.
	Paused() bool

	// SetSpeed sets the playback rate. Negative or non-finite values are treated as 0.
	//
	// Parameters:
	//   - speed: playback rate, 1 for normal speed
	SetSpeed(speed float32)

	// Speed returns the playback rate.
	Speed() float32

	// Clip returns the index of the current clip, or -1.
	Clip() int

	// Playing reports whether a clip is set and has not finished.
	Playing() bool

	// Finished reports whether a non-repeating clip reached its end.
	Finished() bool

	// Elapsed returns the playback position within the current clip in seconds.
	Elapsed() float32

	// Completions returns how many times the current clip reached its end.
	Completions() int
}

var _ AnimationPlayer = &animationPlayer{}

// NewAnimationPlayer creates a stopped player with a fresh pose for the model.
//
// Parameters:
//   - m: the model to animate
//   - options: functional options to configure the player
//
// Returns:
//   - AnimationPlayer: the newly created player
func NewAnimationPlayer(m model.Model, options ...AnimationPlayerOption) AnimationPlayer {
	if m == nil {
		panic("animator: NewAnimationPlayer requires a model")
	}
	p := &animationPlayer{
		mu:     &sync.Mutex{},
		pose:   model.NewPose(m),
		clip:   -1,
		repeat: RepeatNever,
		speed:  1,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *animationPlayer) Pose() *model.Pose {
	return p.pose
}

func (p *animationPlayer) Model() model.Model {
	return p.pose.Model()
}

func (p *animationPlayer) Play(clip int, transition time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if clip < 0 || clip >= p.pose.Model().AnimationCount() {
		return fmt.Errorf("animation clip %d out of range (model %q has %d)", clip, p.pose.Model().Name(), p.pose.Model().AnimationCount())
	}

	p.from = nil
	p.blendDuration, p.blendElapsed = 0, 0
	if transition > 0 && p.clip >= 0 {
		n := len(p.pose.Model().Nodes())
		p.from = make([]common.Transform, n)
		for i := range n {
			p.from[i] = p.pose.Local(i)
		}
		p.blendDuration = float32(transition.Seconds())
	}

	p.pose.Reset()
	p.clip = clip
	p.elapsed = 0
	p.completions = 0
	p.finished = false
	p.sample()
	return nil
}

func (p *animationPlayer) SetRepeat(r Repeat) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repeat = r
}

func (p *animationPlayer) Repeat() Repeat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.repeat
}

func (p *animationPlayer) Advance(dt float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.clip < 0 || p.paused || p.finished {
		return
	}
	if !common.IsFinite(dt) || dt < 0 {
		dt = 0
	}

	duration := p.pose.Model().Animations()[p.clip].Duration
	p.elapsed += dt * p.speed
	if p.from != nil {
		p.blendElapsed += dt
	}

	if p.elapsed >= duration {
		p.wrap(duration)
	}
	p.sample()
}

// wrap handles reaching the end of the clip.
// Caller must hold the mutex.
func (p *animationPlayer) wrap(duration float32) {
	if duration <= 0 {
		p.completions++
		p.elapsed = 0
		if plays := p.repeat.plays(); plays != 0 && p.completions >= plays {
			p.finished = true
		}
		return
	}

	laps := int(math32.Floor(p.elapsed / duration))
	p.completions += laps
	if plays := p.repeat.plays(); plays != 0 && p.completions >= plays {
		p.completions = plays
		p.elapsed = duration
		p.finished = true
		return
	}
	p.elapsed = math32.Mod(p.elapsed, duration)
}

// sample writes the clip at the current time into the pose, crossfading from the
// captured pose while a transition runs.
// Caller must hold the mutex.
func (p *animationPlayer) sample() {
	clip := p.pose.Model().Animations()[p.clip]
	if p.from != nil {
		p.pose.Reset()
	}
	for _, ch := range clip.Channels {
		if v, ok := sampleVector(ch.PositionKeys, ch.Interpolation, p.elapsed); ok {
			p.pose.SetTranslation(ch.NodeIndex, v)
		}
		if q, ok := sampleRotation(ch.RotationKeys, ch.Interpolation, p.elapsed); ok {
			p.pose.SetRotation(ch.NodeIndex, q)
		}
		if v, ok := sampleVector(ch.ScaleKeys, ch.Interpolation, p.elapsed); ok {
			p.pose.SetScale(ch.NodeIndex, v)
		}
	}

	if p.from == nil {
		return
	}
	w := p.blendElapsed / p.blendDuration
	if w >= 1 {
		p.from = nil
		return
	}
	for i, from := range p.from {
		to := p.pose.Local(i)
		p.pose.SetTranslation(i, lerpVec3(from.Position, to.Position, w))
		p.pose.SetRotation(i, slerp(from.Rotation, to.Rotation, w))
		p.pose.SetScale(i, lerpVec3(from.Scale, to.Scale, w))
	}
}

func (p *animationPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clip = -1
	p.elapsed = 0
	p.completions = 0
	p.finished = false
	p.from = nil
	p.pose.Reset()
}

func (p *animationPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

func (p *animationPlayer) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

func (p *animationPlayer) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *animationPlayer) SetSpeed(speed float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !common.IsFinite(speed) || speed < 0 {
		speed = 0
	}
	p.speed = speed
}

func (p *animationPlayer) Speed() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

func (p *animationPlayer) Clip() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clip
}

func (p *animationPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clip >= 0 && !p.finished
}

func (p *animationPlayer) Finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

func (p *animationPlayer) Elapsed() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elapsed
}

func (p *animationPlayer) Completions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completions
}
