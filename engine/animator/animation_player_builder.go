package animator

// AnimationPlayerOption is a functional option for configuring an AnimationPlayer.
type AnimationPlayerOption func(*animationPlayer)

// WithRepeat sets the initial repeat mode.
//
// Parameters:
//   - r: the repeat mode
//
// Returns:
//   - AnimationPlayerOption: functional option to set the repeat mode
func WithRepeat(r Repeat) AnimationPlayerOption {
	return func(p *animationPlayer) {
		p.repeat = r
	}
}

// WithSpeed sets the initial playback rate.
//
// Parameters:
//   - speed: playback rate, 1 for normal speed
//
// Returns:
//   - AnimationPlayerOption: functional option to set the speed
func WithSpeed(speed float32) AnimationPlayerOption {
	return func(p *animationPlayer) {
		p.speed = max(speed, 0)
	}
}
