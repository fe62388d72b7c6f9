package light

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun. Its strength is an illuminance
	// in lux with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Its strength is a luminous power in lumens and it attenuates with distance
	// up to a configurable range.
	LightTypePoint
)

// String returns the light type name.
func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	default:
		return "unknown"
	}
}

// AmbientLight is the uniform fill light applied to every surface.
type AmbientLight struct {
	// Color is the RGB tint.
	Color [3]float32

	// Brightness is the ambient luminance in cd/m².
	Brightness float32
}

// DefaultAmbientLight returns white ambient light at brightness 2000.
func DefaultAmbientLight() AmbientLight {
	return AmbientLight{Color: [3]float32{1, 1, 1}, Brightness: 2000}
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType    LightType
	position     mgl32.Vec3
	rotation     mgl32.Quat
	color        [3]float32
	intensity    float32
	lightRange   float32
	enabled      bool
	castsShadows bool
	cascades     CascadeConfig
}

// Light defines the interface for a light source in the scene.
//
// Point lights are placed with a position; directional lights are oriented with a
// rotation and shine along the rotated -Z axis. Type-specific properties return
// their stored values on the other type but are ignored when shading.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional or point)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Rotation returns the orientation of a directional light.
	//
	// Returns:
	//   - mgl32.Quat: the rotation
	Rotation() mgl32.Quat

	// Direction returns the normalized direction the light travels in.
	//
	// Returns:
	//   - mgl32.Vec3: the rotated -Z axis
	Direction() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns lumens for point lights and lux for directional lights.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the maximum attenuation distance for point lights.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// Enabled returns whether this light is active for rendering.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// CastsShadows returns whether this light is eligible for shadow mapping.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// Cascades returns the shadow cascade layout of a directional light.
	//
	// Returns:
	//   - CascadeConfig: the cascade configuration
	Cascades() CascadeConfig

	// SetPosition sets the world-space position of the light.
	SetPosition(p mgl32.Vec3)

	// SetRotation sets the orientation of the light.
	SetRotation(q mgl32.Quat)

	// SetColor sets the RGB color of the light.
	SetColor(r, g, b float32)

	// SetIntensity sets lumens (point) or lux (directional).
	SetIntensity(intensity float32)

	// SetRange sets the maximum attenuation distance.
	SetRange(lightRange float32)

	// SetEnabled enables or disables the light for rendering.
	SetEnabled(enabled bool)

	// SetCastsShadows sets whether the light is eligible for shadow mapping.
	SetCastsShadows(castsShadows bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied. Point lights default to 800 lumens with a range
// of 20; directional lights default to 10000 lux pointing straight down.
//
// Parameters:
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:  lightType,
		rotation:   mgl32.QuatRotate(-math32.Pi/2, mgl32.Vec3{1, 0, 0}),
		color:      [3]float32{1, 1, 1},
		intensity:  800,
		lightRange: 20,
		enabled:    true,
		cascades:   DefaultCascadeConfig(),
	}
	if lightType == LightTypeDirectional {
		l.intensity = 10000
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SunRotation returns the orientation of the animated directional light after
// elapsed seconds: a slow turn about Y with a fixed 45° downward tilt.
//
// Parameters:
//   - elapsed: seconds since start
//
// Returns:
//   - mgl32.Quat: the light rotation
func SunRotation(elapsed float32) mgl32.Quat {
	return common.QuatFromEulerZYX(0, elapsed*math32.Pi/50, -math32.Pi/4)
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Rotation() mgl32.Quat {
	return l.rotation
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	return l.rotation.Rotate(mgl32.Vec3{0, 0, -1}).Normalize()
}

func (l *lightImpl) Color() [3]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) Cascades() CascadeConfig {
	return l.cascades
}

func (l *lightImpl) SetPosition(p mgl32.Vec3) {
	l.position = p
}

func (l *lightImpl) SetRotation(q mgl32.Quat) {
	l.rotation = q.Normalize()
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.lightRange = lightRange
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) SetCastsShadows(castsShadows bool) {
	l.castsShadows = castsShadows
}
