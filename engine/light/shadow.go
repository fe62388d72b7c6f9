package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxCascades is the number of layers in the directional shadow map.
const MaxCascades = 4

// ShadowMapResolution is the width and height in texels of each directional
// shadow cascade.
const ShadowMapResolution = 2048

// PointShadowResolution is the width and height in texels of each point light
// cube map face.
const PointShadowResolution = 1024

// ShadowCasterReach is how far behind a cascade, toward the light, geometry
// still casts into it.
const ShadowCasterReach float32 = 20

// DefaultShadowNormalBiasScale multiplies a cascade's texel world size to get
// the distance receivers are pushed along their normal before the lookup.
const DefaultShadowNormalBiasScale float32 = 2

// DefaultShadowDepthBiasTexels is the comparison bias, in texel world sizes.
const DefaultShadowDepthBiasTexels float32 = 1.5

// PointShadowNear is the near plane of the point light cube faces.
const PointShadowNear float32 = 0.05

// CascadeConfig splits a directional light's shadow range into cascades.
type CascadeConfig struct {
	// Cascades is the number of shadow maps.
	Cascades int

	// FirstCascadeFarBound is the far distance of the first cascade.
	FirstCascadeFarBound float32

	// MaxDistance is the distance from the camera beyond which nothing casts shadows.
	MaxDistance float32

	// Overlap is the fraction each cascade extends into the next.
	Overlap float32
}

// DefaultCascadeConfig returns four cascades out to 1000 units.
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{Cascades: 4, FirstCascadeFarBound: 5, MaxDistance: 1000, Overlap: 0.2}
}

// Validate checks the cascade layout.
//
// Returns:
//   - error: error describing the first invalid field, or nil
func (c CascadeConfig) Validate() error {
	switch {
	case c.Cascades < 1 || c.Cascades > MaxCascades:
		return fmt.Errorf("cascades must lie in [1, %d], got %d", MaxCascades, c.Cascades)
	case c.MaxDistance <= 0:
		return fmt.Errorf("max distance must be positive, got %v", c.MaxDistance)
	case c.Cascades > 1 && (c.FirstCascadeFarBound <= 0 || c.FirstCascadeFarBound >= c.MaxDistance):
		return fmt.Errorf("first cascade bound %v must lie in (0, %v)", c.FirstCascadeFarBound, c.MaxDistance)
	case c.Overlap < 0 || c.Overlap >= 1:
		return fmt.Errorf("overlap must lie in [0, 1), got %v", c.Overlap)
	}
	return nil
}

// Bounds returns the far distance of every cascade. The first cascade ends at
// FirstCascadeFarBound and the rest are spaced geometrically up to MaxDistance.
// A single cascade covers the whole range.
//
// Returns:
//   - []float32: one far bound per cascade
func (c CascadeConfig) Bounds() []float32 {
	if c.Cascades <= 1 {
		return []float32{c.MaxDistance}
	}
	bounds := make([]float32, c.Cascades)
	ratio := c.MaxDistance / c.FirstCascadeFarBound
	for i := range bounds {
		bounds[i] = c.FirstCascadeFarBound * math32.Pow(ratio, float32(i)/float32(c.Cascades-1))
	}
	bounds[len(bounds)-1] = c.MaxDistance
	return bounds
}

// ShadowView is the camera information shadow cascades are fitted to. The zero
// value disables shadows.
type ShadowView struct {
	ViewProj mgl32.Mat4
	Forward  mgl32.Vec3
	Near     float32
	Far      float32
}

// Valid reports whether the view describes a usable camera frustum.
func (v ShadowView) Valid() bool {
	return v.Far > v.Near && v.Near > 0 && v.ViewProj.Det() != 0
}

// Cascade is one fitted slice of a directional shadow.
type Cascade struct {
	// ViewProj maps world space into the cascade's shadow map.
	ViewProj mgl32.Mat4

	// Far is the view depth at which the cascade ends.
	Far float32

	// TexelSize is the world-space width of one shadow map texel.
	TexelSize float32

	// DepthRange is the world-space distance covered by the cascade's depth.
	DepthRange float32
}

// FitCascades fits an orthographic shadow projection around each slice of the
// camera frustum, looking along the light direction. Each projection is snapped
// to whole texels so shadow edges do not shimmer as the camera moves.
//
// Parameters:
//   - dir: normalized direction the light travels
//   - view: the camera frustum
//   - cfg: the cascade layout
//   - resolution: shadow map size in texels
//
// Returns:
//   - []Cascade: one entry per cascade, nil when the view is invalid
func FitCascades(dir mgl32.Vec3, view ShadowView, cfg CascadeConfig, resolution int) []Cascade {
	if !view.Valid() || resolution <= 0 || cfg.Cascades < 1 {
		return nil
	}
	inv := view.ViewProj.Inv()
	var nearCorners, farCorners [4]mgl32.Vec3
	for i, ndc := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		nearCorners[i] = mgl32.TransformCoordinate(mgl32.Vec3{ndc[0], ndc[1], 0}, inv)
		farCorners[i] = mgl32.TransformCoordinate(mgl32.Vec3{ndc[0], ndc[1], 1}, inv)
	}

	bounds := cfg.Bounds()
	if len(bounds) > MaxCascades {
		bounds = bounds[:MaxCascades]
	}
	out := make([]Cascade, 0, len(bounds))
	start := view.Near
	for _, end := range bounds {
		end = min(end, view.Far)
		t0 := (start - view.Near) / (view.Far - view.Near)
		t1 := (end - view.Near) / (view.Far - view.Near)

		var corners [8]mgl32.Vec3
		var center mgl32.Vec3
		for i := range 4 {
			ray := farCorners[i].Sub(nearCorners[i])
			corners[i] = nearCorners[i].Add(ray.Mul(t0))
			corners[i+4] = nearCorners[i].Add(ray.Mul(t1))
			center = center.Add(corners[i]).Add(corners[i+4])
		}
		center = center.Mul(1.0 / 8)
		var radius float32
		for _, c := range corners {
			radius = max(radius, c.Sub(center).Len())
		}
		// Quantized so the projection size stays fixed as the camera turns.
		radius = math32.Ceil(radius*16) / 16

		out = append(out, fitCascade(dir, center, radius, end, resolution))
		start = end * (1 - cfg.Overlap)
	}
	return out
}

func fitCascade(dir, center mgl32.Vec3, radius, far float32, resolution int) Cascade {
	up := mgl32.Vec3{0, 1, 0}
	if math32.Abs(dir.Y()) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	reach := radius + ShadowCasterReach
	eye := center.Sub(dir.Mul(reach))
	lightView := mgl32.LookAtV(eye, center, up)
	depth := reach + radius
	proj := common.OrthoZO(-radius, radius, -radius, radius, 0, depth)

	// Snap the world origin to a texel corner.
	half := float32(resolution) / 2
	origin := proj.Mul4(lightView).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	sx, sy := origin.X()*half, origin.Y()*half
	proj[12] += (math32.Round(sx) - sx) / half
	proj[13] += (math32.Round(sy) - sy) / half

	return Cascade{
		ViewProj:   proj.Mul4(lightView),
		Far:        far,
		TexelSize:  2 * radius / float32(resolution),
		DepthRange: depth,
	}
}

// cubeFaces lists, per cube map layer, the face axis and the world directions
// of the face's +X and +Y in normalized device coordinates.
var cubeFaces = [6][3]mgl32.Vec3{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

// PointShadowFaces returns the view-projection matrix of each cube map face of
// a point light, in layer order +X, -X, +Y, -Y, +Z, -Z. Looking up the cube
// with the world-space vector from the light to a point lands on the texel
// that point was rendered to.
//
// Parameters:
//   - pos: the light position
//   - far: the shadow range
//
// Returns:
//   - [6]mgl32.Mat4: one matrix per face
func PointShadowFaces(pos mgl32.Vec3, far float32) [6]mgl32.Mat4 {
	proj := common.PerspectiveZO(math32.Pi/2, 1, PointShadowNear, far)
	var out [6]mgl32.Mat4
	for i, face := range cubeFaces {
		fwd, right, up := face[0], face[1], face[2]
		view := mgl32.Mat4{
			right.X(), up.X(), -fwd.X(), 0,
			right.Y(), up.Y(), -fwd.Y(), 0,
			right.Z(), up.Z(), -fwd.Z(), 0,
			-right.Dot(pos), -up.Dot(pos), fwd.Dot(pos), 1,
		}
		out[i] = proj.Mul4(view)
	}
	return out
}

// PointShadowDepth returns the depth a point stored in a point light's cube
// map, given its largest absolute offset from the light along any axis.
//
// Parameters:
//   - major: the largest absolute component of the light-to-point vector
//   - far: the shadow range
//
// Returns:
//   - float32: depth in [0, 1]
func PointShadowDepth(major, far float32) float32 {
	return far * (major - PointShadowNear) / ((far - PointShadowNear) * major)
}
