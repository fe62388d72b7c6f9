package light

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxGPULights is the number of light slots in the light uniform buffer.
// Directional lights are packed first, so point lights are dropped first.
const MaxGPULights = 8

// Photometric units are scaled into the shader's unitless range with these factors.
const (
	// AmbientScale converts ambient brightness (cd/m²) to a fill factor.
	AmbientScale float32 = 1.0 / 20000

	// PointScale converts lumens to radiant intensity, before the 1/d² falloff.
	PointScale float32 = 1.0 / (4 * math32.Pi * 10)

	// DirectionalScale converts lux to an irradiance factor.
	DirectionalScale float32 = 1.0 / 10000
)

// GPULight is the GPU-aligned representation of a single light source.
// Size: 48 bytes (WGSL uniform aligned).
type GPULight struct {
	Position  [3]float32 // offset  0: world-space position (point)
	LightType uint32     // offset 12: 0 = directional, 1 = point
	Color     [3]float32 // offset 16: RGB color premultiplied by the scaled intensity
	Range     float32    // offset 28: attenuation cutoff distance
	Direction [3]float32 // offset 32: normalized travel direction (directional)
	Shadows   uint32     // offset 44: 1 = samples its shadow map
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// GPULightHeader precedes the light slots in the uniform buffer.
// Size: 16 bytes.
type GPULightHeader struct {
	AmbientColor [3]float32 // offset 0: ambient RGB premultiplied by the scaled brightness
	LightCount   uint32     // offset 12: number of populated light slots
}

// GPUShadowData describes the shadow maps to the lit shader. Only the first
// shadow-casting directional light and the first shadow-casting point light get
// a map. Matches the WGSL Shadows struct in lit.wgsl.
// Size: 352 bytes (WGSL uniform aligned).
type GPUShadowData struct {
	Cascades      [MaxCascades]mgl32.Mat4 // offset   0: world to cascade clip space
	Splits        [MaxCascades]float32    // offset 256: view depth where each cascade ends
	NormalBias    [MaxCascades]float32    // offset 272: world-space receiver offset along the normal
	DepthBias     [MaxCascades]float32    // offset 288: comparison bias in cascade depth units
	ViewForward   [3]float32              // offset 304: camera forward, for the view depth
	CascadeCount  uint32                  // offset 316: populated cascades, 0 = no sun shadow
	PointPosition [3]float32              // offset 320: position of the shadowed point light
	PointFar      float32                 // offset 332: cube map range, 0 = no point shadow
	PointBias     float32                 // offset 336: world-space comparison slack
	_pad          [3]float32              // offset 340: padding to 352 bytes
}

// GPULightBuffer is the whole light uniform: the header, a fixed array of slots
// and the shadow description.
type GPULightBuffer struct {
	Header GPULightHeader
	Lights [MaxGPULights]GPULight
	Shadow GPUShadowData
}

// Size returns the size of the GPULightBuffer struct in bytes.
func (b *GPULightBuffer) Size() int {
	return int(unsafe.Sizeof(*b))
}

// Marshal serializes the buffer for GPU upload.
//
// Returns:
//   - []byte: the raw buffer bytes
func (b *GPULightBuffer) Marshal() []byte {
	return append([]byte(nil), common.StructToBytes(b)...)
}

// HasShadows reports whether any shadow map is in use.
func (b *GPULightBuffer) HasShadows() bool {
	return b.Shadow.CascadeCount > 0 || b.Shadow.PointFar > 0
}

// ShadowMap selects one of the renderer's shadow map textures.
type ShadowMap int

const (
	// ShadowMapSun is the directional cascade array.
	ShadowMapSun ShadowMap = iota

	// ShadowMapPoint is the point light cube map.
	ShadowMapPoint
)

// ShadowPass is one depth-only render into a shadow map layer.
type ShadowPass struct {
	Map      ShadowMap
	Layer    int
	ViewProj mgl32.Mat4
}

// ShadowPasses lists the depth renders the buffer's shadow data needs: one per
// sun cascade, then one per point light cube face.
//
// Returns:
//   - []ShadowPass: the passes in render order, empty when no light casts shadows
func (b *GPULightBuffer) ShadowPasses() []ShadowPass {
	var passes []ShadowPass
	for i := range int(b.Shadow.CascadeCount) {
		passes = append(passes, ShadowPass{Map: ShadowMapSun, Layer: i, ViewProj: b.Shadow.Cascades[i]})
	}
	if b.Shadow.PointFar > 0 {
		faces := PointShadowFaces(mgl32.Vec3(b.Shadow.PointPosition), b.Shadow.PointFar)
		for i, vp := range faces {
			passes = append(passes, ShadowPass{Map: ShadowMapPoint, Layer: i, ViewProj: vp})
		}
	}
	return passes
}

// ToGPULight converts a Light into its GPU representation.
//
// Parameters:
//   - l: the light to convert
//
// Returns:
//   - GPULight: the GPU-aligned light
func ToGPULight(l Light) GPULight {
	scale := DirectionalScale
	if l.Type() == LightTypePoint {
		scale = PointScale
	}
	c := l.Color()
	g := GPULight{
		Position:  l.Position(),
		LightType: uint32(l.Type()),
		Color:     [3]float32{c[0] * l.Intensity() * scale, c[1] * l.Intensity() * scale, c[2] * l.Intensity() * scale},
		Range:     l.Range(),
		Direction: l.Direction(),
	}
	if l.CastsShadows() {
		g.Shadows = 1
	}
	return g
}

// BuildLightBuffer packs the ambient light and the enabled lights into a uniform
// buffer. Point lights fill slots after directional lights, in list order.
// When the view is valid, the first shadow-casting light of each type gets a
// shadow map fitted to it and keeps its Shadows flag; every other slot is
// packed unshadowed.
//
// Parameters:
//   - ambient: the ambient light
//   - lights: the scene lights
//   - view: the camera frustum shadows are fitted to; the zero value disables shadows
//
// Returns:
//   - GPULightBuffer: the packed buffer
func BuildLightBuffer(ambient AmbientLight, lights []Light, view ShadowView) GPULightBuffer {
	var buf GPULightBuffer
	a := ambient.Brightness * AmbientScale
	buf.Header.AmbientColor = [3]float32{ambient.Color[0] * a, ambient.Color[1] * a, ambient.Color[2] * a}

	n := 0
	sunDone, pointDone := !view.Valid(), !view.Valid()
	for _, lt := range []LightType{LightTypeDirectional, LightTypePoint} {
		for _, l := range lights {
			if n == MaxGPULights {
				break
			}
			if !l.Enabled() || l.Type() != lt {
				continue
			}
			g := ToGPULight(l)
			if g.Shadows == 1 {
				switch {
				case lt == LightTypeDirectional && !sunDone:
					sunDone = buf.Shadow.fitSun(l, view)
					if !sunDone {
						g.Shadows = 0
					}
				case lt == LightTypePoint && !pointDone:
					pointDone = buf.Shadow.fitPoint(l)
					if !pointDone {
						g.Shadows = 0
					}
				default:
					g.Shadows = 0
				}
			}
			buf.Lights[n] = g
			n++
		}
	}
	buf.Header.LightCount = uint32(n)
	return buf
}

// fitSun fills the cascade data for a directional light.
func (s *GPUShadowData) fitSun(l Light, view ShadowView) bool {
	cascades := FitCascades(l.Direction(), view, l.Cascades(), ShadowMapResolution)
	if len(cascades) == 0 {
		return false
	}
	for i, c := range cascades {
		s.Cascades[i] = c.ViewProj
		s.Splits[i] = c.Far
		s.NormalBias[i] = c.TexelSize * DefaultShadowNormalBiasScale
		s.DepthBias[i] = c.TexelSize * DefaultShadowDepthBiasTexels / c.DepthRange
	}
	s.CascadeCount = uint32(len(cascades))
	s.ViewForward = view.Forward.Normalize()
	return true
}

// fitPoint fills the cube map data for a point light.
func (s *GPUShadowData) fitPoint(l Light) bool {
	if l.Range() <= PointShadowNear {
		return false
	}
	s.PointPosition = l.Position()
	s.PointFar = l.Range()
	s.PointBias = 2 * l.Range() / PointShadowResolution
	return true
}
