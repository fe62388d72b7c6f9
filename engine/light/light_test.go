package light

import (
	"testing"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLightDefaults(t *testing.T) {
	sun := NewLight(LightTypeDirectional)
	assert.Equal(t, float32(10000), sun.Intensity())
	dir := sun.Direction()
	assert.InDeltaSlice(t, []float32{0, -1, 0}, dir[:], 1e-6)
	assert.True(t, sun.Enabled())
	assert.False(t, sun.CastsShadows())

	bulb := NewLight(LightTypePoint, WithPosition(4, 8, 4), WithIntensity(1500), WithCastsShadows(true))
	assert.Equal(t, mgl32.Vec3{4, 8, 4}, bulb.Position())
	assert.Equal(t, float32(1500), bulb.Intensity())
	assert.True(t, bulb.CastsShadows())
	assert.Equal(t, "point", bulb.Type().String())
}

func TestSunRotation(t *testing.T) {
	// at t=0 the sun tilts 45° below the horizon looking down -Z
	dir := SunRotation(0).Rotate(mgl32.Vec3{0, 0, -1})
	assert.InDeltaSlice(t, []float32{0, -math32.Sqrt2 / 2, -math32.Sqrt2 / 2}, dir[:], 1e-5)

	// a full turn about Y takes 100 seconds
	assert.True(t, SunRotation(100).ApproxEqualThreshold(SunRotation(0), 1e-4) ||
		SunRotation(100).ApproxEqualThreshold(SunRotation(0).Scale(-1), 1e-4))

	quarter := SunRotation(25).Rotate(mgl32.Vec3{0, 0, -1})
	assert.InDelta(t, -math32.Sqrt2/2, quarter.Y(), 1e-5)
	assert.InDelta(t, 0, quarter.Z(), 1e-5)
}

func TestCascadeConfig(t *testing.T) {
	cfg := CascadeConfig{Cascades: 1, MaxDistance: 1.6}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []float32{1.6}, cfg.Bounds())

	def := DefaultCascadeConfig()
	require.NoError(t, def.Validate())
	bounds := def.Bounds()
	require.Len(t, bounds, 4)
	assert.InDelta(t, 5, bounds[0], 1e-4)
	assert.Equal(t, float32(1000), bounds[3])
	for i := 1; i < len(bounds); i++ {
		assert.Greater(t, bounds[i], bounds[i-1])
	}

	assert.Error(t, CascadeConfig{Cascades: 0, MaxDistance: 1}.Validate())
	assert.Error(t, CascadeConfig{Cascades: 1}.Validate())
	assert.Error(t, CascadeConfig{Cascades: 2, FirstCascadeFarBound: 10, MaxDistance: 5}.Validate())
	assert.Error(t, CascadeConfig{Cascades: 1, MaxDistance: 5, Overlap: 1}.Validate())
	assert.Error(t, CascadeConfig{Cascades: MaxCascades + 1, FirstCascadeFarBound: 1, MaxDistance: 5}.Validate())
}

func TestBuildLightBuffer(t *testing.T) {
	lights := []Light{
		NewLight(LightTypePoint, WithIntensity(1500)),
		NewLight(LightTypeDirectional, WithColor(1, 0.5, 0)),
		NewLight(LightTypePoint, WithEnabled(false)),
	}
	buf := BuildLightBuffer(DefaultAmbientLight(), lights, ShadowView{})

	assert.Equal(t, uint32(2), buf.Header.LightCount)
	assert.InDelta(t, 0.1, buf.Header.AmbientColor[0], 1e-6)
	assert.Equal(t, uint32(LightTypeDirectional), buf.Lights[0].LightType)
	assert.InDeltaSlice(t, []float32{1, 0.5, 0}, buf.Lights[0].Color[:], 1e-6)
	assert.Equal(t, uint32(LightTypePoint), buf.Lights[1].LightType)
	assert.InDelta(t, 1500*PointScale, buf.Lights[1].Color[0], 1e-4)

	assert.Equal(t, 48, (&GPULight{}).Size())
	assert.Equal(t, 352, int(unsafe.Sizeof(GPUShadowData{})))
	assert.Equal(t, 16+48*MaxGPULights+352, buf.Size())
	assert.Len(t, buf.Marshal(), buf.Size())
}

func TestBuildLightBufferCapsSlots(t *testing.T) {
	var lights []Light
	for range MaxGPULights + 3 {
		lights = append(lights, NewLight(LightTypePoint))
	}
	lights = append(lights, NewLight(LightTypeDirectional))

	buf := BuildLightBuffer(AmbientLight{}, lights, ShadowView{})
	assert.Equal(t, uint32(MaxGPULights), buf.Header.LightCount)
	assert.Equal(t, uint32(LightTypeDirectional), buf.Lights[0].LightType)
}

func testShadowView() ShadowView {
	eye, target := mgl32.Vec3{0, 5, 10}, mgl32.Vec3{0, 0, 0}
	view := mgl32.LookAtV(eye, target, mgl32.Vec3{0, 1, 0})
	proj := common.PerspectiveZO(mgl32.DegToRad(60), 16.0/9, 0.1, 100)
	return ShadowView{
		ViewProj: proj.Mul4(view),
		Forward:  target.Sub(eye).Normalize(),
		Near:     0.1,
		Far:      100,
	}
}

func TestFitCascades(t *testing.T) {
	view := testShadowView()
	cfg := CascadeConfig{Cascades: 3, FirstCascadeFarBound: 5, MaxDistance: 50, Overlap: 0.2}
	dir := mgl32.Vec3{1, -2, -1}.Normalize()

	cascades := FitCascades(dir, view, cfg, ShadowMapResolution)
	require.Len(t, cascades, 3)
	for i, bound := range cfg.Bounds() {
		assert.InDelta(t, bound, cascades[i].Far, 1e-4)
		if i > 0 {
			assert.Greater(t, cascades[i].TexelSize, cascades[i-1].TexelSize)
		}
	}

	// a point on the view axis inside the first slice lands inside its map
	p := mgl32.Vec3{0, 5, 10}.Add(view.Forward.Mul(3))
	ndc := mgl32.TransformCoordinate(p, cascades[0].ViewProj)
	assert.True(t, ndc.X() >= -1 && ndc.X() <= 1, "x %v", ndc.X())
	assert.True(t, ndc.Y() >= -1 && ndc.Y() <= 1, "y %v", ndc.Y())
	assert.True(t, ndc.Z() >= 0 && ndc.Z() <= 1, "z %v", ndc.Z())

	// the world origin sits on a texel corner
	half := float32(ShadowMapResolution) / 2
	origin := mgl32.TransformCoordinate(mgl32.Vec3{}, cascades[0].ViewProj)
	assert.InDelta(t, math32.Round(origin.X()*half), origin.X()*half, 1e-2)
	assert.InDelta(t, math32.Round(origin.Y()*half), origin.Y()*half, 1e-2)

	assert.Nil(t, FitCascades(dir, ShadowView{}, cfg, ShadowMapResolution))
	assert.Len(t, FitCascades(mgl32.Vec3{0, -1, 0}, view, cfg, ShadowMapResolution), 3, "straight-down light uses another up axis")
}

func TestPointShadowFaces(t *testing.T) {
	pos := mgl32.Vec3{1, 2, 3}
	const far = 10
	faces := PointShadowFaces(pos, far)

	cases := []struct {
		name   string
		layer  int
		offset mgl32.Vec3
		ndcX   float32
		ndcY   float32
		major  float32
	}{
		{"+X", 0, mgl32.Vec3{3, 1, -0.5}, 0.5 / 3, 1.0 / 3, 3},
		{"-Y", 3, mgl32.Vec3{0.2, -2, 0.3}, 0.1, 0.15, 2},
		{"-Z", 5, mgl32.Vec3{0.4, -1, -4}, -0.1, -0.25, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ndc := mgl32.TransformCoordinate(pos.Add(tc.offset), faces[tc.layer])
			assert.InDelta(t, tc.ndcX, ndc.X(), 1e-5)
			assert.InDelta(t, tc.ndcY, ndc.Y(), 1e-5)
			assert.InDelta(t, PointShadowDepth(tc.major, far), ndc.Z(), 1e-5)
		})
	}

	assert.InDelta(t, 0, PointShadowDepth(PointShadowNear, far), 1e-6)
	assert.InDelta(t, 1, PointShadowDepth(far, far), 1e-6)
}

func TestBuildLightBufferShadows(t *testing.T) {
	lights := []Light{
		NewLight(LightTypeDirectional, WithCastsShadows(true)),
		NewLight(LightTypeDirectional, WithCastsShadows(true)),
		NewLight(LightTypePoint, WithPosition(0, 3, 0), WithRange(12), WithCastsShadows(true)),
		NewLight(LightTypePoint, WithCastsShadows(true)),
	}
	view := testShadowView()

	buf := BuildLightBuffer(AmbientLight{}, lights, view)
	require.Equal(t, uint32(4), buf.Header.LightCount)
	assert.Equal(t, []uint32{1, 0, 1, 0}, []uint32{
		buf.Lights[0].Shadows, buf.Lights[1].Shadows, buf.Lights[2].Shadows, buf.Lights[3].Shadows,
	}, "only the first shadow caster of each type gets a map")
	assert.True(t, buf.HasShadows())
	assert.Equal(t, uint32(MaxCascades), buf.Shadow.CascadeCount)
	assert.Equal(t, float32(12), buf.Shadow.PointFar)
	assert.Equal(t, [3]float32{0, 3, 0}, buf.Shadow.PointPosition)
	assert.InDeltaSlice(t, view.Forward[:], buf.Shadow.ViewForward[:], 1e-6)
	for i := range MaxCascades {
		assert.Positive(t, buf.Shadow.NormalBias[i])
		assert.Positive(t, buf.Shadow.DepthBias[i])
	}

	passes := buf.ShadowPasses()
	require.Len(t, passes, MaxCascades+6)
	assert.Equal(t, ShadowPass{Map: ShadowMapSun, Layer: 0, ViewProj: buf.Shadow.Cascades[0]}, passes[0])
	assert.Equal(t, ShadowMapPoint, passes[MaxCascades].Map)
	assert.Equal(t, 5, passes[len(passes)-1].Layer)

	off := BuildLightBuffer(AmbientLight{}, lights, ShadowView{})
	assert.False(t, off.HasShadows())
	assert.Empty(t, off.ShadowPasses())
	for i := range 4 {
		assert.Zero(t, off.Lights[i].Shadows)
	}
}
