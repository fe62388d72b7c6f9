package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const tol = 1e-5

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.InDelta(t, want.X(), got.X(), tol, "x")
	assert.InDelta(t, want.Y(), got.Y(), tol, "y")
	assert.InDelta(t, want.Z(), got.Z(), tol, "z")
}

func TestQuatFromYawPitchAxes(t *testing.T) {
	// identity looks down -Z
	assertVec3(t, mgl32.Vec3{0, 0, -1}, QuatFromYawPitch(0, 0).Rotate(mgl32.Vec3{0, 0, -1}))

	// positive yaw turns left, towards -X
	assertVec3(t, mgl32.Vec3{-1, 0, 0}, QuatFromYawPitch(math.Pi/2, 0).Rotate(mgl32.Vec3{0, 0, -1}))

	// positive pitch looks up
	f := QuatFromYawPitch(0, math.Pi/4).Rotate(mgl32.Vec3{0, 0, -1})
	assert.Greater(t, f.Y(), float32(0))
	assert.InDelta(t, 0, f.X(), tol)

	// right axis never tilts with pitch
	r := QuatFromYawPitch(0.7, 1.2).Rotate(mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, 0, r.Y(), tol)
}

func TestYawPitchRoundTrip(t *testing.T) {
	cases := []struct {
		name       string
		yaw, pitch float32
	}{
		{"identity", 0, 0},
		{"yaw only", 1.1, 0},
		{"negative yaw", -2.5, 0.3},
		{"pitch down", 0.4, -1.3},
		{"near pole", -0.8, MaxPitch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := QuatFromYawPitch(tc.yaw, tc.pitch)
			yaw, pitch := YawPitchFromQuat(q)
			assert.InDelta(t, tc.yaw, yaw, 1e-4)
			assert.InDelta(t, tc.pitch, pitch, 1e-4)
			assert.True(t, q.ApproxEqualThreshold(QuatFromYawPitch(yaw, pitch), 1e-4))
		})
	}
}

func TestYawPitchFromQuatStraightDown(t *testing.T) {
	q := QuatFromYawPitch(0.6, -math.Pi/2)
	yaw, pitch := YawPitchFromQuat(q)
	assert.InDelta(t, 0.6, yaw, 1e-3)
	assert.InDelta(t, -math.Pi/2, pitch, 1e-3)
}

func TestYawPitchFromQuatDiscardsRoll(t *testing.T) {
	q := QuatFromYawPitch(0.5, 0.2).Mul(mgl32.QuatRotate(0.9, mgl32.Vec3{0, 0, 1}))
	yaw, pitch := YawPitchFromQuat(q)
	assert.InDelta(t, 0.5, yaw, 1e-4)
	assert.InDelta(t, 0.2, pitch, 1e-4)
}

func TestClampPitch(t *testing.T) {
	assert.Equal(t, MaxPitch, ClampPitch(10))
	assert.Equal(t, -MaxPitch, ClampPitch(-10))
	assert.Equal(t, float32(0.25), ClampPitch(0.25))
	assert.Equal(t, float32(0), ClampPitch(float32(math.NaN())))
	assert.Less(t, MaxPitch, float32(math.Pi/2))
}

func TestDampingFactor(t *testing.T) {
	assert.Equal(t, float32(0), DampingFactor(10, 0))
	assert.Equal(t, float32(0), DampingFactor(10, -1))
	assert.Equal(t, float32(0), DampingFactor(0, 1))
	assert.Equal(t, float32(0), DampingFactor(10, float32(math.NaN())))
	assert.Equal(t, float32(0), DampingFactor(10, float32(math.Inf(1))))

	a := DampingFactor(10, 1.0/60)
	assert.InDelta(t, 1-math.Exp(-10.0/60), a, 1e-6)

	// two half steps compose to one full step
	h := DampingFactor(10, 1.0/120)
	assert.InDelta(t, a, 1-(1-h)*(1-h), 1e-6)

	assert.InDelta(t, 1, DampingFactor(1e9, 1), 1e-6)
}

func TestQuatFromEulerZYX(t *testing.T) {
	q := QuatFromEulerZYX(0, 0, -math.Pi/4)
	d := q.Rotate(mgl32.Vec3{0, 0, -1})
	assert.InDelta(t, -math.Sqrt2/2, d.Y(), tol)
	assert.InDelta(t, -math.Sqrt2/2, d.Z(), tol)
}

func TestTransformLookingAt(t *testing.T) {
	tr := NewTransform(0, 5, 10).LookingAt(mgl32.Vec3{})
	want := mgl32.Vec3{0, -5, -10}.Normalize()
	assertVec3(t, want, tr.Forward())
	assert.InDelta(t, 0, tr.Right().Y(), tol)
	assert.True(t, tr.IsFinite())

	same := NewTransform(1, 1, 1)
	assert.Equal(t, same, same.LookingAt(mgl32.Vec3{1, 1, 1}))
}

func TestTransformIsFinite(t *testing.T) {
	tr := NewTransform(0, 0, 0)
	assert.True(t, tr.IsFinite())
	tr.Position[1] = float32(math.Inf(-1))
	assert.False(t, tr.IsFinite())
	tr = NewTransform(0, 0, 0)
	tr.Rotation.W = float32(math.NaN())
	assert.False(t, tr.IsFinite())
}

func TestFrustumIntersectsSphere(t *testing.T) {
	view := NewTransform(0, 0, 0).Matrix().Inv()
	proj := PerspectiveZO(mgl32.DegToRad(60), 1, 0.1, 100)
	f := ExtractFrustum(proj.Mul4(view))

	assert.True(t, f.IntersectsSphere(mgl32.Vec3{0, 0, -10}, 1))
	assert.False(t, f.IntersectsSphere(mgl32.Vec3{0, 0, 10}, 1))
	assert.False(t, f.IntersectsSphere(mgl32.Vec3{0, 0, -500}, 1))
	assert.True(t, f.IntersectsSphere(mgl32.Vec3{0, 0, 0.5}, 1))
}

func TestOrthoZODepthRange(t *testing.T) {
	proj := OrthoZO(-2, 2, -1, 1, 1, 11)

	near := proj.Mul4x1(mgl32.Vec4{2, 1, -1, 1})
	far := proj.Mul4x1(mgl32.Vec4{-2, -1, -11, 1})
	assert.InDeltaSlice(t, []float32{1, 1, 0, 1}, near[:], 1e-6)
	assert.InDeltaSlice(t, []float32{-1, -1, 1, 1}, far[:], 1e-6)
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("w")
	assert.NoError(t, err)
	assert.Equal(t, KeyW, k)

	k, err = ParseKey("Left_Shift")
	assert.NoError(t, err)
	assert.Equal(t, KeyLeftShift, k)

	k, err = ParseKey("7")
	assert.NoError(t, err)
	assert.Equal(t, Key7, k)

	_, err = ParseKey("hyper")
	assert.Error(t, err)

	b, err := ParseMouseButton("Right")
	assert.NoError(t, err)
	assert.Equal(t, MouseButtonRight, b)
	_, err = ParseMouseButton("fourth")
	assert.Error(t, err)
}

func TestKeyNamesRoundTrip(t *testing.T) {
	for _, k := range []Key{KeyW, Key7, KeyLeftShift, KeyEsc, KeyUnbound} {
		got, err := ParseKey(k.String())
		assert.NoError(t, err, k.String())
		assert.Equal(t, k, got)
	}
	assert.Equal(t, "key(999)", Key(999).String())

	for _, b := range []MouseButton{MouseButtonLeft, MouseButtonRight, MouseButtonMiddle} {
		got, err := ParseMouseButton(b.String())
		assert.NoError(t, err)
		assert.Equal(t, b, got)
	}
}
