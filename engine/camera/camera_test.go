package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func project(vp mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	clip := vp.Mul4x1(p.Vec4(1))
	return clip.Vec3().Mul(1 / clip.W())
}

func TestCameraLookAtCentersTarget(t *testing.T) {
	c := NewCamera(WithLookAt(mgl32.Vec3{0, 5, 10}, mgl32.Vec3{}), WithAspect(16.0/9.0))

	ndc := project(c.ViewProjectionMatrix(), mgl32.Vec3{})
	assert.InDelta(t, 0, ndc.X(), 1e-5)
	assert.InDelta(t, 0, ndc.Y(), 1e-5)
	assert.Greater(t, ndc.Z(), float32(0))
	assert.Less(t, ndc.Z(), float32(1))

	f := c.Frustum()
	assert.True(t, f.IntersectsSphere(mgl32.Vec3{}, 0.5))
	assert.False(t, f.IntersectsSphere(mgl32.Vec3{0, 10, 30}, 0.5))
}

func TestCameraSetTransformUpdatesMatrices(t *testing.T) {
	c := NewCamera()
	before := c.ViewProjectionMatrix()

	tr := common.NewTransform(3, 0, 0)
	c.SetTransform(tr)

	assert.NotEqual(t, before, c.ViewProjectionMatrix())
	assert.Equal(t, tr, c.Transform())

	// a point straight ahead of the new position stays centered
	ndc := project(c.ViewProjectionMatrix(), mgl32.Vec3{3, 0, -5})
	assert.InDelta(t, 0, ndc.X(), 1e-5)

	u := c.Uniform()
	assert.Equal(t, 80, u.Size())
	assert.Len(t, u.Marshal(), 80)
	assert.Equal(t, mgl32.Vec3{3, 0, 0}, u.CameraPosition)
}

func TestCameraViewIgnoresScale(t *testing.T) {
	tr := common.NewTransform(0, 0, 0)
	tr.Scale = mgl32.Vec3{4, 4, 4}
	c := NewCamera(WithTransform(tr))
	assert.True(t, c.ViewMatrix().ApproxEqual(mgl32.Ident4()))
}

func TestCameraControllerAttachment(t *testing.T) {
	cc := NewCameraController()
	c := NewCamera(WithController(cc))
	assert.Same(t, cc, c.Controller())

	c.SetController(nil)
	assert.Nil(t, c.Controller())
}
