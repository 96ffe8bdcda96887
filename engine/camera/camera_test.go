package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()

	assert.Equal(t, mgl32.Vec3{0, 0, 5}, c.Eye())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, c.Up())
	assert.InDelta(t, math.Pi/4, c.Fov(), 1e-6)
	assert.InDelta(t, 0.1, c.Near(), 1e-6)
	assert.InDelta(t, 100, c.Far(), 1e-6)
	assert.InDelta(t, 5, c.Depth(mgl32.Vec3{}), 1e-5)
}

func TestCameraSettersRecomputeMatrices(t *testing.T) {
	c := NewCamera(WithEye(0, 0, 10), WithAspect(2))
	before := c.ViewProjectionMatrix()

	c.SetEye(mgl32.Vec3{0, 0, 20})
	assert.NotEqual(t, before, c.ViewProjectionMatrix())
	assert.InDelta(t, 20, c.Depth(mgl32.Vec3{}), 1e-4)
	assert.True(t, c.ProjectionMatrix().Mul4(c.ViewMatrix()).ApproxEqual(c.ViewProjectionMatrix()))

	c.SetFar(15)
	f := c.Frustum()
	assert.False(t, f.ContainsSphere(mgl32.Vec3{}, 1), "origin is now past the far plane")
}

func TestCameraFrustumCulling(t *testing.T) {
	c := NewCamera(WithEye(0, 0, 5), WithLookAt(0, 0, 0))
	f := c.Frustum()

	assert.True(t, f.ContainsSphere(mgl32.Vec3{}, 1))
	assert.False(t, f.ContainsSphere(mgl32.Vec3{100, 0, 0}, 1))
	assert.False(t, f.ContainsSphere(mgl32.Vec3{0, 0, 10}, 1), "behind the eye")
}

func assertVecNear(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "component %d of %v", i, got)
	}
}

func TestOrbitControllerDrivesCamera(t *testing.T) {
	oc := NewOrbitController(WithRadius(10), WithElevation(0), WithOrbitSpeed(1))
	c := NewCamera(WithController(oc))
	require.Same(t, oc, c.Controller())

	assertVecNear(t, mgl32.Vec3{0, 0, 10}, c.Eye())

	oc.Orbit(math.Pi/2, 0)
	c.Update()
	assertVecNear(t, mgl32.Vec3{10, 0, 0}, c.Eye())
	assert.InDelta(t, 10, c.Depth(mgl32.Vec3{}), 1e-4)

	oc.SetTarget(mgl32.Vec3{0, 2, 0})
	c.Update()
	assert.Equal(t, mgl32.Vec3{0, 2, 0}, c.Target())
}

func TestOrbitControllerClamps(t *testing.T) {
	oc := NewOrbitController(WithRadius(5), WithRadiusBounds(2, 8), WithElevationBounds(-0.5, 0.5))

	oc.Zoom(100)
	assert.InDelta(t, 2, oc.Radius(), 1e-6)
	oc.Zoom(-100)
	assert.InDelta(t, 8, oc.Radius(), 1e-6)

	oc.Orbit(0, 1000)
	assert.InDelta(t, 0.5, oc.Elevation(), 1e-6)
	oc.Orbit(0, -1000)
	assert.InDelta(t, -0.5, oc.Elevation(), 1e-6)
}

func TestUpdateWithoutControllerIsNoop(t *testing.T) {
	c := NewCamera(WithEye(1, 2, 3))
	c.Update()
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, c.Eye())
	assert.Nil(t, c.Controller())
}
