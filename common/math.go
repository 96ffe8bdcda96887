package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BuildModelMatrix composes a model matrix from translation, Euler rotation (radians, applied
// X then Y then Z) and scale. The result is column-major, matching mgl32.
//
// Parameters:
//   - pos: translation
//   - rot: rotation angles in radians around X, Y and Z
//   - scale: per-axis scale
//
// Returns:
//   - mgl32.Mat4: T * Rz * Ry * Rx * S
func BuildModelMatrix(pos, rot, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(pos.X(), pos.Y(), pos.Z())
	r := mgl32.HomogRotate3DZ(rot.Z()).Mul4(mgl32.HomogRotate3DY(rot.Y())).Mul4(mgl32.HomogRotate3DX(rot.X()))
	s := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())
	return t.Mul4(r).Mul4(s)
}

// TransformPoint applies m to the point p (w = 1) and returns the resulting position.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// MaxAxisScale returns the largest scale factor encoded in the upper 3x3 of m.
// Used to grow a bounding sphere radius along with its transform.
func MaxAxisScale(m mgl32.Mat4) float32 {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	return max(sx, sy, sz)
}

// ViewSpaceDepth returns the distance of p in front of the camera described by view.
// The camera looks down -Z, so the depth is the negated view-space Z.
//
// Parameters:
//   - view: the world-to-view matrix
//   - p: world-space position
//
// Returns:
//   - float32: positive for points in front of the camera
func ViewSpaceDepth(view mgl32.Mat4, p mgl32.Vec3) float32 {
	return -TransformPoint(view, p).Z()
}

// QuantizeDepth maps depth in [near, far] linearly onto [0, 2^bits-1]. Values outside the
// range saturate and NaN maps to 0.
func QuantizeDepth(depth, near, far float32, bits uint) uint64 {
	maxValue := uint64(1)<<bits - 1
	if far <= near || math.IsNaN(float64(depth)) {
		return 0
	}
	n := Clamp((depth-near)/(far-near), 0, 1)
	return uint64(float64(n) * float64(maxValue))
}
