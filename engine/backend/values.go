package backend

import (
	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Property values arrive as whatever the frontend stored, so numeric reads accept any of
// the built-in numeric types.

// AsInt converts any built-in numeric value to int.
func AsInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int8:
		return int(x), true
	case int16:
		return int(x), true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint:
		return int(x), true
	case uint8:
		return int(x), true
	case uint16:
		return int(x), true
	case uint32:
		return int(x), true
	case uint64:
		return int(x), true
	case float32:
		return int(x), true
	case float64:
		return int(x), true
	}
	return 0, false
}

// AsUint32 converts a non-negative numeric value to uint32.
func AsUint32(v any) (uint32, bool) {
	i, ok := AsInt(v)
	if !ok || i < 0 {
		return 0, false
	}
	return uint32(i), true
}

// AsFloat32 converts any built-in numeric value to float32.
func AsFloat32(v any) (float32, bool) {
	switch x := v.(type) {
	case float32:
		return x, true
	case float64:
		return float32(x), true
	}
	if i, ok := AsInt(v); ok {
		return float32(i), true
	}
	return 0, false
}

// AsFloat64 converts any built-in numeric value to float64.
func AsFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	if i, ok := AsInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func AsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func AsNodeID(v any) (common.NodeID, bool) {
	id, ok := v.(common.NodeID)
	return id, ok
}

func AsNodeIDs(v any) ([]common.NodeID, bool) {
	ids, ok := v.([]common.NodeID)
	return ids, ok
}

// AsVec3 accepts an mgl32.Vec3 or a [3]float32.
func AsVec3(v any) (mgl32.Vec3, bool) {
	switch x := v.(type) {
	case mgl32.Vec3:
		return x, true
	case [3]float32:
		return mgl32.Vec3(x), true
	}
	return mgl32.Vec3{}, false
}

// AsMat4 accepts an mgl32.Mat4 or a column-major [16]float32.
func AsMat4(v any) (mgl32.Mat4, bool) {
	switch x := v.(type) {
	case mgl32.Mat4:
		return x, true
	case [16]float32:
		return mgl32.Mat4(x), true
	}
	return mgl32.Mat4{}, false
}
