package wgpu_backend

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy3d/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// uniformAlignment is the dynamic offset alignment WebGPU guarantees to accept.
const uniformAlignment = 256

// encodeParameters packs a parameter pack into one uniform block. Parameters are laid out in
// name order, each starting on a 16-byte boundary; vec3 values take 16 bytes. Booleans and
// integers are written as 32-bit values.
//
// Parameters:
//   - dst: the buffer to append to
//   - p: the parameters to encode
//
// Returns:
//   - []byte: dst with the block appended
//   - error: when a value has no uniform representation
func encodeParameters(dst []byte, p renderer.ParameterPack) ([]byte, error) {
	for _, param := range p.Parameters() {
		for len(dst)%16 != 0 {
			dst = append(dst, 0)
		}
		var err error
		dst, err = appendValue(dst, param.Value)
		if err != nil {
			return dst, fmt.Errorf("parameter %q: %w", param.Name, err)
		}
	}
	return dst, nil
}

func appendFloats(dst []byte, fs ...float32) []byte {
	for _, f := range fs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

func appendValue(dst []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case float32:
		return appendFloats(dst, t), nil
	case float64:
		return appendFloats(dst, float32(t)), nil
	case int:
		return binary.LittleEndian.AppendUint32(dst, uint32(int32(t))), nil
	case int32:
		return binary.LittleEndian.AppendUint32(dst, uint32(t)), nil
	case uint32:
		return binary.LittleEndian.AppendUint32(dst, t), nil
	case bool:
		var b uint32
		if t {
			b = 1
		}
		return binary.LittleEndian.AppendUint32(dst, b), nil
	case mgl32.Vec2:
		return appendFloats(dst, t[:]...), nil
	case mgl32.Vec3:
		return appendFloats(dst, t[0], t[1], t[2], 0), nil
	case mgl32.Vec4:
		return appendFloats(dst, t[:]...), nil
	case [4]float32:
		return appendFloats(dst, t[:]...), nil
	case mgl32.Mat3:
		// mat3x3 columns are padded to vec4.
		return appendFloats(dst, t[0], t[1], t[2], 0, t[3], t[4], t[5], 0, t[6], t[7], t[8], 0), nil
	case mgl32.Mat4:
		return appendFloats(dst, t[:]...), nil
	case []float32:
		return appendFloats(dst, t...), nil
	}
	return dst, fmt.Errorf("unsupported uniform type %T", v)
}

// alignUp rounds n up to a multiple of uniformAlignment.
func alignUp(n int) int {
	return (n + uniformAlignment - 1) / uniformAlignment * uniformAlignment
}
