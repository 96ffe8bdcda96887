package animation

import (
	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MappingData is a resolved channel mapping: which component values of an evaluated clip make
// up the value of one target property.
type MappingData struct {
	TargetID       common.NodeID
	PropertyName   string
	Type           ValueType
	ChannelIndices []int
}

// BuildPropertyMappings resolves mappings against the channel layout of clip. Mappings that
// are disabled, have no target or name a channel the clip lacks are skipped.
//
// Parameters:
//   - clip: the clip whose evaluated layout the indices address
//   - mappings: the mapper's mappings, in order
//
// Returns:
//   - []MappingData: one entry per usable mapping, in mapping order
func BuildPropertyMappings(clip ClipData, mappings []*ChannelMapping) []MappingData {
	out := make([]MappingData, 0, len(mappings))
	for _, m := range mappings {
		if m == nil || !m.IsEnabled() || m.target.IsNil() || m.propertyName == "" {
			continue
		}
		indices, ok := clip.ChannelComponentIndices(m.channelName)
		if !ok {
			common.Logger().Debug("animation: mapping names a channel missing from the clip",
				"mapping", m.PeerID(), "channel", m.channelName)
			continue
		}
		out = append(out, MappingData{
			TargetID:       m.target,
			PropertyName:   m.propertyName,
			Type:           m.valueType,
			ChannelIndices: indices,
		})
	}
	return out
}

// Value assembles the mapped property value from evaluated component values.
//
// Parameters:
//   - values: the output of ClipData.Evaluate
//
// Returns:
//   - any: a float32, mgl32.Vec2, mgl32.Vec3, mgl32.Vec4 or normalized mgl32.Quat
//   - bool: false if the channel has fewer components than the type needs
func (m MappingData) Value(values []float32) (any, bool) {
	n := m.Type.Components()
	if len(m.ChannelIndices) < n {
		return nil, false
	}
	var v [4]float32
	for i := range n {
		idx := m.ChannelIndices[i]
		if idx < 0 || idx >= len(values) {
			return nil, false
		}
		v[i] = values[idx]
	}

	switch m.Type {
	case ValueVector2:
		return mgl32.Vec2{v[0], v[1]}, true
	case ValueVector3:
		return mgl32.Vec3{v[0], v[1], v[2]}, true
	case ValueVector4:
		return mgl32.Vec4(v), true
	case ValueQuaternion:
		return mgl32.Quat{W: v[0], V: mgl32.Vec3{v[1], v[2], v[3]}}.Normalize(), true
	}
	return v[0], true
}
