package animation

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/backend"
	"github.com/Carmen-Shannon/oxy3d/engine/change"
)

// Node type names carried by NodeCreated records.
const (
	TypeClock          = "Clock"
	TypeAnimationClip  = "AnimationClip"
	TypeChannelMapping = "ChannelMapping"
	TypeChannelMapper  = "ChannelMapper"
	TypeClipAnimator   = "ClipAnimator"
)

// Clock scales the playback of the animators that reference it.
type Clock struct {
	backend.BaseNode
	playbackRate float64
}

var _ backend.Node = &Clock{}

func NewClock() *Clock {
	return &Clock{BaseNode: backend.NewBaseNode(backend.ReadOnly), playbackRate: 1}
}

func (c *Clock) SceneChangeEvent(r *change.Record) {
	backend.ApplyProperties(&c.BaseNode, r, func(name string, v any) {
		if name == "playbackRate" {
			if f, ok := backend.AsFloat64(v); ok {
				c.playbackRate = f
			}
		}
	})
}

func (c *Clock) Cleanup() {
	c.BaseNode.Cleanup()
	c.playbackRate = 1
}

// PlaybackRate returns the clock rate; 1 is real time.
func (c *Clock) PlaybackRate() float64 { return c.playbackRate }

// AnimationClip holds the keyframe data of one clip. When its data changes it reports the new
// duration back to the frontend.
type AnimationClip struct {
	backend.BaseNode
	data     ClipData
	duration float32
}

var _ backend.Node = &AnimationClip{}

func NewAnimationClip() *AnimationClip {
	return &AnimationClip{BaseNode: backend.NewBaseNode(backend.ReadWrite)}
}

func (c *AnimationClip) SceneChangeEvent(r *change.Record) {
	backend.ApplyProperties(&c.BaseNode, r, func(name string, v any) {
		if name != "clipData" {
			return
		}
		var data ClipData
		switch x := v.(type) {
		case ClipData:
			data = x
		case *ClipData:
			if x != nil {
				data = *x
			}
		default:
			return
		}
		if err := data.Validate(); err != nil {
			common.Logger().Warn("animation: rejected clip data", "clip", c.PeerID(), "error", err)
			return
		}
		c.data = data
		if d := data.Duration(); d != c.duration {
			c.duration = d
			c.NotifyObservers(-1, change.NewBackendPropertyChange(c.PeerID(), "duration", d))
		}
	})
}

func (c *AnimationClip) Cleanup() {
	c.BaseNode.Cleanup()
	c.data = ClipData{}
	c.duration = 0
}

// Data returns the clip's channels.
func (c *AnimationClip) Data() ClipData { return c.data }

// Duration returns the time of the clip's last keyframe.
func (c *AnimationClip) Duration() float32 { return c.duration }

// ValueType is the type a channel mapping assembles from its channel's components.
type ValueType uint8

const (
	ValueFloat ValueType = iota
	ValueVector2
	ValueVector3
	ValueVector4
	ValueQuaternion
)

var valueTypeNames = [...]string{"Float", "Vector2", "Vector3", "Vector4", "Quaternion"}

func (t ValueType) String() string {
	if int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	return fmt.Sprintf("ValueType(%d)", t)
}

// Components returns the number of scalar components the type consumes.
func (t ValueType) Components() int {
	switch t {
	case ValueVector2:
		return 2
	case ValueVector3:
		return 3
	case ValueVector4, ValueQuaternion:
		return 4
	}
	return 1
}

// ParseValueType returns the ValueType named name, as printed by String.
func ParseValueType(name string) (ValueType, error) {
	for i, n := range valueTypeNames {
		if n == name {
			return ValueType(i), nil
		}
	}
	return 0, fmt.Errorf("animation: unknown value type %q", name)
}

// ChannelMapping routes one clip channel to a property of a target node.
type ChannelMapping struct {
	backend.BaseNode
	channelName  string
	target       common.NodeID
	propertyName string
	valueType    ValueType
}

var _ backend.Node = &ChannelMapping{}

func NewChannelMapping() *ChannelMapping {
	return &ChannelMapping{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (m *ChannelMapping) SceneChangeEvent(r *change.Record) {
	backend.ApplyProperties(&m.BaseNode, r, func(name string, v any) {
		switch name {
		case "channelName":
			m.channelName, _ = backend.AsString(v)
		case "target":
			m.target, _ = backend.AsNodeID(v)
		case "property":
			m.propertyName, _ = backend.AsString(v)
		case "type":
			switch t := v.(type) {
			case ValueType:
				m.valueType = t
			case string:
				if parsed, err := ParseValueType(t); err == nil {
					m.valueType = parsed
				}
			}
		}
	})
}

func (m *ChannelMapping) Cleanup() {
	m.BaseNode.Cleanup()
	*m = ChannelMapping{BaseNode: m.BaseNode}
}

func (m *ChannelMapping) ChannelName() string   { return m.channelName }
func (m *ChannelMapping) Target() common.NodeID { return m.target }
func (m *ChannelMapping) PropertyName() string  { return m.propertyName }
func (m *ChannelMapping) ValueType() ValueType  { return m.valueType }

// ChannelMapper is an ordered list of channel mappings.
type ChannelMapper struct {
	backend.BaseNode
	mappings []common.NodeID
}

var _ backend.Node = &ChannelMapper{}

func NewChannelMapper() *ChannelMapper {
	return &ChannelMapper{BaseNode: backend.NewBaseNode(backend.ReadOnly)}
}

func (m *ChannelMapper) SceneChangeEvent(r *change.Record) {
	if backend.ApplyProperties(&m.BaseNode, r, func(name string, v any) {
		if ids, ok := backend.AsNodeIDs(v); ok && name == "mappings" {
			m.mappings = slices.Clone(ids)
		}
	}) {
		return
	}
	if r.PropertyName() != "mappings" {
		return
	}
	id, ok := r.ReferencedID()
	if !ok {
		return
	}
	switch r.Kind() {
	case change.NodeAdded:
		if !slices.Contains(m.mappings, id) {
			m.mappings = append(m.mappings, id)
		}
	case change.NodeRemoved:
		if i := slices.Index(m.mappings, id); i >= 0 {
			m.mappings = slices.Delete(m.mappings, i, i+1)
		}
	}
}

func (m *ChannelMapper) Cleanup() {
	m.BaseNode.Cleanup()
	m.mappings = nil
}

// Mappings returns the mapping ids in order.
func (m *ChannelMapper) Mappings() []common.NodeID { return m.mappings }

// ClipAnimator plays one clip through one mapper. While running it sends the animated values
// to the mapped targets each frame, along with its own normalizedTime, and reports running
// false once the last loop ends.
type ClipAnimator struct {
	backend.BaseNode
	clip   common.NodeID
	mapper common.NodeID
	clock  common.NodeID
	loops  int

	running        bool
	pendingStart   bool
	startTime      float64
	currentLoop    int
	normalizedTime float64
	values         []float32
}

var _ backend.Node = &ClipAnimator{}

func NewClipAnimator() *ClipAnimator {
	return &ClipAnimator{BaseNode: backend.NewBaseNode(backend.ReadWrite), loops: 1}
}

func (a *ClipAnimator) SceneChangeEvent(r *change.Record) {
	backend.ApplyProperties(&a.BaseNode, r, func(name string, v any) {
		switch name {
		case "clip":
			a.clip, _ = backend.AsNodeID(v)
		case "channelMapper":
			a.mapper, _ = backend.AsNodeID(v)
		case "clock":
			a.clock, _ = backend.AsNodeID(v)
		case "loops":
			if n, ok := backend.AsInt(v); ok && n >= 0 {
				a.loops = n
			}
		case "running":
			if run, ok := backend.AsBool(v); ok {
				a.setRunning(run)
			}
		}
	})
}

func (a *ClipAnimator) setRunning(run bool) {
	if run && !a.running {
		a.pendingStart = true
		a.currentLoop = 0
	}
	a.running = run
}

func (a *ClipAnimator) Cleanup() {
	a.BaseNode.Cleanup()
	*a = ClipAnimator{BaseNode: a.BaseNode, loops: 1}
}

func (a *ClipAnimator) Clip() common.NodeID          { return a.clip }
func (a *ClipAnimator) ChannelMapper() common.NodeID { return a.mapper }
func (a *ClipAnimator) Clock() common.NodeID         { return a.clock }
func (a *ClipAnimator) Loops() int                   { return a.loops }
func (a *ClipAnimator) IsRunning() bool              { return a.running }
func (a *ClipAnimator) CurrentLoop() int             { return a.currentLoop }
func (a *ClipAnimator) NormalizedTime() float64      { return a.normalizedTime }
