package animation

import (
	"fmt"
	"sort"

	"github.com/tanema/gween/ease"
)

// Keyframe is one key of a channel component. Easing shapes the segment from this key to the
// next one; nil means linear.
type Keyframe struct {
	Time   float32
	Value  float32
	Easing ease.TweenFunc
}

// ChannelComponent is one scalar track of a channel, such as the X of a location.
type ChannelComponent struct {
	Name      string
	Keyframes []Keyframe
}

// Evaluate samples the component at time t. Before the first key it holds the first value,
// after the last key the last value.
//
// Parameters:
//   - t: the local clip time
//
// Returns:
//   - float32: the sampled value, 0 for a component without keys
func (c ChannelComponent) Evaluate(t float32) float32 {
	kf := c.Keyframes
	if len(kf) == 0 {
		return 0
	}
	if t <= kf[0].Time {
		return kf[0].Value
	}
	last := kf[len(kf)-1]
	if t >= last.Time {
		return last.Value
	}
	i := sort.Search(len(kf), func(i int) bool { return kf[i].Time > t })
	a, b := kf[i-1], kf[i]
	span := b.Time - a.Time
	if span <= 0 {
		return b.Value
	}
	fn := a.Easing
	if fn == nil {
		fn = ease.Linear
	}
	return fn(t-a.Time, a.Value, b.Value-a.Value, span)
}

func (c ChannelComponent) duration() float32 {
	if len(c.Keyframes) == 0 {
		return 0
	}
	return c.Keyframes[len(c.Keyframes)-1].Time
}

// Channel groups the components animating one named value, for example "Location" with X, Y
// and Z components.
type Channel struct {
	Name       string
	Components []ChannelComponent
}

// ClipData is the in-memory content of an animation clip. Components of all channels are
// laid out back to back, in channel order, when the clip is evaluated.
type ClipData struct {
	Name     string
	Channels []Channel
}

// Duration returns the time of the latest keyframe across all channels.
func (d ClipData) Duration() float32 {
	var out float32
	for _, ch := range d.Channels {
		for _, c := range ch.Components {
			out = max(out, c.duration())
		}
	}
	return out
}

// ComponentCount returns the number of components across all channels.
func (d ClipData) ComponentCount() int {
	n := 0
	for _, ch := range d.Channels {
		n += len(ch.Components)
	}
	return n
}

// ChannelComponentIndices returns the positions of the named channel's components in the
// evaluated layout.
//
// Parameters:
//   - name: the channel name
//
// Returns:
//   - []int: the component indices, in component order
//   - bool: false if the clip has no such channel
func (d ClipData) ChannelComponentIndices(name string) ([]int, bool) {
	base := 0
	for _, ch := range d.Channels {
		if ch.Name == name {
			out := make([]int, len(ch.Components))
			for i := range out {
				out[i] = base + i
			}
			return out, true
		}
		base += len(ch.Components)
	}
	return nil, false
}

// Evaluate samples every component at time t into dst, which is grown as needed.
//
// Parameters:
//   - t: the local clip time
//   - dst: a reusable buffer
//
// Returns:
//   - []float32: one value per component
func (d ClipData) Evaluate(t float32, dst []float32) []float32 {
	dst = dst[:0]
	for _, ch := range d.Channels {
		for _, c := range ch.Components {
			dst = append(dst, c.Evaluate(t))
		}
	}
	return dst
}

// Validate checks that every component's keyframes are in non-decreasing time order.
func (d ClipData) Validate() error {
	for _, ch := range d.Channels {
		for _, c := range ch.Components {
			for i := 1; i < len(c.Keyframes); i++ {
				if c.Keyframes[i].Time < c.Keyframes[i-1].Time {
					return fmt.Errorf("animation: channel %q component %q: keyframe %d is out of order", ch.Name, c.Name, i)
				}
			}
		}
	}
	return nil
}

var easings = map[string]ease.TweenFunc{
	"Linear":       ease.Linear,
	"InQuad":       ease.InQuad,
	"OutQuad":      ease.OutQuad,
	"InOutQuad":    ease.InOutQuad,
	"InCubic":      ease.InCubic,
	"OutCubic":     ease.OutCubic,
	"InOutCubic":   ease.InOutCubic,
	"InSine":       ease.InSine,
	"OutSine":      ease.OutSine,
	"InOutSine":    ease.InOutSine,
	"InExpo":       ease.InExpo,
	"OutExpo":      ease.OutExpo,
	"InOutExpo":    ease.InOutExpo,
	"InBounce":     ease.InBounce,
	"OutBounce":    ease.OutBounce,
	"InOutBounce":  ease.InOutBounce,
	"InBack":       ease.InBack,
	"OutBack":      ease.OutBack,
	"InOutBack":    ease.InOutBack,
	"InElastic":    ease.InElastic,
	"OutElastic":   ease.OutElastic,
	"InOutElastic": ease.InOutElastic,
}

// ParseEasing returns the easing function with the given name, such as "InOutCubic".
// The empty name is linear.
func ParseEasing(name string) (ease.TweenFunc, error) {
	if name == "" {
		return ease.Linear, nil
	}
	fn, ok := easings[name]
	if !ok {
		return nil, fmt.Errorf("animation: unknown easing %q", name)
	}
	return fn, nil
}
