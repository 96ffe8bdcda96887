package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy3d/engine/renderer"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTickReportsAtInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	p := NewProfiler(WithInterval(time.Second), WithClock(clock.now))

	frame := renderer.FrameStats{Submitted: 10, DrawCalls: 8, Dispatches: 2, Unresolved: 1}
	for range 3 {
		clock.advance(250 * time.Millisecond)
		assert.False(t, p.Tick(frame))
	}
	assert.Equal(t, Report{}, p.Last())

	clock.advance(250 * time.Millisecond)
	assert.True(t, p.Tick(frame))
	r := p.Last()
	assert.Equal(t, 4.0, r.FPS)
	assert.Equal(t, 10.0, r.DrawsPerFrame)
	assert.Equal(t, 10.0, r.CmdsPerFrame)
	assert.Equal(t, 4, r.Unresolved)
	assert.Greater(t, r.HeapMB, 0.0)

	clock.advance(100 * time.Millisecond)
	assert.False(t, p.Tick(renderer.FrameStats{}))
}

func TestIntervalDefaultsAndIgnoresInvalid(t *testing.T) {
	p := NewProfiler(WithInterval(-time.Second), WithClock(nil))
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.now)
}
