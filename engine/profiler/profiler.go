package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy3d/common"
	"github.com/Carmen-Shannon/oxy3d/engine/renderer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fpsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oxy3d_profiler_fps",
		Help: "Frames per second over the last profiler interval",
	})

	heapGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oxy3d_profiler_heap_bytes",
		Help: "Bytes of allocated heap objects at the last profiler interval",
	})

	drawCallsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oxy3d_profiler_draw_calls_per_frame",
		Help: "Average draw calls per frame over the last profiler interval",
	})
)

// Report is the summary of one profiler interval.
type Report struct {
	FPS           float64
	HeapMB        float64
	AllocRateMB   float64
	SysMB         float64
	GCCount       uint32
	LastPauseUs   uint64
	MaxPauseUs    uint64
	DrawsPerFrame float64
	CmdsPerFrame  float64
	Unresolved    int
}

// Profiler tracks frame rate, memory and render statistics for performance monitoring.
// Outputs a report to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	now            func() time.Time
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	drawCalls  int
	submitted  int
	unresolved int
	last       Report
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with the frame's submission statistics.
// Logs a report when the update interval has elapsed.
// The report includes FPS, heap usage, allocation rate, GC count/pause times, total memory
// and the average draw calls and commands per frame.
//
// Parameters:
//   - stats: the statistics of the frame just submitted
//
// Returns:
//   - bool: true if a report was logged this tick, false otherwise
func (p *Profiler) Tick(stats renderer.FrameStats) bool {
	p.frameCount++
	p.drawCalls += stats.DrawCalls + stats.Dispatches
	p.submitted += stats.Submitted
	p.unresolved += stats.Unresolved

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, TotalAlloc grows forever and tracks churn, Sys is the process footprint.
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	r := Report{
		FPS:           float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:        float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB:   float64(allocDelta) / 1024 / 1024 / elapsed.Seconds(),
		SysMB:         float64(p.memStats.Sys) / 1024 / 1024,
		GCCount:       p.memStats.NumGC,
		DrawsPerFrame: float64(p.drawCalls) / float64(p.frameCount),
		CmdsPerFrame:  float64(p.submitted) / float64(p.frameCount),
		Unresolved:    p.unresolved,
	}
	r.LastPauseUs, r.MaxPauseUs = p.pauses(r.GCCount)

	common.Logger().Info("[Profiler]",
		"fps", r.FPS,
		"heap_mb", r.HeapMB,
		"alloc_rate_mb_s", r.AllocRateMB,
		"gc", r.GCCount,
		"gc_last_us", r.LastPauseUs,
		"gc_max_us", r.MaxPauseUs,
		"sys_mb", r.SysMB,
		"draws_per_frame", r.DrawsPerFrame,
		"commands_per_frame", r.CmdsPerFrame,
		"unresolved", r.Unresolved)
	fpsGauge.Set(r.FPS)
	heapGauge.Set(float64(p.memStats.Alloc))
	drawCallsGauge.Set(r.DrawsPerFrame)

	p.last = r
	p.frameCount = 0
	p.drawCalls = 0
	p.submitted = 0
	p.unresolved = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// pauses returns the last GC pause and the longest pause since the previous report.
func (p *Profiler) pauses(gcCount uint32) (last, longest uint64) {
	if gcCount == 0 {
		return 0, 0
	}
	// PauseNs is a circular buffer of the last 256 GC pauses.
	last = p.memStats.PauseNs[(gcCount-1)%256] / 1000
	start := p.lastGCCount
	if gcCount-start > 256 {
		start = gcCount - 256
	}
	for i := start; i < gcCount; i++ {
		longest = max(longest, p.memStats.PauseNs[i%256]/1000)
	}
	return last, longest
}

// Last returns the most recent report; the zero Report before the first one.
func (p *Profiler) Last() Report { return p.last }
