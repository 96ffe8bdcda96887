package renderer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsBuiltTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oxy3d_renderer_commands_built_total",
		Help: "Total number of render commands produced by the command builder",
	})

	commandsSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oxy3d_renderer_commands_submitted_total",
		Help: "Total number of render commands issued to the graphics context, by command type",
	}, []string{"type"})

	commandsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oxy3d_renderer_commands_skipped_total",
		Help: "Total number of render commands skipped at submission, by reason",
	}, []string{"reason"})

	stateChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oxy3d_renderer_state_changes_total",
		Help: "Total number of program, vertex array and state toggle changes issued",
	})

	entitiesCulledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "oxy3d_renderer_entities_culled_total",
		Help: "Total number of entities rejected by frustum culling",
	})

	frameCommandsHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "oxy3d_renderer_frame_commands",
		Help:    "Number of render commands submitted per frame",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
)

const (
	skipInvalid    = "invalid"
	skipUnresolved = "unresolved"
)

// recordFrame exports the counters of one submitted frame.
func recordFrame(stats FrameStats) {
	commandsSubmittedTotal.WithLabelValues(CommandDraw.String()).Add(float64(stats.DrawCalls))
	commandsSubmittedTotal.WithLabelValues(CommandCompute.String()).Add(float64(stats.Dispatches))
	commandsSkippedTotal.WithLabelValues(skipInvalid).Add(float64(stats.Invalid))
	commandsSkippedTotal.WithLabelValues(skipUnresolved).Add(float64(stats.Unresolved))
	stateChangesTotal.Add(float64(stats.ProgramBinds + stats.VertexArrayBinds + stats.StateChanges))
	frameCommandsHistogram.Observe(float64(stats.Submitted))
}

// recordBuild exports the counters of one command build.
func recordBuild(stats BuildStats) {
	commandsBuiltTotal.Add(float64(stats.Commands))
	entitiesCulledTotal.Add(float64(stats.Culled))
}
