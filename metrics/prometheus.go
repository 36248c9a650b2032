package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordingsFinalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipshot_recordings_finalized_total",
		Help: "Total number of finalize calls, by outcome (written, empty, failed)",
	}, []string{"outcome"})

	FramesIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipshot_frames_ingested_total",
		Help: "Total number of frames buffered by the recorder",
	})

	FramesEncodedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipshot_frames_encoded_total",
		Help: "Total number of frames written to recordings",
	})

	FramesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipshot_frames_dropped_total",
		Help: "Total number of frames dropped because they arrived during finalize",
	})

	SnapshotsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipshot_snapshots_written_total",
		Help: "Total number of snapshot images written",
	})

	ExtractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipshot_extractions_total",
		Help: "Total number of snapshot extractions, by outcome (completed, empty, unavailable, failed)",
	}, []string{"outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipshot_stage_duration_seconds",
		Help:    "Duration of pipeline stages",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clipshot_active_sessions",
		Help: "Number of record sessions currently capturing",
	})
)
