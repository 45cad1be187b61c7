package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline stages timed per member.
const (
	StageDirectory  = "directory"
	StageBuild      = "build"
	StageCheckpoint = "checkpoint"
)

var (
	registerOnce sync.Once

	runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ensemble",
			Subsystem: "setup",
			Name:      "runs_total",
			Help:      "Ensemble construction runs by outcome.",
		},
		[]string{"arch", "success"},
	)
	members = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ensemble",
			Subsystem: "setup",
			Name:      "members_total",
			Help:      "Ensemble members processed by outcome.",
		},
		[]string{"arch", "success"},
	)
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ensemble",
			Subsystem: "setup",
			Name:      "stage_duration_seconds",
			Help:      "Per-member pipeline stage duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"arch", "stage"},
	)
	checkpointBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ensemble",
			Subsystem: "checkpoint",
			Name:      "bytes_written_total",
			Help:      "Checkpoint bytes committed to disk.",
		},
		[]string{"arch"},
	)
	memberParams = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ensemble",
			Subsystem: "setup",
			Name:      "member_parameters",
			Help:      "Scalar values in one member's parameter state.",
		},
		[]string{"arch"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(runs, members, stageDuration, checkpointBytes, memberParams)
	})
}

func RecordRun(arch string, success bool) {
	RegisterMetrics()
	runs.WithLabelValues(arch, strconv.FormatBool(success)).Inc()
}

func RecordMember(arch string, params int, success bool) {
	RegisterMetrics()
	members.WithLabelValues(arch, strconv.FormatBool(success)).Inc()
	if success {
		memberParams.WithLabelValues(arch).Set(float64(params))
	}
}

func RecordStage(arch, stage string, duration time.Duration) {
	RegisterMetrics()
	stageDuration.WithLabelValues(arch, stage).Observe(duration.Seconds())
}

func RecordCheckpointBytes(arch string, n int64) {
	RegisterMetrics()
	checkpointBytes.WithLabelValues(arch).Add(float64(n))
}

// WriteTextfile dumps the default registry in text exposition format,
// for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
