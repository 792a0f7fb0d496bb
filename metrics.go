package sneer

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordBuild is called after each probability build.
	// rows is the number of calibrated rows, failed the number that missed
	// the tolerance, duration is the total time taken, err is nil on success.
	RecordBuild(rows, failed int, duration time.Duration, err error)

	// RecordStep is called after each optimization iteration.
	RecordStep(cost float64, accepted bool, duration time.Duration)

	// RecordCheckpoint is called after each checkpoint save.
	RecordCheckpoint(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordStep(float64, bool, time.Duration)    {}
func (NoopMetricsCollector) RecordCheckpoint(time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount       atomic.Int64
	BuildErrors      atomic.Int64
	BuildRows        atomic.Int64
	BuildFailedRows  atomic.Int64
	BuildTotalNanos  atomic.Int64
	StepCount        atomic.Int64
	StepAccepted     atomic.Int64
	StepRejected     atomic.Int64
	StepTotalNanos   atomic.Int64
	CheckpointCount  atomic.Int64
	CheckpointErrors atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(rows, failed int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildRows.Add(int64(rows))
	b.BuildFailedRows.Add(int64(failed))
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// RecordStep implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStep(cost float64, accepted bool, duration time.Duration) {
	b.StepCount.Add(1)
	b.StepTotalNanos.Add(duration.Nanoseconds())
	if accepted {
		b.StepAccepted.Add(1)
	} else {
		b.StepRejected.Add(1)
	}
}

// RecordCheckpoint implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCheckpoint(duration time.Duration, err error) {
	b.CheckpointCount.Add(1)
	if err != nil {
		b.CheckpointErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:       b.BuildCount.Load(),
		BuildErrors:      b.BuildErrors.Load(),
		BuildRows:        b.BuildRows.Load(),
		BuildFailedRows:  b.BuildFailedRows.Load(),
		BuildAvgNanos:    avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		StepCount:        b.StepCount.Load(),
		StepAccepted:     b.StepAccepted.Load(),
		StepRejected:     b.StepRejected.Load(),
		StepAvgNanos:     avg(b.StepTotalNanos.Load(), b.StepCount.Load()),
		CheckpointCount:  b.CheckpointCount.Load(),
		CheckpointErrors: b.CheckpointErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount       int64
	BuildErrors      int64
	BuildRows        int64
	BuildFailedRows  int64
	BuildAvgNanos    int64
	StepCount        int64
	StepAccepted     int64
	StepRejected     int64
	StepAvgNanos     int64
	CheckpointCount  int64
	CheckpointErrors int64
}
