package port

import "context"

// MetricsSink records parameters, metrics and artifacts of processing runs.
type MetricsSink interface {
	StartRun(ctx context.Context, name string) (Run, error)
}

// Run is one tracked unit of work.
type Run interface {
	ID() string
	LogParam(ctx context.Context, key, value string) error
	LogMetric(ctx context.Context, key string, value float64) error
	LogArtifact(ctx context.Context, name string, data []byte) error
	End(ctx context.Context, failed bool) error
}
