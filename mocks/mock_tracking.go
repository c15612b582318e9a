package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docsense/internal/port"
)

// MockMetricsSink is a mock implementation of port.MetricsSink.
type MockMetricsSink struct {
	mock.Mock
}

func (m *MockMetricsSink) StartRun(ctx context.Context, name string) (port.Run, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(port.Run), args.Error(1)
}

// MockRun is a mock implementation of port.Run.
type MockRun struct {
	mock.Mock
}

func (m *MockRun) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockRun) LogParam(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockRun) LogMetric(ctx context.Context, key string, value float64) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockRun) LogArtifact(ctx context.Context, name string, data []byte) error {
	args := m.Called(ctx, name, data)
	return args.Error(0)
}

func (m *MockRun) End(ctx context.Context, failed bool) error {
	args := m.Called(ctx, failed)
	return args.Error(0)
}
