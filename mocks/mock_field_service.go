package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docsense/internal/port"
)

// MockFieldService is a mock implementation of port.FieldService.
type MockFieldService struct {
	mock.Mock
}

func (m *MockFieldService) ExtractFields(ctx context.Context, req port.FieldRequest) (*port.FieldOutput, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.FieldOutput), args.Error(1)
}
