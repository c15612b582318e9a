package mocks

import (
	"context"
	"mime/multipart"

	"github.com/stretchr/testify/mock"

	"docsense/internal/domain"
	"docsense/internal/pipeline"
	"docsense/internal/service"
)

// MockDocumentService is a mock implementation of service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Process(ctx context.Context, header *multipart.FileHeader, opts pipeline.Options) (*domain.FileResult, error) {
	args := m.Called(ctx, header, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileResult), args.Error(1)
}

func (m *MockDocumentService) ProcessBatch(ctx context.Context, headers []*multipart.FileHeader, opts pipeline.Options) (*domain.BatchResult, error) {
	args := m.Called(ctx, headers, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

func (m *MockDocumentService) ProcessFiles(ctx context.Context, files []service.NamedFile, opts pipeline.Options) (*domain.BatchResult, error) {
	args := m.Called(ctx, files, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}

// MockPipeline is a mock implementation of service.Pipeline.
type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Process(ctx context.Context, raw domain.RawFile, opts pipeline.Options) (*domain.FileResult, error) {
	args := m.Called(ctx, raw, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FileResult), args.Error(1)
}

func (m *MockPipeline) ProcessBatch(ctx context.Context, files []domain.RawFile, opts pipeline.Options) (*domain.BatchResult, error) {
	args := m.Called(ctx, files, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchResult), args.Error(1)
}
