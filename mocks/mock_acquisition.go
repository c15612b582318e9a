package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docsense/internal/domain"
	"docsense/internal/port"
)

// MockNativeTextExtractor is a mock implementation of port.NativeTextExtractor.
type MockNativeTextExtractor struct {
	mock.Mock
}

func (m *MockNativeTextExtractor) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockStructureParser is a mock implementation of port.StructureParser.
type MockStructureParser struct {
	mock.Mock
}

func (m *MockStructureParser) Parse(ctx context.Context, data []byte, kind domain.ContentKind) (string, error) {
	args := m.Called(ctx, data, kind)
	return args.String(0), args.Error(1)
}

// MockPageRasterizer is a mock implementation of port.PageRasterizer.
type MockPageRasterizer struct {
	mock.Mock
}

func (m *MockPageRasterizer) Rasterize(ctx context.Context, data []byte) ([]port.PageImage, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.PageImage), args.Error(1)
}

// MockEmbeddedImageExtractor is a mock implementation of port.EmbeddedImageExtractor.
type MockEmbeddedImageExtractor struct {
	mock.Mock
}

func (m *MockEmbeddedImageExtractor) ExtractImages(ctx context.Context, data []byte) ([]port.PageImage, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.PageImage), args.Error(1)
}

// MockOCREngine is a mock implementation of port.OCREngine.
type MockOCREngine struct {
	mock.Mock
}

func (m *MockOCREngine) Recognize(ctx context.Context, image []byte) (*port.OCRResult, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.OCRResult), args.Error(1)
}

// MockDetectionCache is a mock implementation of port.DetectionCache.
type MockDetectionCache struct {
	mock.Mock
}

func (m *MockDetectionCache) Get(ctx context.Context, key string) ([]domain.Detection, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Detection), args.Error(1)
}

func (m *MockDetectionCache) Set(ctx context.Context, key string, detections []domain.Detection) error {
	args := m.Called(ctx, key, detections)
	return args.Error(0)
}
