package service

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/rs/zerolog"

	"docsense/internal/domain"
	"docsense/internal/pipeline"
)

// Pipeline runs admitted files through acquisition, classification and extraction.
type Pipeline interface {
	Process(ctx context.Context, raw domain.RawFile, opts pipeline.Options) (*domain.FileResult, error)
	ProcessBatch(ctx context.Context, files []domain.RawFile, opts pipeline.Options) (*domain.BatchResult, error)
}

// DocumentService defines the document processing contract used by the HTTP layer.
type DocumentService interface {
	Process(ctx context.Context, header *multipart.FileHeader, opts pipeline.Options) (*domain.FileResult, error)
	ProcessBatch(ctx context.Context, headers []*multipart.FileHeader, opts pipeline.Options) (*domain.BatchResult, error)
	ProcessFiles(ctx context.Context, files []NamedFile, opts pipeline.Options) (*domain.BatchResult, error)
}

// NamedFile is an upload already read into memory.
type NamedFile struct {
	Name string
	Data []byte
}

type documentService struct {
	policy   UploadPolicy
	pipeline Pipeline
	log      zerolog.Logger
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(policy UploadPolicy, p Pipeline, log zerolog.Logger) DocumentService {
	return &documentService{
		policy:   policy,
		pipeline: p,
		log:      log.With().Str("component", "document_service").Logger(),
	}
}

func (s *documentService) Process(ctx context.Context, header *multipart.FileHeader, opts pipeline.Options) (*domain.FileResult, error) {
	if header == nil {
		return nil, domain.ErrNoFiles
	}
	raw, err := s.policy.Open(header)
	if err != nil {
		s.log.Info().Err(err).Str("file", header.Filename).Msg("upload rejected")
		return nil, err
	}
	return s.pipeline.Process(ctx, raw, opts)
}

func (s *documentService) ProcessBatch(ctx context.Context, headers []*multipart.FileHeader, opts pipeline.Options) (*domain.BatchResult, error) {
	if err := s.checkCount(len(headers)); err != nil {
		return nil, err
	}

	var admitted []domain.RawFile
	var rejected []domain.FileFailure
	for _, h := range headers {
		raw, err := s.policy.Open(h)
		if err != nil {
			s.log.Info().Err(err).Str("file", h.Filename).Msg("upload rejected")
			rejected = append(rejected, domain.FileFailure{DocumentName: domain.SanitizeFilename(h.Filename), Error: err.Error()})
			continue
		}
		admitted = append(admitted, raw)
	}
	return s.run(ctx, admitted, rejected, opts)
}

func (s *documentService) ProcessFiles(ctx context.Context, files []NamedFile, opts pipeline.Options) (*domain.BatchResult, error) {
	if err := s.checkCount(len(files)); err != nil {
		return nil, err
	}

	var admitted []domain.RawFile
	var rejected []domain.FileFailure
	for _, f := range files {
		raw, err := s.policy.Admit(f.Name, f.Data)
		if err != nil {
			rejected = append(rejected, domain.FileFailure{DocumentName: domain.SanitizeFilename(f.Name), Error: err.Error()})
			continue
		}
		admitted = append(admitted, raw)
	}
	return s.run(ctx, admitted, rejected, opts)
}

func (s *documentService) checkCount(n int) error {
	if n == 0 {
		return domain.ErrNoFiles
	}
	if limit := s.policy.MaxFiles(); limit > 0 && n > limit {
		return domain.ErrTooManyFiles
	}
	return nil
}

// run processes admitted files and appends policy rejections to the failures.
func (s *documentService) run(ctx context.Context, admitted []domain.RawFile, rejected []domain.FileFailure, opts pipeline.Options) (*domain.BatchResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(admitted) == 0 {
		return &domain.BatchResult{Results: []domain.FileResult{}, Failed: rejected}, nil
	}

	batch, err := s.pipeline.ProcessBatch(ctx, admitted, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNoFiles) {
			return &domain.BatchResult{Results: []domain.FileResult{}, Failed: rejected}, nil
		}
		return nil, err
	}
	batch.Failed = append(batch.Failed, rejected...)
	return batch, nil
}
