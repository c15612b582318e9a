package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"docsense/internal/config"
	"docsense/internal/domain"
)

// detectedTypes maps sniffed content types to the file types they may carry.
var detectedTypes = map[string]domain.FileType{
	"application/pdf": domain.FileTypePDF,
	"image/png":       domain.FileTypePNG,
	"image/jpeg":      domain.FileTypeJPG,
}

// UploadPolicy is the immutable input policy applied before the pipeline runs.
type UploadPolicy struct {
	maxBytes   int64
	maxFiles   int
	extensions map[string]domain.FileType
}

// NewUploadPolicy builds a policy from config. Extensions outside the
// supported set are ignored.
func NewUploadPolicy(cfg config.UploadConfig) UploadPolicy {
	p := UploadPolicy{
		maxBytes:   cfg.MaxBytes(),
		maxFiles:   cfg.MaxFiles,
		extensions: make(map[string]domain.FileType),
	}
	if p.maxBytes <= 0 {
		p.maxBytes = domain.DefaultMaxFileSizeMB * 1024 * 1024
	}
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ft, ok := domain.AllowedExtensions[ext]; ok {
			p.extensions[ext] = ft
		}
	}
	if len(p.extensions) == 0 {
		for ext, ft := range domain.AllowedExtensions {
			p.extensions[ext] = ft
		}
	}
	return p
}

// MaxBytes returns the per-file size ceiling.
func (p UploadPolicy) MaxBytes() int64 {
	return p.maxBytes
}

// MaxFiles returns the per-request file limit; zero means unlimited.
func (p UploadPolicy) MaxFiles() int {
	return p.maxFiles
}

// Check validates a filename and declared size without reading the content.
func (p UploadPolicy) Check(filename string, size int64) (domain.FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	ft, ok := p.extensions[ext]
	if !ok {
		return "", domain.ErrUnsupportedFileType
	}
	if size > p.maxBytes {
		return "", domain.ErrFileTooLarge
	}
	return ft, nil
}

// Admit validates name and content and returns the sanitized RawFile.
// Non-empty content must sniff as the type its extension declares.
func (p UploadPolicy) Admit(filename string, data []byte) (domain.RawFile, error) {
	name := domain.SanitizeFilename(filename)
	ft, err := p.Check(name, int64(len(data)))
	if err != nil {
		return domain.RawFile{}, err
	}
	if len(data) > 0 {
		detected, ok := detectedTypes[http.DetectContentType(data)]
		if !ok || detected != ft {
			return domain.RawFile{}, domain.ErrUnsupportedFileType
		}
	}
	return domain.RawFile{
		Data:     data,
		Filename: name,
		Type:     ft,
		Kind:     ft.Kind(),
	}, nil
}

// Open reads a multipart upload through the policy. The declared size is
// checked before the body is read and the read itself is bounded.
func (p UploadPolicy) Open(header *multipart.FileHeader) (domain.RawFile, error) {
	if _, err := p.Check(domain.SanitizeFilename(header.Filename), header.Size); err != nil {
		return domain.RawFile{}, err
	}

	f, err := header.Open()
	if err != nil {
		return domain.RawFile{}, fmt.Errorf("opening upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, p.maxBytes+1))
	if err != nil {
		return domain.RawFile{}, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return domain.RawFile{}, domain.ErrFileTooLarge
	}
	return p.Admit(header.Filename, data)
}
