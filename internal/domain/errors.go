package domain

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrNoFiles             = errors.New("no files provided")
	ErrTooManyFiles        = errors.New("too many files in one request")
	ErrInvalidThreshold    = errors.New("threshold must be between 0 and 1")
	ErrAcquisitionFailed   = errors.New("text extraction failed or no text found")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrInvalidSchema       = errors.New("invalid field schema")
)
