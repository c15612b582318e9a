package service_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docsense/internal/config"
	"docsense/internal/domain"
	"docsense/internal/pipeline"
	"docsense/internal/service"
	"docsense/mocks"
)

var (
	pdfBody = []byte("%PDF-1.4 test content")
	pngBody = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
)

func defaultPolicy() service.UploadPolicy {
	return service.NewUploadPolicy(config.UploadConfig{
		MaxFileSizeMB:     10,
		AllowedExtensions: []string{"pdf", "png", "jpg", "jpeg"},
		MaxFiles:          3,
	})
}

// fileHeaders builds multipart headers the way gin would parse them from a request.
func fileHeaders(t *testing.T, field string, files map[string][]byte, order ...string) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range order {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File[field]
}

func TestUploadPolicy_Check(t *testing.T) {
	p := defaultPolicy()

	tests := []struct {
		name    string
		file    string
		size    int64
		want    domain.FileType
		wantErr error
	}{
		{"pdf", "a.pdf", 10, domain.FileTypePDF, nil},
		{"upper case jpeg", "scan.JPEG", 10, domain.FileTypeJPG, nil},
		{"unsupported", "notes.docx", 10, "", domain.ErrUnsupportedFileType},
		{"no extension", "README", 10, "", domain.ErrUnsupportedFileType},
		{"at ceiling", "a.png", 10 * 1024 * 1024, domain.FileTypePNG, nil},
		{"over ceiling", "a.png", 10*1024*1024 + 1, "", domain.ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Check(tt.file, tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUploadPolicy_RestrictedExtensions(t *testing.T) {
	p := service.NewUploadPolicy(config.UploadConfig{MaxFileSizeMB: 1, AllowedExtensions: []string{".PDF", "exe"}})

	_, err := p.Check("a.pdf", 1)
	assert.NoError(t, err)
	_, err = p.Check("a.png", 1)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	_, err = p.Check("a.exe", 1)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestUploadPolicy_Admit(t *testing.T) {
	p := defaultPolicy()

	raw, err := p.Admit("dir/My Invoice.pdf", pdfBody)
	require.NoError(t, err)
	assert.Equal(t, "My_Invoice.pdf", raw.Filename)
	assert.Equal(t, domain.ContentKindPDF, raw.Kind)

	empty, err := p.Admit("empty.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Size())

	_, err = p.Admit("fake.pdf", pngBody)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestDocumentService_Process(t *testing.T) {
	pl := new(mocks.MockPipeline)
	svc := service.NewDocumentService(defaultPolicy(), pl, zerolog.Nop())
	opts := pipeline.DefaultOptions()

	expected := &domain.FileResult{DocumentName: "a.pdf", Classification: "Facture"}
	pl.On("Process", mock.Anything, mock.MatchedBy(func(raw domain.RawFile) bool {
		return raw.Filename == "a.pdf" && bytes.Equal(raw.Data, pdfBody)
	}), opts).Return(expected, nil)

	headers := fileHeaders(t, "file", map[string][]byte{"a.pdf": pdfBody}, "a.pdf")
	res, err := svc.Process(context.Background(), headers[0], opts)
	require.NoError(t, err)
	assert.Equal(t, expected, res)
	pl.AssertExpectations(t)
}

func TestDocumentService_Process_Rejected(t *testing.T) {
	pl := new(mocks.MockPipeline)
	svc := service.NewDocumentService(defaultPolicy(), pl, zerolog.Nop())

	headers := fileHeaders(t, "file", map[string][]byte{"a.txt": []byte("hello")}, "a.txt")
	_, err := svc.Process(context.Background(), headers[0], pipeline.DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	pl.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentService_ProcessBatch_MixesRejections(t *testing.T) {
	pl := new(mocks.MockPipeline)
	svc := service.NewDocumentService(defaultPolicy(), pl, zerolog.Nop())
	opts := pipeline.DefaultOptions()

	pl.On("ProcessBatch", mock.Anything, mock.MatchedBy(func(files []domain.RawFile) bool {
		return len(files) == 2 && files[0].Filename == "a.pdf" && files[1].Filename == "b.png"
	}), opts).Return(&domain.BatchResult{
		Results:         []domain.FileResult{{DocumentName: "a.pdf"}, {DocumentName: "b.png"}},
		Failed:          []domain.FileFailure{},
		TotalDetections: 2,
	}, nil)

	headers := fileHeaders(t, "files", map[string][]byte{
		"a.pdf":  pdfBody,
		"c.docx": []byte("word"),
		"b.png":  pngBody,
	}, "a.pdf", "c.docx", "b.png")

	batch, err := svc.ProcessBatch(context.Background(), headers, opts)
	require.NoError(t, err)
	assert.Len(t, batch.Results, 2)
	require.Len(t, batch.Failed, 1)
	assert.Equal(t, "c.docx", batch.Failed[0].DocumentName)
	assert.Equal(t, domain.ErrUnsupportedFileType.Error(), batch.Failed[0].Error)
}

func TestDocumentService_ProcessBatch_AllRejected(t *testing.T) {
	pl := new(mocks.MockPipeline)
	svc := service.NewDocumentService(defaultPolicy(), pl, zerolog.Nop())

	headers := fileHeaders(t, "files", map[string][]byte{"a.txt": []byte("x")}, "a.txt")
	batch, err := svc.ProcessBatch(context.Background(), headers, pipeline.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, batch.Results)
	assert.Len(t, batch.Failed, 1)
	pl.AssertNotCalled(t, "ProcessBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentService_ProcessBatch_Limits(t *testing.T) {
	svc := service.NewDocumentService(defaultPolicy(), new(mocks.MockPipeline), zerolog.Nop())

	_, err := svc.ProcessBatch(context.Background(), nil, pipeline.DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrNoFiles)

	files := map[string][]byte{"1.pdf": pdfBody, "2.pdf": pdfBody, "3.pdf": pdfBody, "4.pdf": pdfBody}
	headers := fileHeaders(t, "files", files, "1.pdf", "2.pdf", "3.pdf", "4.pdf")
	_, err = svc.ProcessBatch(context.Background(), headers, pipeline.DefaultOptions())
	assert.ErrorIs(t, err, domain.ErrTooManyFiles)

	one := fileHeaders(t, "files", map[string][]byte{"1.pdf": pdfBody}, "1.pdf")
	_, err = svc.ProcessBatch(context.Background(), one, pipeline.Options{Threshold: -0.1})
	assert.ErrorIs(t, err, domain.ErrInvalidThreshold)
}

func TestDocumentService_ProcessFiles(t *testing.T) {
	pl := new(mocks.MockPipeline)
	svc := service.NewDocumentService(defaultPolicy(), pl, zerolog.Nop())
	opts := pipeline.DefaultOptions()

	pl.On("ProcessBatch", mock.Anything, mock.AnythingOfType("[]domain.RawFile"), opts).
		Return(&domain.BatchResult{Results: []domain.FileResult{{DocumentName: "a.pdf"}}, Failed: []domain.FileFailure{}}, nil)

	batch, err := svc.ProcessFiles(context.Background(), []service.NamedFile{
		{Name: "/tmp/a.pdf", Data: pdfBody},
		{Name: "b.gif", Data: []byte("GIF89a")},
	}, opts)
	require.NoError(t, err)
	assert.Len(t, batch.Results, 1)
	require.Len(t, batch.Failed, 1)
	assert.Equal(t, "b.gif", batch.Failed[0].DocumentName)
}
