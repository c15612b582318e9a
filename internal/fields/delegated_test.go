package fields_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docsense/internal/domain"
	"docsense/internal/fields"
	"docsense/internal/port"
	"docsense/internal/schema"
	"docsense/mocks"
)

func TestDelegated_ResolvesAndDefaultsMissing(t *testing.T) {
	svc := new(mocks.MockFieldService)
	svc.On("ExtractFields", mock.Anything, port.FieldRequest{
		Category: "Invoice",
		Fields:   []string{"Invoice Number", "Date"},
		Text:     "Invoice #123, Date: 2024-01-01",
	}).Return(&port.FieldOutput{Values: map[string]string{"Invoice Number": " 123 "}, ModelUsed: "m"}, nil)

	e := fields.NewDelegatedExtractor(invoiceSchema(), svc, "N/A", 1000, zerolog.Nop())
	got := e.Extract(context.Background(), "Invoice #123, Date: 2024-01-01", "Invoice")

	assert.Equal(t, map[string]string{"Invoice Number": "123", "Date": "N/A"}, got.Values)
	assert.Equal(t, []string{"Date"}, got.Unresolved)
	assert.Equal(t, domain.StageCompleted, got.Status)
	assert.False(t, got.Truncated)
	svc.AssertExpectations(t)
}

func TestDelegated_SentinelValueCountsAsUnresolved(t *testing.T) {
	svc := new(mocks.MockFieldService)
	svc.On("ExtractFields", mock.Anything, mock.Anything).
		Return(&port.FieldOutput{Values: map[string]string{"Invoice Number": "N/A", "Date": ""}}, nil)

	e := fields.NewDelegatedExtractor(invoiceSchema(), svc, "N/A", 1000, zerolog.Nop())
	got := e.Extract(context.Background(), "text", "Invoice")

	assert.ElementsMatch(t, []string{"Invoice Number", "Date"}, got.Unresolved)
	assert.Equal(t, "N/A", got.Values["Date"])
}

func TestDelegated_ServiceErrorDegradesToSentinel(t *testing.T) {
	svc := new(mocks.MockFieldService)
	svc.On("ExtractFields", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	e := fields.NewDelegatedExtractor(invoiceSchema(), svc, "N/A", 1000, zerolog.Nop())
	got := e.Extract(context.Background(), "some text", "Invoice")

	assert.Equal(t, map[string]string{"Invoice Number": "N/A", "Date": "N/A"}, got.Values)
	assert.Equal(t, domain.StageDegraded, got.Status)
	assert.Contains(t, got.Reason, "connection reset")
}

func TestDelegated_TruncatesToBudget(t *testing.T) {
	text := strings.Repeat("é", 1500)
	svc := new(mocks.MockFieldService)
	svc.On("ExtractFields", mock.Anything, mock.MatchedBy(func(req port.FieldRequest) bool {
		return utf8.RuneCountInString(req.Text) == 1000
	})).Return(&port.FieldOutput{Values: map[string]string{"Date": "2024"}}, nil)

	e := fields.NewDelegatedExtractor(invoiceSchema(), svc, "N/A", 1000, zerolog.Nop())
	got := e.Extract(context.Background(), text, "Invoice")

	assert.True(t, got.Truncated)
	assert.Equal(t, "2024", got.Values["Date"])
	svc.AssertExpectations(t)
}

func TestDelegated_EmptyTextSkipsService(t *testing.T) {
	svc := new(mocks.MockFieldService)

	e := fields.NewDelegatedExtractor(invoiceSchema(), svc, "N/A", 1000, zerolog.Nop())
	got := e.Extract(context.Background(), "  \n ", "Invoice")

	assert.Equal(t, map[string]string{"Invoice Number": "N/A", "Date": "N/A"}, got.Values)
	assert.Equal(t, domain.StageDegraded, got.Status)
	svc.AssertNotCalled(t, "ExtractFields", mock.Anything, mock.Anything)
}

func TestDelegated_UnknownCategorySkipsService(t *testing.T) {
	svc := new(mocks.MockFieldService)

	e := fields.NewDelegatedExtractor(invoiceSchema(), svc, "N/A", 1000, zerolog.Nop())
	got := e.Extract(context.Background(), "text", "Autre")

	assert.Empty(t, got.Values)
	assert.Equal(t, domain.StageSkipped, got.Status)
	svc.AssertNotCalled(t, "ExtractFields", mock.Anything, mock.Anything)
}

func TestDelegated_SchemaComplete(t *testing.T) {
	s := schema.Default()
	svc := new(mocks.MockFieldService)
	svc.On("ExtractFields", mock.Anything, mock.Anything).
		Return(&port.FieldOutput{Values: map[string]string{"Date": "x", "unexpected": "y"}}, nil)

	e := fields.NewDelegatedExtractor(s, svc, "N/A", 1000, zerolog.Nop())
	for _, category := range s.Categories() {
		got := e.Extract(context.Background(), "text", category)
		require.Len(t, got.Values, len(s.Names(category)), category)
		_, extra := got.Values["unexpected"]
		assert.False(t, extra)
	}
}
