// Package report renders batch results as CSV or XLSX summaries.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"docsense/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the header row shared by the CSV and XLSX reports.
var columns = []string{
	"Document Name",
	"Status",
	"Classification",
	"Confidence",
	"Detections",
	"Average Confidence",
	"Fields",
	"Error",
}

// Columns returns a copy of the report header row.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Writer wraps csv.Writer for exporting batch results as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteBatch writes one row per successful file followed by one row per failure.
func (w *Writer) WriteBatch(batch *domain.BatchResult) error {
	for _, row := range Rows(batch) {
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteCSV writes a complete CSV report, BOM included.
func WriteCSV(out io.Writer, batch *domain.BatchResult) error {
	if _, err := out.Write(BOM); err != nil {
		return fmt.Errorf("writing bom: %w", err)
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := w.WriteBatch(batch); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Rows converts a batch into report rows.
func Rows(batch *domain.BatchResult) [][]string {
	if batch == nil {
		return nil
	}
	rows := make([][]string, 0, len(batch.Results)+len(batch.Failed))
	for i := range batch.Results {
		rows = append(rows, resultToRow(&batch.Results[i]))
	}
	for i := range batch.Failed {
		rows = append(rows, failureToRow(&batch.Failed[i]))
	}
	return rows
}

func resultToRow(r *domain.FileResult) []string {
	row := make([]string, len(columns))
	row[0] = r.DocumentName
	row[1] = string(domain.FileStatusProcessed)
	row[2] = r.Classification
	row[3] = r.Confidence
	row[4] = strconv.Itoa(r.Merged.TotalDetections)
	row[5] = domain.FormatConfidence(r.Merged.AverageConfidence())
	row[6] = formatFields(r.Extraction.Names, r.Fields)
	return row
}

func failureToRow(f *domain.FileFailure) []string {
	row := make([]string, len(columns))
	row[0] = f.DocumentName
	row[1] = string(domain.FileStatusFailed)
	row[7] = f.Error
	return row
}

// formatFields renders fields as "name=value" pairs in schema order.
func formatFields(names []string, values map[string]string) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+values[name])
	}
	return strings.Join(parts, "; ")
}

// BuildFilename returns a report filename of the form docsense_report_{YYYY-MM-DD}.{ext}.
func BuildFilename(ext string, now time.Time) string {
	return fmt.Sprintf("docsense_report_%s.%s", now.Format("2006-01-02"), strings.TrimPrefix(ext, "."))
}
