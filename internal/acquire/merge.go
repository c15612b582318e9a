package acquire

import (
	"strings"

	"docsense/internal/domain"
)

// Merge joins the detections of one file in production order. Blank texts are
// skipped. Only non-blank detections meeting threshold are counted and summed;
// an error detection is never counted, whatever the threshold.
func Merge(detections []domain.Detection, threshold float64) domain.MergedResult {
	var (
		parts  []string
		result domain.MergedResult
	)
	for _, d := range detections {
		if d.IsBlank() {
			continue
		}
		parts = append(parts, strings.TrimSpace(d.Text))
		if d.Source != domain.SourceError && d.Confidence >= threshold {
			result.TotalDetections++
			result.TotalConfidence += d.Confidence
		}
	}
	result.Text = strings.Join(parts, "\n")
	return result
}
