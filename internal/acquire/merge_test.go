package acquire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docsense/internal/acquire"
	"docsense/internal/domain"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name       string
		detections []domain.Detection
		threshold  float64
		wantText   string
		wantCount  int
		wantSum    float64
		wantAvg    float64
	}{
		{
			name:     "none",
			wantText: "",
		},
		{
			name: "averages accepted detections",
			detections: []domain.Detection{
				{Text: "Nom: Dupont", Confidence: 0.9},
				{Text: "Date: 2024", Confidence: 0.7},
			},
			threshold: 0.5,
			wantText:  "Nom: Dupont\nDate: 2024",
			wantCount: 2,
			wantSum:   1.6,
			wantAvg:   0.8,
		},
		{
			name: "blank detections skipped",
			detections: []domain.Detection{
				{Text: "  ", Confidence: 1},
				{Text: " a ", Confidence: 1},
			},
			threshold: 0.5,
			wantText:  "a",
			wantCount: 1,
			wantSum:   1,
			wantAvg:   1,
		},
		{
			name: "low confidence text kept but not counted",
			detections: []domain.Detection{
				{Text: "cannot open", Confidence: 0, Source: domain.SourceError},
			},
			threshold: 0.5,
			wantText:  "cannot open",
		},
		{
			name: "error detection not counted at zero threshold",
			detections: []domain.Detection{
				{Text: "cannot open", Confidence: 0, Source: domain.SourceError},
			},
			threshold: 0,
			wantText:  "cannot open",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := acquire.Merge(tt.detections, tt.threshold)

			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantCount, got.TotalDetections)
			assert.InDelta(t, tt.wantSum, got.TotalConfidence, 1e-9)
			assert.InDelta(t, tt.wantAvg, got.AverageConfidence(), 1e-9)
		})
	}
}
