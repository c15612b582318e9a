// Package pipeline sequences acquisition, classification and field
// extraction for uploaded documents.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"docsense/internal/acquire"
	"docsense/internal/domain"
	"docsense/internal/fields"
	"docsense/internal/port"
	"docsense/internal/report"
)

// Classifier labels a document from its text.
type Classifier interface {
	Classify(ctx context.Context, text string) domain.Classification
}

// Options are the per-request pipeline settings.
type Options struct {
	Threshold float64
}

// DefaultOptions returns the options used when a request sets none.
func DefaultOptions() Options {
	return Options{Threshold: domain.DefaultAcceptanceThreshold}
}

// Validate checks the option ranges. NaN is rejected.
func (o Options) Validate() error {
	if !(o.Threshold >= 0 && o.Threshold <= 1) {
		return domain.ErrInvalidThreshold
	}
	return nil
}

// Orchestrator runs the document pipeline. It holds no per-request state.
type Orchestrator struct {
	source     acquire.TextSource
	classifier Classifier
	extractor  fields.Extractor
	mode       domain.ExtractionMode
	sink       port.MetricsSink
	log        zerolog.Logger
	now        func() time.Time
}

// New creates an Orchestrator. A nil sink disables tracking.
func New(source acquire.TextSource, classifier Classifier, extractor fields.Extractor, mode domain.ExtractionMode, sink port.MetricsSink, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		source:     source,
		classifier: classifier,
		extractor:  extractor,
		mode:       mode,
		sink:       sink,
		log:        log.With().Str("component", "pipeline").Logger(),
		now:        time.Now,
	}
}

// WithClock overrides the time source used for run names and durations.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Process runs one file through the pipeline. It fails only when the file
// yields no usable text; classification and extraction degrade instead.
func (o *Orchestrator) Process(ctx context.Context, raw domain.RawFile, opts Options) (*domain.FileResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	result, err := o.process(ctx, raw, opts)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) process(ctx context.Context, raw domain.RawFile, opts Options) (*domain.FileResult, error) {
	start := o.now()
	log := o.log.With().Str("file", raw.Filename).Logger()
	run := o.startRun(ctx, fmt.Sprintf("extraction_%s_%d", raw.Filename, start.Unix()))

	result := &domain.FileResult{
		DocumentName: raw.Filename,
		Source:       &raw,
	}

	detections := o.source.Resolve(ctx, raw, opts.Threshold)
	merged := acquire.Merge(detections, opts.Threshold)
	result.Detections = detections
	result.Merged = merged
	result.Content = merged.Text

	if merged.TotalDetections == 0 {
		result.Stages = append(result.Stages,
			domain.StageReport{Stage: domain.StageAcquisition, Status: domain.StageFailed, Reason: acquisitionReason(detections)},
			domain.StageReport{Stage: domain.StageClassification, Status: domain.StageSkipped},
			domain.StageReport{Stage: domain.StageExtraction, Status: domain.StageSkipped},
		)
		result.Duration = o.now().Sub(start)
		log.Warn().Int("detections", len(detections)).Msg("no usable text recovered")
		o.finishRun(ctx, run, result, true)
		return result, domain.ErrAcquisitionFailed
	}
	result.Stages = append(result.Stages, domain.StageReport{Stage: domain.StageAcquisition, Status: domain.StageCompleted})

	class := o.classifier.Classify(ctx, merged.Text)
	result.Class = class
	result.Classification = class.Label
	result.Confidence = domain.FormatConfidence(class.Confidence)
	result.Stages = append(result.Stages, domain.StageReport{Stage: domain.StageClassification, Status: class.Status, Reason: class.Reason})

	extracted := o.extractor.Extract(ctx, merged.Text, class.Label)
	result.Extraction = extracted
	result.Fields = extracted.Values
	result.Stages = append(result.Stages, domain.StageReport{Stage: domain.StageExtraction, Status: extracted.Status, Reason: extracted.Reason})

	result.Duration = o.now().Sub(start)
	log.Info().
		Str("classification", class.Label).
		Str("confidence", result.Confidence).
		Int("detections", merged.TotalDetections).
		Int("unresolved", len(extracted.Unresolved)).
		Dur("duration", result.Duration).
		Msg("file processed")

	o.finishRun(ctx, run, result, false)
	return result, nil
}

// ProcessBatch runs files sequentially in arrival order. A failing file is
// recorded and excluded from the aggregates; it never stops its siblings.
func (o *Orchestrator) ProcessBatch(ctx context.Context, files []domain.RawFile, opts Options) (*domain.BatchResult, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoFiles
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := o.now()
	batch := &domain.BatchResult{
		Results: []domain.FileResult{},
		Failed:  []domain.FileFailure{},
	}

	for i := range files {
		result, err := o.process(ctx, files[i], opts)
		if err != nil {
			failure := domain.FileFailure{DocumentName: files[i].Filename, Error: err.Error()}
			if result != nil {
				failure.Stages = result.Stages
			}
			batch.Failed = append(batch.Failed, failure)
			continue
		}
		batch.Results = append(batch.Results, *result)
		batch.TotalDetections += result.Merged.TotalDetections
		batch.TotalConfidence += result.Merged.TotalConfidence
	}

	o.trackBatch(ctx, start, batch)
	o.log.Info().
		Int("processed", len(batch.Results)).
		Int("failed", len(batch.Failed)).
		Str("average_confidence", domain.FormatConfidence(batch.AverageConfidence())).
		Msg("batch processed")
	return batch, nil
}

func acquisitionReason(detections []domain.Detection) string {
	for _, d := range detections {
		if d.Source == domain.SourceError {
			return d.Text
		}
	}
	return "no text above threshold"
}

func (o *Orchestrator) startRun(ctx context.Context, name string) port.Run {
	if o.sink == nil {
		return nil
	}
	run, err := o.sink.StartRun(ctx, name)
	if err != nil {
		o.log.Warn().Err(err).Str("run", name).Msg("tracking run not started")
		return nil
	}
	return run
}

// finishRun records the per-file run. Tracking errors are logged only.
func (o *Orchestrator) finishRun(ctx context.Context, run port.Run, r *domain.FileResult, failed bool) {
	if run == nil {
		return
	}
	tr := tracker{ctx: ctx, run: run, log: o.log}

	tr.param("filename", r.DocumentName)
	if r.Source != nil {
		tr.param("file_size_mb", strconv.FormatFloat(r.Source.SizeMB(), 'f', 4, 64))
		tr.param("content_kind", string(r.Source.Kind))
	}
	tr.param("requires_chunking", strconv.FormatBool(r.Class.Windows > 1))
	tr.param("classification", r.Classification)
	tr.param("extraction_mode", string(o.mode))

	tr.metric("text_length", float64(len([]rune(r.Content))))
	tr.metric("total_detections", float64(r.Merged.TotalDetections))
	tr.metric("average_confidence", r.Merged.AverageConfidence())
	tr.metric("classification_confidence", r.Class.Confidence)
	tr.metric("extraction_time_seconds", r.Duration.Seconds())

	if r.Content != "" {
		tr.artifact("extracted_text.txt", []byte(r.Content))
	}
	tr.end(failed)
}

func (o *Orchestrator) trackBatch(ctx context.Context, start time.Time, batch *domain.BatchResult) {
	run := o.startRun(ctx, fmt.Sprintf("multi_extraction_%d", start.Unix()))
	if run == nil {
		return
	}
	tr := tracker{ctx: ctx, run: run, log: o.log}

	total := len(batch.Results) + len(batch.Failed)
	tr.param("total_files", strconv.Itoa(total))
	tr.param("successful_files", strconv.Itoa(len(batch.Results)))
	tr.param("failed_files", strconv.Itoa(len(batch.Failed)))
	tr.param("extraction_mode", string(o.mode))

	tr.metric("total_detections", float64(batch.TotalDetections))
	tr.metric("average_confidence", batch.AverageConfidence())
	tr.metric("success_rate", float64(len(batch.Results))/float64(total))
	tr.metric("processing_time_seconds", o.now().Sub(start).Seconds())

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, batch); err != nil {
		o.log.Warn().Err(err).Msg("batch summary not rendered")
	} else {
		tr.artifact("extraction_summary.csv", buf.Bytes())
	}
	tr.end(len(batch.Results) == 0)
}

// tracker forwards to a run, logging failures instead of returning them.
type tracker struct {
	ctx context.Context
	run port.Run
	log zerolog.Logger
}

func (t tracker) param(key, value string) {
	if err := t.run.LogParam(t.ctx, key, value); err != nil {
		t.log.Warn().Err(err).Str("param", key).Msg("tracking param failed")
	}
}

func (t tracker) metric(key string, value float64) {
	if err := t.run.LogMetric(t.ctx, key, value); err != nil {
		t.log.Warn().Err(err).Str("metric", key).Msg("tracking metric failed")
	}
}

func (t tracker) artifact(name string, data []byte) {
	if err := t.run.LogArtifact(t.ctx, name, data); err != nil {
		t.log.Warn().Err(err).Str("artifact", name).Msg("tracking artifact failed")
	}
}

func (t tracker) end(failed bool) {
	if err := t.run.End(t.ctx, failed); err != nil {
		t.log.Warn().Err(err).Msg("tracking run not closed")
	}
}
