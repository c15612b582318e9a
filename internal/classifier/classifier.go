// Package classifier assigns a document category to merged text using a
// fixed-length model applied over overlapping token windows.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"docsense/internal/domain"
	"docsense/internal/port"
)

// Options configures a Classifier.
type Options struct {
	Stride       int
	Normalize    bool
	UnknownLabel string
}

// Classifier runs chunked inference. Calls are serialized: the model and
// tokenizer are shared, single-writer resources.
type Classifier struct {
	mu        sync.Mutex
	tokenizer port.Tokenizer
	model     port.ClassificationModel
	labels    []string
	maxLength int
	stride    int
	normalize bool
	unknown   string
	log       zerolog.Logger
}

// New builds a classifier around a loaded tokenizer and model.
func New(tokenizer port.Tokenizer, model port.ClassificationModel, opts Options, log zerolog.Logger) (*Classifier, error) {
	if tokenizer == nil || model == nil {
		return nil, errors.New("classifier: tokenizer and model are required")
	}
	labels := model.Labels()
	if len(labels) == 0 {
		return nil, errors.New("classifier: model declares no labels")
	}
	maxLength := model.MaxLength()
	if maxLength <= 0 {
		return nil, fmt.Errorf("classifier: invalid model max length %d", maxLength)
	}
	if opts.Stride <= 0 || opts.Stride >= maxLength {
		return nil, fmt.Errorf("classifier: stride %d must be in (0, %d)", opts.Stride, maxLength)
	}
	unknown := opts.UnknownLabel
	if unknown == "" {
		unknown = domain.DefaultUnknownLabel
	}
	return &Classifier{
		tokenizer: tokenizer,
		model:     model,
		labels:    labels,
		maxLength: maxLength,
		stride:    opts.Stride,
		normalize: opts.Normalize,
		unknown:   unknown,
		log:       log,
	}, nil
}

// Labels returns the categories the model can produce.
func (c *Classifier) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// MaxLength returns the model's input length in tokens.
func (c *Classifier) MaxLength() int {
	return c.maxLength
}

// Classify returns the most probable category of text. Failures never
// propagate: they produce the unknown label with zero confidence and a
// degraded status.
func (c *Classifier) Classify(ctx context.Context, text string) (out domain.Classification) {
	if c.normalize {
		text = Normalize(text)
	}
	if text == "" {
		return c.degraded("no classifiable text")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("classifier: inference panicked")
			out = c.degraded(fmt.Sprintf("inference panicked: %v", r))
		}
	}()

	tokens, err := c.tokenizer.Encode(text)
	if err != nil {
		c.log.Error().Err(err).Msg("classifier: tokenization failed")
		return c.degraded(err.Error())
	}
	if len(tokens) == 0 {
		return c.degraded("tokenizer produced no tokens")
	}

	windows := Windows(len(tokens), c.maxLength, c.stride)
	avg := make([]float64, len(c.labels))
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return c.degraded(err.Error())
		}
		logits, err := c.model.Logits(ctx, tokens[w.Start:w.End])
		if err != nil {
			c.log.Error().Err(err).Int("window_start", w.Start).Msg("classifier: inference failed")
			return c.degraded(err.Error())
		}
		if len(logits) != len(c.labels) {
			err := fmt.Errorf("model returned %d logits for %d labels", len(logits), len(c.labels))
			c.log.Error().Err(err).Msg("classifier: inference failed")
			return c.degraded(err.Error())
		}
		for i, p := range Softmax(logits) {
			avg[i] += p
		}
	}
	for i := range avg {
		avg[i] /= float64(len(windows))
	}

	best := Argmax(avg)
	c.log.Debug().
		Str("label", c.labels[best]).
		Float64("confidence", avg[best]).
		Int("tokens", len(tokens)).
		Int("windows", len(windows)).
		Msg("classifier: document classified")

	return domain.Classification{
		Label:      c.labels[best],
		Confidence: avg[best],
		Windows:    len(windows),
		Status:     domain.StageCompleted,
	}
}

func (c *Classifier) degraded(reason string) domain.Classification {
	return domain.Classification{
		Label:      c.unknown,
		Confidence: 0,
		Status:     domain.StageDegraded,
		Reason:     reason,
	}
}

// Window is a half-open token span [Start, End).
type Window struct {
	Start int
	End   int
}

// Windows splits n tokens into spans of at most maxLength starting every
// stride tokens. A sequence that fits yields one window. Generation stops at
// the first window that reaches the end of the sequence.
func Windows(n, maxLength, stride int) []Window {
	if n <= 0 {
		return nil
	}
	if n <= maxLength || stride <= 0 {
		return []Window{{Start: 0, End: min(n, maxLength)}}
	}
	var out []Window
	for start := 0; start < n; start += stride {
		end := min(start+maxLength, n)
		out = append(out, Window{Start: start, End: end})
		if end == n {
			break
		}
	}
	return out
}

// Softmax converts logits into a probability distribution.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	peak := logits[0]
	for _, v := range logits[1:] {
		if v > peak {
			peak = v
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Argmax returns the index of the largest value, preferring the first on ties.
func Argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
