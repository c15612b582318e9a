package port

import "context"

// Tokenizer turns text into model token ids.
type Tokenizer interface {
	Encode(text string) ([]int, error)
}

// ClassificationModel scores a bounded token sequence against a fixed label set.
type ClassificationModel interface {
	Labels() []string
	MaxLength() int
	Logits(ctx context.Context, tokens []int) ([]float64, error)
}
