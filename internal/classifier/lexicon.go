package classifier

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon_default.yaml
var defaultLexicon []byte

// LexiconFile is the on-disk definition of a keyword model.
type LexiconFile struct {
	MaxLength int            `yaml:"max_length"`
	Labels    []LexiconLabel `yaml:"labels"`
}

// LexiconLabel lists the weighted keywords of one category.
type LexiconLabel struct {
	Name     string             `yaml:"name"`
	Bias     float64            `yaml:"bias"`
	Keywords map[string]float64 `yaml:"keywords"`
}

// Lexicon is a keyword-weight classification model with its own vocabulary.
// It implements both port.Tokenizer and port.ClassificationModel.
type Lexicon struct {
	labels    []string
	bias      []float64
	maxLength int
	vocab     map[string]int
	// weights[token][label]
	weights [][]float64
}

// LoadLexicon reads a lexicon model from path, or the built-in model when
// path is empty.
func LoadLexicon(path string, maxLength int) (*Lexicon, error) {
	data := defaultLexicon
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading lexicon model: %w", err)
		}
		data = raw
	}
	return ParseLexicon(data, maxLength)
}

// ParseLexicon builds a lexicon model from YAML. A positive maxLength
// overrides the file's value.
func ParseLexicon(data []byte, maxLength int) (*Lexicon, error) {
	var f LexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing lexicon model: %w", err)
	}
	if len(f.Labels) == 0 {
		return nil, errors.New("lexicon model declares no labels")
	}
	if maxLength > 0 {
		f.MaxLength = maxLength
	}
	if f.MaxLength <= 0 {
		f.MaxLength = 512
	}

	l := &Lexicon{
		maxLength: f.MaxLength,
		vocab:     map[string]int{"[unk]": 0},
		weights:   [][]float64{make([]float64, len(f.Labels))},
	}
	for li, label := range f.Labels {
		if strings.TrimSpace(label.Name) == "" {
			return nil, fmt.Errorf("lexicon label %d has no name", li)
		}
		l.labels = append(l.labels, label.Name)
		l.bias = append(l.bias, label.Bias)
		for word, weight := range label.Keywords {
			key := Fold(strings.ToLower(strings.TrimSpace(word)))
			if key == "" {
				continue
			}
			id, ok := l.vocab[key]
			if !ok {
				id = len(l.weights)
				l.vocab[key] = id
				l.weights = append(l.weights, make([]float64, len(f.Labels)))
			}
			l.weights[id][li] += weight
		}
	}
	return l, nil
}

// Labels returns the category names in model order.
func (l *Lexicon) Labels() []string {
	return l.labels
}

// MaxLength returns the number of tokens scored per call.
func (l *Lexicon) MaxLength() int {
	return l.maxLength
}

// Encode splits text on whitespace and maps each word to its vocabulary id.
// Unknown words map to 0.
func (l *Lexicon) Encode(text string) ([]int, error) {
	words := strings.Fields(text)
	out := make([]int, len(words))
	for i, w := range words {
		out[i] = l.vocab[Fold(strings.ToLower(w))]
	}
	return out, nil
}

// Logits sums keyword weights per label over at most MaxLength tokens.
func (l *Lexicon) Logits(_ context.Context, tokens []int) ([]float64, error) {
	if len(tokens) > l.maxLength {
		return nil, fmt.Errorf("sequence of %d tokens exceeds max length %d", len(tokens), l.maxLength)
	}
	out := make([]float64, len(l.labels))
	copy(out, l.bias)
	for _, tok := range tokens {
		if tok < 0 || tok >= len(l.weights) {
			return nil, fmt.Errorf("token id %d out of vocabulary", tok)
		}
		for i, w := range l.weights[tok] {
			out[i] += w
		}
	}
	return out, nil
}
