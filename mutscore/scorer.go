package mutscore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v2"
	"gonum.org/v1/gonum/floats"

	"yashubustudio/mutscore/plm"
)

// ErrLengthMismatch reports a mutant whose length differs from the wildtype.
var ErrLengthMismatch = errors.New("mutant length differs from wildtype")

// Logits is the forward-pass output consumed by the scorer.
type Logits = plm.Logits

// Model exposes the forward pass of a pretrained sequence model.
type Model interface {
	Forward(ctx context.Context, tokens [][]int64) (Logits, error)
	Close() error
}

// Scorer computes mutant/wildtype log-likelihood ratios.
type Scorer struct {
	model     Model
	tokenizer Tokenizer
	batchSize int
	progress  io.Writer
}

// ScorerOption customizes a Scorer.
type ScorerOption func(*Scorer)

// WithProgress renders a batch progress bar to w.
func WithProgress(w io.Writer) ScorerOption {
	return func(s *Scorer) { s.progress = w }
}

// NewScorer binds a model and tokenizer. batchSize <= 0 selects 128.
func NewScorer(model Model, tok Tokenizer, batchSize int, opts ...ScorerOption) (*Scorer, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if tok == nil {
		return nil, errors.New("tokenizer is required")
	}
	if batchSize <= 0 {
		batchSize = 128
	}
	s := &Scorer{model: model, tokenizer: tok, batchSize: batchSize}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// BatchSize returns the number of mutants per forward pass.
func (s *Scorer) BatchSize() int { return s.batchSize }

// LogLikelihood returns the summed own-token log-probability of each
// sequence over its own residue positions; padding after a shorter
// sequence is never scored.
func (s *Scorer) LogLikelihood(ctx context.Context, seqs []string) ([]float64, error) {
	if len(seqs) == 0 {
		return nil, nil
	}
	seqLen := 0
	for _, seq := range seqs {
		if len(seq) > seqLen {
			seqLen = len(seq)
		}
	}
	tokens, err := s.tokenizer.Encode(seqs)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	logits, err := s.model.Forward(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	if logits.Batch != len(seqs) || logits.Tokens < seqLen+1 {
		return nil, fmt.Errorf("logits shape %dx%dx%d does not cover %d sequences of length up to %d",
			logits.Batch, logits.Tokens, logits.Vocab, len(seqs), seqLen)
	}
	out := make([]float64, len(seqs))
	buf := make([]float64, logits.Vocab)
	for b := range seqs {
		var sum float64
		for t := 1; t <= len(seqs[b]); t++ {
			row := logits.Row(b, t)
			id := tokens[b][t]
			if id < 0 || int(id) >= logits.Vocab {
				return nil, fmt.Errorf("token id %d outside vocabulary of %d", id, logits.Vocab)
			}
			for k, v := range row {
				buf[k] = float64(v)
			}
			sum += buf[id] - floats.LogSumExp(buf)
		}
		out[b] = sum
	}
	return out, nil
}

// LogLikelihoodRatios scores each mutant against wildtype. Mutants are run in
// chunks of the configured batch size and returned in input order.
func (s *Scorer) LogLikelihoodRatios(ctx context.Context, wildtype string, mutants []string) ([]float64, error) {
	for i, m := range mutants {
		if len(m) != len(wildtype) {
			return nil, fmt.Errorf("%w: mutant %d has length %d, wildtype %d", ErrLengthMismatch, i, len(m), len(wildtype))
		}
	}
	if len(mutants) == 0 {
		return []float64{}, nil
	}
	wt, err := s.LogLikelihood(ctx, []string{wildtype})
	if err != nil {
		return nil, fmt.Errorf("score wildtype: %w", err)
	}
	wtLL := wt[0]

	w := s.progress
	if w == nil {
		w = io.Discard
	}
	batches := (len(mutants) + s.batchSize - 1) / s.batchSize
	bar := progressbar.NewOptions(batches, progressbar.OptionSetWriter(w), progressbar.OptionSetDescription("scoring"))

	ratios := make([]float64, 0, len(mutants))
	for start := 0; start < len(mutants); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + s.batchSize
		if end > len(mutants) {
			end = len(mutants)
		}
		lls, err := s.LogLikelihood(ctx, mutants[start:end])
		if err != nil {
			return nil, fmt.Errorf("score mutants %d-%d: %w", start+1, end, err)
		}
		for _, ll := range lls {
			ratios = append(ratios, ll-wtLL)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return ratios, nil
}
