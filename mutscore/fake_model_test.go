package mutscore

import (
	"context"
	"fmt"
)

// fakeModel emits logits at position t that depend on t and on the token at
// t-1 of the same row, so rows that are shifted, mixed up or read from
// padding change the result.
type fakeModel struct {
	vocab   int
	calls   int
	batches []int
	err     error
	closed  bool
}

func (f *fakeModel) Forward(_ context.Context, tokens [][]int64) (Logits, error) {
	f.calls++
	f.batches = append(f.batches, len(tokens))
	if f.err != nil {
		return Logits{}, f.err
	}
	if len(tokens) == 0 {
		return Logits{}, fmt.Errorf("empty batch")
	}
	width := len(tokens[0])
	data := make([]float32, 0, len(tokens)*width*f.vocab)
	for _, row := range tokens {
		if len(row) != width {
			return Logits{}, fmt.Errorf("ragged batch")
		}
		for t := 0; t < width; t++ {
			var prev int64
			if t > 0 {
				prev = row[t-1]
			}
			for k := 0; k < f.vocab; k++ {
				data = append(data, fakeLogit(t, prev, k))
			}
		}
	}
	return Logits{Batch: len(tokens), Tokens: width, Vocab: f.vocab, Data: data}, nil
}

func (f *fakeModel) Close() error {
	f.closed = true
	return nil
}

func fakeLogit(t int, prev int64, k int) float32 {
	return float32((k*7+t*3+int(prev)*5)%11) / 3
}
