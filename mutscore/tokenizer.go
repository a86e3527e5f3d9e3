package mutscore

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Tokenizer turns sequences into a padded token batch. Position 0 of every
// row holds the start sentinel and positions 1..len(seq) hold the residues.
type Tokenizer interface {
	Encode(seqs []string) ([][]int64, error)
	VocabSize() int
	PadID() int64
}

// VocabTokenizer maps residues through a HuggingFace tokenizer.json vocabulary.
// Residues are looked up one symbol at a time so the file's pre-tokenizer
// settings do not affect the alignment between residues and positions.
type VocabTokenizer struct {
	tk            *tokenizer.Tokenizer
	cls, eos, pad int64
	unk           int64
}

// NewVocabTokenizer loads tokenizer.json from path.
func NewVocabTokenizer(path string) (*VocabTokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	v := &VocabTokenizer{tk: tk}
	ids := map[string]*int64{TokenCLS: &v.cls, TokenEOS: &v.eos, TokenPad: &v.pad, TokenUnk: &v.unk}
	var missing []string
	for tok, dst := range ids {
		id, ok := tk.TokenToId(tok)
		if !ok {
			missing = append(missing, tok)
			continue
		}
		*dst = int64(id)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("tokenizer %s lacks special tokens %s", path, strings.Join(missing, ", "))
	}
	return v, nil
}

// VocabSize returns the vocabulary size including added tokens.
func (v *VocabTokenizer) VocabSize() int {
	return v.tk.GetVocabSize(true)
}

// PadID returns the padding token id.
func (v *VocabTokenizer) PadID() int64 { return v.pad }

// Encode converts sequences into a padded batch.
func (v *VocabTokenizer) Encode(seqs []string) ([][]int64, error) {
	if v == nil || v.tk == nil {
		return nil, errors.New("tokenizer is not initialized")
	}
	return encodeBatch(seqs, v.id, v.cls, v.eos, v.pad)
}

func (v *VocabTokenizer) id(tok string) int64 {
	if id, ok := v.tk.TokenToId(tok); ok {
		return int64(id)
	}
	return v.unk
}

// NewTokenizer returns the tokenizer.json tokenizer when path is set and the
// built-in ESM-2 alphabet otherwise.
func NewTokenizer(path string) (Tokenizer, error) {
	if strings.TrimSpace(path) == "" {
		return NewESMAlphabet(), nil
	}
	return NewVocabTokenizer(path)
}
