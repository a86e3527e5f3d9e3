package mutscore

import "fmt"

// Special tokens shared by the ESM-2 alphabet and tokenizer.json vocabularies.
const (
	TokenCLS  = "<cls>"
	TokenPad  = "<pad>"
	TokenEOS  = "<eos>"
	TokenUnk  = "<unk>"
	TokenMask = "<mask>"
)

const esmStandardToks = "LAGVSERTIDPKQNFYMHWCXBUZO.-"

// Alphabet is the fixed ESM-2 vocabulary: four specials, the standard
// residue symbols, then <null_1> and <mask>.
type Alphabet struct {
	toks  []string
	index map[string]int64
}

// NewESMAlphabet returns the 33-token alphabet used by ESM-2 checkpoints.
func NewESMAlphabet() *Alphabet {
	toks := []string{TokenCLS, TokenPad, TokenEOS, TokenUnk}
	for _, r := range esmStandardToks {
		toks = append(toks, string(r))
	}
	toks = append(toks, "<null_1>", TokenMask)
	index := make(map[string]int64, len(toks))
	for i, t := range toks {
		index[t] = int64(i)
	}
	return &Alphabet{toks: toks, index: index}
}

// VocabSize returns the number of tokens.
func (a *Alphabet) VocabSize() int { return len(a.toks) }

// PadID returns the padding token id.
func (a *Alphabet) PadID() int64 { return a.index[TokenPad] }

// Token returns the symbol for id.
func (a *Alphabet) Token(id int64) string {
	if id < 0 || int(id) >= len(a.toks) {
		return ""
	}
	return a.toks[id]
}

// ID maps a symbol to its id, falling back to <unk>.
func (a *Alphabet) ID(tok string) int64 {
	if id, ok := a.index[tok]; ok {
		return id
	}
	return a.index[TokenUnk]
}

// Encode converts sequences into a padded batch, one residue per token with
// <cls> prepended and <eos> appended.
func (a *Alphabet) Encode(seqs []string) ([][]int64, error) {
	return encodeBatch(seqs, a.ID, a.index[TokenCLS], a.index[TokenEOS], a.index[TokenPad])
}

func encodeBatch(seqs []string, lookup func(string) int64, cls, eos, pad int64) ([][]int64, error) {
	if len(seqs) == 0 {
		return nil, fmt.Errorf("encode: empty batch")
	}
	width := 0
	for _, s := range seqs {
		if len(s)+2 > width {
			width = len(s) + 2
		}
	}
	out := make([][]int64, len(seqs))
	for i, s := range seqs {
		row := make([]int64, width)
		row[0] = cls
		for j := 0; j < len(s); j++ {
			row[j+1] = lookup(s[j : j+1])
		}
		row[len(s)+1] = eos
		for j := len(s) + 2; j < width; j++ {
			row[j] = pad
		}
		out[i] = row
	}
	return out, nil
}
