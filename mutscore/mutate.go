package mutscore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedMutation reports a code that is not <orig><pos><new>.
	ErrMalformedMutation = errors.New("malformed mutation code")
	// ErrPositionOutOfRange reports a position outside 1..len(wildtype).
	ErrPositionOutOfRange = errors.New("mutation position out of range")
	// ErrNonASCIIWildtype reports a wildtype holding multi-byte characters.
	ErrNonASCIIWildtype = errors.New("wildtype contains non-ASCII characters")
	// ErrWildtypeMismatch reports a strict-mode mismatch of the original residue.
	ErrWildtypeMismatch = errors.New("original residue does not match wildtype")
)

// MutateOptions controls how mutation codes are checked against the wildtype.
type MutateOptions struct {
	// Strict rejects codes whose original residue differs from the wildtype.
	Strict bool
}

// ParseMutation splits a code such as "P28T" into its parts. The position is
// returned zero-based and is not range checked.
func ParseMutation(code string) (Mutation, error) {
	code = NormalizeCode(code)
	if len(code) < 3 {
		return Mutation{}, fmt.Errorf("%w: %q", ErrMalformedMutation, code)
	}
	if !isASCII(code) {
		return Mutation{}, fmt.Errorf("%w: %q: non-ASCII residue", ErrMalformedMutation, code)
	}
	digits := strings.TrimSpace(code[1 : len(code)-1])
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return Mutation{}, fmt.Errorf("%w: %q: bad position", ErrMalformedMutation, code)
	}
	pos, err := strconv.Atoi(digits)
	if err != nil {
		return Mutation{}, fmt.Errorf("%w: %q: bad position", ErrMalformedMutation, code)
	}
	return Mutation{
		Code:     code,
		Original: code[0],
		Index:    pos - 1,
		Residue:  code[len(code)-1],
	}, nil
}

// Apply substitutes the mutation into wildtype. The original residue is only
// compared when opts.Strict is set.
func (m Mutation) Apply(wildtype string, opts MutateOptions) (string, error) {
	if m.Index < 0 || m.Index >= len(wildtype) {
		return "", fmt.Errorf("%w: %s (sequence length %d)", ErrPositionOutOfRange, m.Code, len(wildtype))
	}
	if opts.Strict && wildtype[m.Index] != m.Original {
		return "", fmt.Errorf("%w: %s (wildtype has %c)", ErrWildtypeMismatch, m.Code, wildtype[m.Index])
	}
	buf := []byte(wildtype)
	buf[m.Index] = m.Residue
	return string(buf), nil
}

// CreateMutantSeqs builds one mutant per code, in input order.
func CreateMutantSeqs(wildtype string, codes []string) ([]string, error) {
	return CreateMutantSeqsWithOptions(wildtype, codes, MutateOptions{})
}

// CreateMutantSeqsWithOptions is CreateMutantSeqs with explicit checking options.
func CreateMutantSeqsWithOptions(wildtype string, codes []string, opts MutateOptions) ([]string, error) {
	if !isASCII(wildtype) {
		return nil, ErrNonASCIIWildtype
	}
	out := make([]string, len(codes))
	for i, code := range codes {
		m, err := ParseMutation(code)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		seq, err := m.Apply(wildtype, opts)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = seq
	}
	return out, nil
}
