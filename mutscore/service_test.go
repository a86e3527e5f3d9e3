package mutscore

import (
	"bytes"
	"context"
	"log"
	"math"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, cfg Config) (*Service, *bytes.Buffer) {
	t.Helper()
	alpha := NewESMAlphabet()
	scorer, err := NewScorer(&fakeModel{vocab: alpha.VocabSize()}, alpha, cfg.BatchSize)
	require.NoError(t, err)
	var logs bytes.Buffer
	svc, err := NewService(scorer, cfg, log.New(&logs, "", 0))
	require.NoError(t, err)
	return svc, &logs
}

func TestScoreTableEndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "muts.csv", "mutant,label\nA1G,first\nC2D,second\n")
	out := filepath.Join(dir, "results", "scored.csv")

	svc, logs := newTestService(t, Config{})
	res, err := svc.ScoreTable(context.Background(), Job{
		Wildtype:   "ACDEFG",
		InputPath:  in,
		Column:     "mutant",
		OutputPath: out,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"GCDEFG", "ADDEFG"}, res.Mutants)
	require.Len(t, res.Scores, 2)

	table, err := ReadTable(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"mutant", "label", DefaultOutputColumn}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "first", table.Rows[0][1])
	for i, row := range table.Rows {
		v, err := strconv.ParseFloat(row[2], 64)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		assert.InDelta(t, res.Scores[i], v, 1e-12)
	}
	assert.Contains(t, logs.String(), "Loaded 2 mutations")
}

func TestScoreTableMissingColumn(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "muts.csv", "mutant\nA1G\n")
	svc, _ := newTestService(t, Config{})
	_, err := svc.ScoreTable(context.Background(), Job{Wildtype: "ACDEFG", InputPath: in, Column: "variant", OutputPath: filepath.Join(dir, "o.csv")})
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestScoreTableMalformedCode(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "muts.csv", "mutant\nA1G\nA99G\n")
	svc, _ := newTestService(t, Config{})
	_, err := svc.ScoreTable(context.Background(), Job{Wildtype: "ACDEFG", InputPath: in, Column: "mutant", OutputPath: filepath.Join(dir, "o.csv")})
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
}

func TestScoreTableStrictConfig(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "muts.csv", "mutant\nW1G\n")
	svc, _ := newTestService(t, Config{Strict: true})
	_, err := svc.ScoreTable(context.Background(), Job{Wildtype: "ACDEFG", InputPath: in, Column: "mutant", OutputPath: filepath.Join(dir, "o.csv")})
	assert.ErrorIs(t, err, ErrWildtypeMismatch)
}

func TestScoreTableMissingInput(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newTestService(t, Config{})
	_, err := svc.ScoreTable(context.Background(), Job{Wildtype: "ACDEFG", InputPath: filepath.Join(dir, "none.csv"), Column: "mutant", OutputPath: filepath.Join(dir, "o.csv")})
	assert.Error(t, err)
}

func TestScoreTableHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "muts.csv", "mutant\n")
	svc, _ := newTestService(t, Config{})
	_, err := svc.ScoreTable(context.Background(), Job{Wildtype: "ACDEFG", InputPath: in, Column: "mutant", OutputPath: filepath.Join(dir, "o.csv")})
	assert.Error(t, err)
}

func TestNewServiceRequiresScorer(t *testing.T) {
	_, err := NewService(nil, Config{}, nil)
	assert.Error(t, err)
}
