package mutscore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTableCSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "muts.csv", "\ufeffid,mutant\n1,A1G\n2,C2D\n")
	table, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "mutant"}, table.Header)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, ',', table.Comma)
}

func TestReadTableTSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "muts.tsv", "mutant\tnote\nA1G\tx\n")
	table, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, '\t', table.Comma)
	idx, err := table.ColumnIndex("mutant")
	require.NoError(t, err)
	col, err := table.Column(idx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1G"}, col)
}

func TestReadTableErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadTable(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	_, err = ReadTable(writeFile(t, dir, "empty.csv", ""))
	assert.Error(t, err)

	_, err = ReadTable(writeFile(t, dir, "bad.csv", "a,b\n\"unterminated,1\n"))
	assert.Error(t, err)
}

func TestColumnIndex(t *testing.T) {
	table := Table{Header: []string{"id", "Mutant", "score"}}
	idx, err := table.ColumnIndex("mutant")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = table.ColumnIndex("#3")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = table.ColumnIndex("#4")
	assert.ErrorIs(t, err, ErrColumnNotFound)
	_, err = table.ColumnIndex("#0")
	assert.Error(t, err)
	_, err = table.ColumnIndex("position")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestColumnShortRow(t *testing.T) {
	table := Table{Header: []string{"id", "mutant"}, Rows: [][]string{{"1", "A1G"}, {"2"}}}
	_, err := table.Column(1)
	assert.Error(t, err)
}

func TestAppendColumn(t *testing.T) {
	table := Table{Header: []string{"mutant"}, Rows: [][]string{{"A1G"}, {"C2D"}}}
	require.NoError(t, table.AppendColumn("score", []string{"1", "2"}))
	assert.Equal(t, []string{"mutant", "score"}, table.Header)
	assert.Equal(t, [][]string{{"A1G", "1"}, {"C2D", "2"}}, table.Rows)

	require.NoError(t, table.AppendColumn("score", []string{"3", "4"}))
	assert.Equal(t, []string{"mutant", "score"}, table.Header)
	assert.Equal(t, [][]string{{"A1G", "3"}, {"C2D", "4"}}, table.Rows)

	assert.Error(t, table.AppendColumn("x", []string{"1"}))
}

func TestWriteTableCreatesParents(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "dir", "out.csv")
	table := Table{Header: []string{"mutant", "score"}, Rows: [][]string{{"A1G", "-0.5"}}}
	require.NoError(t, WriteTable(out, table))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "mutant,score\nA1G,-0.5\n", string(data))
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "-1.25", FormatScore(-1.25))
	assert.Equal(t, "0", FormatScore(0))
}
