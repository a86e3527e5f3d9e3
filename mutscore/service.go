package mutscore

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Service runs the read, mutate, score, write pipeline over a mutation table.
type Service struct {
	scorer *Scorer
	cfg    Config
	logger *log.Logger
}

// NewService constructs a service around a ready scorer.
func NewService(scorer *Scorer, cfg Config, logger *log.Logger) (*Service, error) {
	if scorer == nil {
		return nil, errors.New("scorer is required")
	}
	cfg.ApplyDefaults()
	return &Service{scorer: scorer, cfg: cfg, logger: logger}, nil
}

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	return s.cfg.Clone()
}

// ScoreTable reads job.InputPath, scores every mutation in job.Column and
// writes the table with an appended score column to job.OutputPath.
func (s *Service) ScoreTable(ctx context.Context, job Job) (Result, error) {
	wildtype := NormalizeSequence(job.Wildtype)
	if wildtype == "" {
		return Result{}, errors.New("wildtype sequence is empty")
	}
	if job.OutputPath == "" {
		return Result{}, errors.New("output path is required")
	}
	table, err := ReadTable(job.InputPath)
	if err != nil {
		return Result{}, fmt.Errorf("read mutation table: %w", err)
	}
	col, err := table.ColumnIndex(job.Column)
	if err != nil {
		return Result{}, fmt.Errorf("resolve mutation column: %w", err)
	}
	codes, err := table.Column(col)
	if err != nil {
		return Result{}, fmt.Errorf("read mutation column: %w", err)
	}
	if len(codes) == 0 {
		return Result{}, errors.New("mutation table has no rows")
	}
	s.logf("Loaded %d mutations from %s (column %s)", len(codes), job.InputPath, table.Header[col])

	mutants, err := CreateMutantSeqsWithOptions(wildtype, codes, MutateOptions{Strict: s.cfg.Strict})
	if err != nil {
		return Result{}, fmt.Errorf("create mutants: %w", err)
	}
	scores, err := s.scorer.LogLikelihoodRatios(ctx, wildtype, mutants)
	if err != nil {
		return Result{}, fmt.Errorf("score mutants: %w", err)
	}

	cells := make([]string, len(scores))
	for i, v := range scores {
		cells[i] = FormatScore(v)
	}
	if err := table.AppendColumn(s.cfg.OutputColumn, cells); err != nil {
		return Result{}, err
	}
	if err := WriteTable(job.OutputPath, table); err != nil {
		return Result{}, fmt.Errorf("write results: %w", err)
	}
	s.logf("Wrote %d scores to %s", len(scores), job.OutputPath)
	return Result{OutputPath: job.OutputPath, Mutants: mutants, Scores: scores}, nil
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
