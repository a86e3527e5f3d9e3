package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"yashubustudio/mutscore/mutscore"
	"yashubustudio/mutscore/plm"
)

type cliOptions struct {
	configPath string
	job        mutscore.Job
	batchSize  int
	modelPath  string
	tokenizer  string
	ortLib     string
	device     string
	deviceID   int
	strict     bool
	quiet      bool
	set        map[string]bool
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("mutscore-cli: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("mutscore-cli: %v", err)
	}
}

func parseFlags(fs *flag.FlagSet, argv []string) (cliOptions, error) {
	var opts cliOptions
	fs.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	fs.StringVar(&opts.job.Wildtype, "wildtype", "", "Wildtype amino-acid sequence")
	fs.StringVar(&opts.job.InputPath, "input", "", "CSV/TSV file containing mutation codes such as P28T")
	fs.StringVar(&opts.job.Column, "column", "", "Column name or #index holding the mutation codes")
	fs.StringVar(&opts.job.OutputPath, "output", "", "CSV/TSV file to write results (parent directories are created)")
	fs.IntVar(&opts.batchSize, "batch-size", 128, "Number of mutants per forward pass")
	fs.StringVar(&opts.modelPath, "model", "", "ONNX model file (overrides config)")
	fs.StringVar(&opts.tokenizer, "tokenizer", "", "tokenizer.json (default: built-in ESM-2 alphabet)")
	fs.StringVar(&opts.ortLib, "ort-lib", "", "Path to the onnxruntime shared library")
	fs.StringVar(&opts.device, "device", "", "Execution device: cpu or cuda")
	fs.IntVar(&opts.deviceID, "device-id", 0, "CUDA device ordinal")
	fs.BoolVar(&opts.strict, "strict", false, "Reject codes whose original residue differs from the wildtype")
	fs.BoolVar(&opts.quiet, "quiet", false, "Do not draw the progress bar")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s --wildtype SEQ --input FILE --column NAME --output FILE [options]\n\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		return opts, err
	}
	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.job.InputPath = strings.TrimSpace(opts.job.InputPath)
	opts.job.Column = strings.TrimSpace(opts.job.Column)
	opts.job.OutputPath = strings.TrimSpace(opts.job.OutputPath)
	opts.device = strings.ToLower(strings.TrimSpace(opts.device))

	var missing []string
	if strings.TrimSpace(opts.job.Wildtype) == "" {
		missing = append(missing, "--wildtype")
	}
	if opts.job.InputPath == "" {
		missing = append(missing, "--input")
	}
	if opts.job.Column == "" {
		missing = append(missing, "--column")
	}
	if opts.job.OutputPath == "" {
		missing = append(missing, "--output")
	}
	if len(missing) > 0 {
		fs.Usage()
		return opts, fmt.Errorf("missing required %s", strings.Join(missing, ", "))
	}
	if opts.batchSize <= 0 {
		return opts, fmt.Errorf("--batch-size must be positive, got %d", opts.batchSize)
	}
	switch mutscore.Device(opts.device) {
	case "", mutscore.DeviceCPU, mutscore.DeviceCUDA:
	default:
		return opts, fmt.Errorf("unknown --device %q", opts.device)
	}
	return opts, nil
}

// resolveConfig overlays explicitly set flags on the file configuration.
func resolveConfig(opts cliOptions) (mutscore.Config, error) {
	cfg, err := mutscore.LoadConfig(opts.configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if opts.set["batch-size"] {
		cfg.BatchSize = opts.batchSize
	}
	if opts.modelPath != "" {
		cfg.Model.ModelPath = opts.modelPath
	}
	if opts.tokenizer != "" {
		cfg.Model.TokenizerPath = opts.tokenizer
	}
	if opts.ortLib != "" {
		cfg.Model.OrtLib = opts.ortLib
	}
	if opts.device != "" {
		cfg.Model.Device = mutscore.Device(opts.device)
	}
	if opts.set["device-id"] {
		cfg.Model.DeviceID = opts.deviceID
	}
	if opts.strict {
		cfg.Strict = true
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func run(opts cliOptions) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	tok, err := mutscore.NewTokenizer(cfg.Model.TokenizerPath)
	if err != nil {
		return fmt.Errorf("init tokenizer: %w", err)
	}
	model, err := mutscore.OpenModel(cfg.Model, tok.PadID())
	if err != nil {
		return err
	}
	defer model.Close()
	logger.Printf("Loaded %s on %s (cpu: %s, threads: %d)", cfg.Model.ModelPath, cfg.Model.Device, plm.CPUBrand(), threads(cfg))

	var progress io.Writer = os.Stderr
	if opts.quiet {
		progress = nil
	}
	scorer, err := mutscore.NewScorer(model, tok, cfg.BatchSize, mutscore.WithProgress(progress))
	if err != nil {
		return fmt.Errorf("init scorer: %w", err)
	}
	service, err := mutscore.NewService(scorer, cfg, logger)
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	result, err := service.ScoreTable(context.Background(), opts.job)
	if err != nil {
		return err
	}
	fmt.Printf("Scored %d mutants; results saved to %s\n", len(result.Scores), result.OutputPath)
	return nil
}

func threads(cfg mutscore.Config) int {
	if cfg.Model.IntraOpThreads > 0 {
		return cfg.Model.IntraOpThreads
	}
	return plm.DefaultThreads()
}
