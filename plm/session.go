// Package plm runs a protein language model exported to ONNX through
// ONNX Runtime and returns raw per-position vocabulary logits.
package plm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/klauspost/cpuid/v2"
	ort "github.com/yalue/onnxruntime_go"
)

// Config describes how to open a session.
type Config struct {
	OrtLib         string
	ModelPath      string
	InputName      string
	MaskInputName  string // optional attention mask input
	OutputName     string
	PadID          int64
	UseCUDA        bool
	DeviceID       int
	IntraOpThreads int
}

// Logits holds a [Batch, Tokens, Vocab] tensor in row-major order.
type Logits struct {
	Batch  int
	Tokens int
	Vocab  int
	Data   []float32
}

// Row returns the vocabulary logits for sequence b at token position t.
func (l Logits) Row(b, t int) []float32 {
	off := (b*l.Tokens + t) * l.Vocab
	return l.Data[off : off+l.Vocab]
}

// ORT keeps one environment per process; sessions share it.
var (
	envMu   sync.Mutex
	envRefs int
)

func acquireEnv(lib string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if envRefs == 0 {
		if lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	envRefs++
	return nil
}

func releaseEnv() {
	envMu.Lock()
	defer envMu.Unlock()
	if envRefs == 0 {
		return
	}
	envRefs--
	if envRefs == 0 {
		_ = ort.DestroyEnvironment()
	}
}

// Session is a loaded model bound to one execution provider.
type Session struct {
	cfg     Config
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

// Open initializes the ORT environment and loads the model.
func Open(cfg Config) (*Session, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is required")
	}
	if cfg.InputName == "" || cfg.OutputName == "" {
		return nil, errors.New("model input and output names are required")
	}
	if cfg.IntraOpThreads <= 0 {
		cfg.IntraOpThreads = DefaultThreads()
	}
	if err := acquireEnv(cfg.OrtLib); err != nil {
		return nil, err
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		releaseEnv()
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()
	if err := opts.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
		releaseEnv()
		return nil, fmt.Errorf("set intra-op threads: %w", err)
	}
	if cfg.UseCUDA {
		if err := appendCUDA(opts, cfg.DeviceID); err != nil {
			releaseEnv()
			return nil, err
		}
	}
	inputs := []string{cfg.InputName}
	if cfg.MaskInputName != "" {
		inputs = append(inputs, cfg.MaskInputName)
	}
	sess, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputs, []string{cfg.OutputName}, opts)
	if err != nil {
		releaseEnv()
		return nil, fmt.Errorf("load model %s: %w", cfg.ModelPath, err)
	}
	return &Session{cfg: cfg, session: sess}, nil
}

func appendCUDA(opts *ort.SessionOptions, deviceID int) error {
	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return fmt.Errorf("create cuda options: %w", err)
	}
	defer cuda.Destroy()
	if err := cuda.Update(map[string]string{"device_id": strconv.Itoa(deviceID)}); err != nil {
		return fmt.Errorf("configure cuda device %d: %w", deviceID, err)
	}
	if err := opts.AppendExecutionProviderCUDA(cuda); err != nil {
		return fmt.Errorf("enable cuda provider: %w", err)
	}
	return nil
}

// DefaultThreads returns the physical core count, or 1 when unknown.
func DefaultThreads() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return 1
}

// CPUBrand names the host CPU for logs.
func CPUBrand() string {
	return cpuid.CPU.BrandName
}

// Forward runs one inference pass over a rectangular token batch.
func (s *Session) Forward(ctx context.Context, tokens [][]int64) (Logits, error) {
	if err := ctx.Err(); err != nil {
		return Logits{}, err
	}
	if len(tokens) == 0 {
		return Logits{}, errors.New("forward: empty batch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return Logits{}, errors.New("session is closed")
	}
	batch, width := len(tokens), len(tokens[0])
	ids := make([]int64, 0, batch*width)
	for i, row := range tokens {
		if len(row) != width {
			return Logits{}, fmt.Errorf("forward: row %d has %d tokens, want %d", i, len(row), width)
		}
		ids = append(ids, row...)
	}
	shape := ort.NewShape(int64(batch), int64(width))
	input, err := ort.NewTensor(shape, ids)
	if err != nil {
		return Logits{}, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()
	inputs := []ort.Value{input}
	if s.cfg.MaskInputName != "" {
		maskTensor, err := ort.NewTensor(shape, AttentionMask(ids, s.cfg.PadID))
		if err != nil {
			return Logits{}, fmt.Errorf("create mask tensor: %w", err)
		}
		defer maskTensor.Destroy()
		inputs = append(inputs, maskTensor)
	}
	outputs := []ort.Value{nil}
	if err := s.session.Run(inputs, outputs); err != nil {
		return Logits{}, fmt.Errorf("run model: %w", err)
	}
	defer outputs[0].Destroy()
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return Logits{}, fmt.Errorf("output %s is not a float32 tensor", s.cfg.OutputName)
	}
	dims := out.GetShape()
	if len(dims) != 3 || int(dims[0]) != batch || int(dims[1]) != width {
		return Logits{}, fmt.Errorf("unexpected logits shape %v for batch %dx%d", dims, batch, width)
	}
	data := out.GetData()
	copied := make([]float32, len(data))
	copy(copied, data)
	return Logits{Batch: batch, Tokens: width, Vocab: int(dims[2]), Data: copied}, nil
}

// AttentionMask marks real tokens with 1 and padding with 0.
func AttentionMask(ids []int64, padID int64) []int64 {
	mask := make([]int64, len(ids))
	for i, id := range ids {
		if id != padID {
			mask[i] = 1
		}
	}
	return mask
}

// Close releases ORT resources.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	releaseEnv()
	return err
}
