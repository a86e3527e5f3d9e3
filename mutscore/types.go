package mutscore

import "encoding/json"

// DefaultOutputColumn is the header of the appended score column.
const DefaultOutputColumn = "log_likelihood_ratio"

// Device selects the ONNX Runtime execution provider.
type Device string

const (
	// DeviceCPU runs the model on the default CPU provider.
	DeviceCPU Device = "cpu"
	// DeviceCUDA runs the model on the CUDA provider.
	DeviceCUDA Device = "cuda"
)

// ModelConfig wraps the configuration for the ORT session and its tokenizer.
type ModelConfig struct {
	OrtLib         string `json:"ortLib"`
	ModelPath      string `json:"modelPath"`
	TokenizerPath  string `json:"tokenizerPath"`
	InputName      string `json:"inputName"`
	MaskInputName  string `json:"maskInputName"`
	OutputName     string `json:"outputName"`
	Device         Device `json:"device"`
	DeviceID       int    `json:"deviceId"`
	IntraOpThreads int    `json:"intraOpThreads"`
}

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	BatchSize    int         `json:"batchSize"`
	OutputColumn string      `json:"outputColumn"`
	Strict       bool        `json:"strict"`
	Model        ModelConfig `json:"model"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 128
	}
	if c.OutputColumn == "" {
		c.OutputColumn = DefaultOutputColumn
	}
	if c.Model.InputName == "" {
		c.Model.InputName = "input_ids"
	}
	if c.Model.OutputName == "" {
		c.Model.OutputName = "logits"
	}
	if c.Model.Device == "" {
		c.Model.Device = DeviceCPU
	}
}

// Mutation is a parsed point substitution.
type Mutation struct {
	Code     string
	Original byte
	Index    int // zero-based
	Residue  byte
}

// Table is a delimited file held in memory. Rows exclude the header.
type Table struct {
	Header []string
	Rows   [][]string
	Comma  rune
}

// Job describes one scoring run over a mutation table.
type Job struct {
	Wildtype   string
	InputPath  string
	Column     string
	OutputPath string
}

// Result summarizes a finished run.
type Result struct {
	OutputPath string
	Mutants    []string
	Scores     []float64
}
