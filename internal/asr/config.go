package asr

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config locates the transducer model files the recognizer loads.
type Config struct {
	ModelPath   string
	EncoderPath string
	DecoderPath string
	JoinerPath  string
	TokensPath  string
	NumThreads  int
	SampleRate  int // Hz, podcasts are resampled to 16000 before decoding
}

// Published zipformer archives name their files either by training
// checkpoint or generically. Quantized variants decode podcast-length
// audio noticeably faster, so they are preferred when both exist.
var modelCandidates = []struct {
	part       string
	filenames  []string
	assignedTo func(*Config, string)
}{
	{
		part: "encoder",
		filenames: []string{
			"encoder-epoch-99-avg-1.int8.onnx",
			"encoder.int8.onnx",
			"encoder-epoch-99-avg-1.onnx",
			"encoder.onnx",
		},
		assignedTo: func(c *Config, p string) { c.EncoderPath = p },
	},
	{
		part: "decoder",
		filenames: []string{
			"decoder-epoch-99-avg-1.onnx",
			"decoder.onnx",
		},
		assignedTo: func(c *Config, p string) { c.DecoderPath = p },
	},
	{
		part: "joiner",
		filenames: []string{
			"joiner-epoch-99-avg-1.int8.onnx",
			"joiner.int8.onnx",
			"joiner-epoch-99-avg-1.onnx",
			"joiner.onnx",
		},
		assignedTo: func(c *Config, p string) { c.JoinerPath = p },
	},
	{
		part:       "tokens",
		filenames:  []string{"tokens.txt"},
		assignedTo: func(c *Config, p string) { c.TokensPath = p },
	},
}

// NewConfig scans modelDir for the transducer parts and fails when any
// of them is missing.
func NewConfig(modelDir string) (*Config, error) {
	config := &Config{
		ModelPath:  modelDir,
		NumThreads: 2,
		SampleRate: 16000,
	}

	for _, candidate := range modelCandidates {
		path := firstExisting(modelDir, candidate.filenames)
		if path == "" {
			return nil, fmt.Errorf("%s model not found in %s", candidate.part, modelDir)
		}
		candidate.assignedTo(config, path)
	}
	return config, nil
}

// Validate re-checks the resolved paths, catching a model directory that
// changed between configuration and recognizer construction.
func (c *Config) Validate() error {
	for part, path := range map[string]string{
		"encoder": c.EncoderPath,
		"decoder": c.DecoderPath,
		"joiner":  c.JoinerPath,
		"tokens":  c.TokensPath,
	} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%s file not usable: %s", part, path)
		}
	}
	return nil
}

func firstExisting(dir string, filenames []string) string {
	for _, name := range filenames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
