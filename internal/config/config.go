package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries every tunable of the processing pipeline as a named
// field. It is built once at startup and passed into the orchestrator;
// nothing below the entrypoint reads the environment.
type Config struct {
	// Server
	Port      string
	UploadDir string

	// Transcription
	ModelDir   string // sherpa-onnx model directory; empty enables mock mode
	NumThreads int
	SampleRate int

	// Diarization
	HFAccessToken        string // credential gate; diarization is skipped without it
	Collar               float64
	MinDiarizeSegments   int     // minimum transcript segments before diarization runs
	MinDiarizeDuration   float64 // minimum audio seconds before diarization runs
	SpeakerGapSplit      float64 // silence gap that flips identity in single-speaker splits
	MinSpeakers          int
	MaxSpeakers          int
	DiarizeChunkDuration float64 // chunked processing kicks in above this many seconds

	// Topic detection and summarization
	MinContentWords int // word-count gate shared by topics and summaries
	MaxTopics       int

	// Per-stage deadlines. Zero disables the deadline for that stage.
	DiarizationTimeout   time.Duration
	TopicTimeout         time.Duration
	SummarizationTimeout time.Duration

	// Summarization worker pool bound for chunked long-text processing.
	// Zero means min(chunk count, GOMAXPROCS).
	SummaryWorkers int
}

// Default returns the configuration defaults. Deadlines reflect relative
// stage cost: diarization is far more expensive than topic detection,
// which is more expensive than summarization.
func Default() *Config {
	return &Config{
		Port:                 "8080",
		UploadDir:            "./uploads",
		NumThreads:           2,
		SampleRate:           16000,
		Collar:               0.15,
		MinDiarizeSegments:   5,
		MinDiarizeDuration:   10,
		SpeakerGapSplit:      0.5,
		MinSpeakers:          1,
		MaxSpeakers:          8,
		DiarizeChunkDuration: 600,
		MinContentWords:      30,
		MaxTopics:            5,
		DiarizationTimeout:   300 * time.Second,
		TopicTimeout:         120 * time.Second,
		SummarizationTimeout: 60 * time.Second,
	}
}

// FromEnv builds a Config from the process environment on top of the
// defaults. Call godotenv.Load before this if a .env file should apply.
func FromEnv() *Config {
	c := Default()

	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		c.UploadDir = v
	}
	c.ModelDir = os.Getenv("ASR_MODEL_DIR")
	c.HFAccessToken = os.Getenv("HF_ACCESS_TOKEN")

	if v := envInt("ASR_NUM_THREADS"); v > 0 {
		c.NumThreads = v
	}
	if v := envInt("DIARIZATION_TIMEOUT"); v >= 0 && os.Getenv("DIARIZATION_TIMEOUT") != "" {
		c.DiarizationTimeout = time.Duration(v) * time.Second
	}
	if v := envInt("TOPIC_DETECTION_TIMEOUT"); v >= 0 && os.Getenv("TOPIC_DETECTION_TIMEOUT") != "" {
		c.TopicTimeout = time.Duration(v) * time.Second
	}
	if v := envInt("SUMMARIZATION_TIMEOUT"); v >= 0 && os.Getenv("SUMMARIZATION_TIMEOUT") != "" {
		c.SummarizationTimeout = time.Duration(v) * time.Second
	}
	if v := envFloat("DIARIZE_CHUNK_DURATION"); v > 0 {
		c.DiarizeChunkDuration = v
	}
	if v := envInt("SUMMARY_WORKERS"); v > 0 {
		c.SummaryWorkers = v
	}

	return c
}

// Validate checks invariants that would otherwise surface as confusing
// mid-pipeline failures.
func (c *Config) Validate() error {
	if c.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}
	if c.Collar < 0 {
		return fmt.Errorf("collar must be non-negative, got %f", c.Collar)
	}
	if c.SpeakerGapSplit <= 0 {
		return fmt.Errorf("speaker gap split must be positive, got %f", c.SpeakerGapSplit)
	}
	if c.MinSpeakers < 1 || c.MaxSpeakers < c.MinSpeakers {
		return fmt.Errorf("invalid speaker bounds: min=%d max=%d", c.MinSpeakers, c.MaxSpeakers)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	return nil
}

func envInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}

func envFloat(key string) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return 0
	}
	return v
}
