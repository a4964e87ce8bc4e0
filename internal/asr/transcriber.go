package asr

import "podcast-summarizer/internal/models"

// Result is the complete transcription output for one audio file.
type Result struct {
	Text     string                     `json:"text"`
	Segments []models.TranscriptSegment `json:"segments"`
	Duration float64                    `json:"duration"` // processing time in seconds

	// MockMode is set when no speech model is configured and the result
	// is a placeholder. Warning carries the human-readable explanation.
	MockMode bool   `json:"mock_mode,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// Transcriber converts an audio file into text plus timestamped segments.
type Transcriber interface {
	Transcribe(audioPath string) (*Result, error)
	Close() error
}

// New builds the transcriber for the given model directory. An empty
// directory selects mock mode rather than failing, so the pipeline can run
// end to end without a model; an invalid directory is a construction error
// and the one unrecoverable-at-start condition of the pipeline.
func New(modelDir string, numThreads, sampleRate int) (Transcriber, error) {
	if modelDir == "" {
		return &mockTranscriber{}, nil
	}

	config, err := NewConfig(modelDir)
	if err != nil {
		return nil, err
	}
	if numThreads > 0 {
		config.NumThreads = numThreads
	}
	if sampleRate > 0 {
		config.SampleRate = sampleRate
	}

	rec, err := NewRecognizer(config)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// mockTranscriber stands in when no model is available. The degraded mode
// is explicit in the result rather than probed by callers.
type mockTranscriber struct{}

func (m *mockTranscriber) Transcribe(audioPath string) (*Result, error) {
	const text = "Mock transcription: no speech recognition model is configured."
	return &Result{
		Text: text,
		Segments: []models.TranscriptSegment{
			{Start: 0, End: 1, Text: text},
		},
		MockMode: true,
		Warning:  "Running in mock mode - speech recognition model not available. Results may be limited.",
	}, nil
}

func (m *mockTranscriber) Close() error { return nil }
