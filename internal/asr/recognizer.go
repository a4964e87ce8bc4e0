package asr

import (
	"fmt"
	"os"
	"strings"
	"time"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"podcast-summarizer/internal/models"
)

// recognizer is the sherpa-onnx backed Transcriber.
type recognizer struct {
	config     *Config
	silence    *SilenceConfig
	recognizer *sherpa.OfflineRecognizer
}

// NewRecognizer builds the sherpa-onnx recognizer from a validated
// model configuration.
func NewRecognizer(config *Config) (*recognizer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	sherpaConfig := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: config.SampleRate,
			FeatureDim: 80,
		},
		ModelConfig: sherpa.OfflineModelConfig{
			Transducer: sherpa.OfflineTransducerModelConfig{
				Encoder: config.EncoderPath,
				Decoder: config.DecoderPath,
				Joiner:  config.JoinerPath,
			},
			Tokens:     config.TokensPath,
			NumThreads: config.NumThreads,
			Debug:      0,
		},
	}

	rec := sherpa.NewOfflineRecognizer(&sherpaConfig)
	if rec == nil {
		return nil, fmt.Errorf("failed to create offline recognizer")
	}

	return &recognizer{
		config:     config,
		silence:    DefaultSilenceConfig(),
		recognizer: rec,
	}, nil
}

// Transcribe converts the input to WAV when needed, splits it into
// speech blocks by silence detection, and transcribes each block
// separately. A block that fails to decode is skipped; the remaining
// blocks still produce output.
func (r *recognizer) Transcribe(audioPath string) (*Result, error) {
	startTime := time.Now()

	wavPath := audioPath
	if NeedsConversion(audioPath) {
		converted, err := ConvertToWavTemp(audioPath, r.config.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to convert audio: %w", err)
		}
		defer os.Remove(converted)
		wavPath = converted
	}

	samples, err := readWavFile(wavPath)
	if err != nil {
		return nil, err
	}

	blocks, err := DetectSpeechBlocks(wavPath, r.silence, r.config.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("silence detection failed: %w", err)
	}
	if len(blocks) == 0 {
		// No speech found; try the whole file as a single block.
		total := float64(len(samples)) / float64(r.config.SampleRate)
		blocks = []SpeechBlock{{Start: 0, End: total}}
	}

	var segments []models.TranscriptSegment
	var parts []string
	for _, block := range blocks {
		text := r.decodeRange(samples, block)
		if text == "" {
			continue
		}
		segments = append(segments, models.TranscriptSegment{
			Start: block.Start,
			End:   block.End,
			Text:  text,
		})
		parts = append(parts, text)
	}

	return &Result{
		Text:     strings.Join(parts, " "),
		Segments: segments,
		Duration: time.Since(startTime).Seconds(),
	}, nil
}

// decodeRange runs offline decoding on the sample range covered by a
// speech block. Returns "" when the block produced nothing.
func (r *recognizer) decodeRange(samples []float32, block SpeechBlock) string {
	start := int(block.Start * float64(r.config.SampleRate))
	end := int(block.End * float64(r.config.SampleRate))
	if start < 0 {
		start = 0
	}
	if end > len(samples) {
		end = len(samples)
	}
	if end <= start {
		return ""
	}

	stream := sherpa.NewOfflineStream(r.recognizer)
	if stream == nil {
		return ""
	}
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(r.config.SampleRate, samples[start:end])
	r.recognizer.Decode(stream)

	return strings.TrimSpace(stream.GetResult().Text)
}

// Close releases the underlying sherpa recognizer.
func (r *recognizer) Close() error {
	if r.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(r.recognizer)
		r.recognizer = nil
	}
	return nil
}

// readWavFile reads a WAV file into float32 samples.
func readWavFile(path string) ([]float32, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	wave := sherpa.ReadWave(path)
	if wave == nil || len(wave.Samples) == 0 {
		return nil, fmt.Errorf("failed to read WAV file or file is empty")
	}

	return wave.Samples, nil
}
