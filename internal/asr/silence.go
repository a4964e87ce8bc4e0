package asr

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
)

// SpeechBlock is a detected speech interval in seconds.
type SpeechBlock struct {
	Start float64
	End   float64
}

// SilenceConfig holds configuration for energy-based speech detection.
type SilenceConfig struct {
	// SilenceThreshold is the RMS level below which audio is considered
	// silence (0.0-1.0). Lower values are more sensitive.
	SilenceThreshold float64

	// MinSilenceDuration is the minimum silence duration that splits
	// blocks (seconds).
	MinSilenceDuration float64

	// MinSpeechDuration is the minimum speech duration to keep a block
	// (seconds).
	MinSpeechDuration float64

	// MaxBlockDuration is the maximum block duration before a forced
	// split (seconds). Zero disables splitting.
	MaxBlockDuration float64

	// FrameSize is the number of samples per frame for RMS calculation.
	FrameSize int
}

// DefaultSilenceConfig returns defaults tuned for 16kHz speech.
func DefaultSilenceConfig() *SilenceConfig {
	return &SilenceConfig{
		SilenceThreshold:   0.01,
		MinSilenceDuration: 0.3,
		MinSpeechDuration:  0.1,
		MaxBlockDuration:   5.0,
		FrameSize:          480, // 30ms at 16kHz
	}
}

// DetectSpeechBlocks finds speech intervals in the whole file using
// energy-based silence detection.
func DetectSpeechBlocks(inputPath string, config *SilenceConfig, sampleRate int) ([]SpeechBlock, error) {
	return DetectSpeechBlocksWindow(inputPath, config, sampleRate, 0, 0)
}

// DetectSpeechBlocksWindow is DetectSpeechBlocks restricted to a time
// window. offset is seconds into the file; window 0 means "to the end".
// Returned block times are relative to the window start.
func DetectSpeechBlocksWindow(inputPath string, config *SilenceConfig, sampleRate int, offset, window float64) ([]SpeechBlock, error) {
	if config == nil {
		config = DefaultSilenceConfig()
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	frames, err := rmsFrames(inputPath, config.FrameSize, sampleRate, offset, window)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, nil
	}

	frameDuration := float64(config.FrameSize) / float64(sampleRate)
	minSilenceFrames := int(config.MinSilenceDuration / frameDuration)
	minSpeechFrames := int(config.MinSpeechDuration / frameDuration)

	var blocks []SpeechBlock
	inSpeech := false
	speechStart := 0
	silenceCount := 0

	for i, rms := range frames {
		isSilent := rms < config.SilenceThreshold

		if !inSpeech {
			if !isSilent {
				inSpeech = true
				speechStart = i
				silenceCount = 0
			}
			continue
		}

		if isSilent {
			silenceCount++
			if silenceCount >= minSilenceFrames {
				speechEnd := i - silenceCount + 1
				if speechEnd-speechStart >= minSpeechFrames {
					blocks = append(blocks, SpeechBlock{
						Start: float64(speechStart) * frameDuration,
						End:   float64(speechEnd) * frameDuration,
					})
				}
				inSpeech = false
				silenceCount = 0
			}
		} else {
			silenceCount = 0
		}
	}

	// Speech running to the end of the window.
	if inSpeech {
		speechEnd := len(frames)
		if speechEnd-speechStart >= minSpeechFrames {
			blocks = append(blocks, SpeechBlock{
				Start: float64(speechStart) * frameDuration,
				End:   float64(speechEnd) * frameDuration,
			})
		}
	}

	return SplitLongBlocks(blocks, config.MaxBlockDuration), nil
}

// rmsFrames decodes the audio to mono s16le PCM via ffmpeg and computes
// the RMS of each frame.
func rmsFrames(inputPath string, frameSize, sampleRate int, offset, window float64) ([]float64, error) {
	args := []string{}
	if offset > 0 {
		args = append(args, "-ss", strconv.FormatFloat(offset, 'f', 3, 64))
	}
	if window > 0 {
		args = append(args, "-t", strconv.FormatFloat(window, 'f', 3, 64))
	}
	args = append(args,
		"-i", inputPath,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-",
	)

	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	reader := bufio.NewReader(stdout)
	var frames []float64
	frameSamples := make([]float32, 0, frameSize)

	buf := make([]byte, 2)
	for {
		_, err := io.ReadFull(reader, buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			cmd.Wait()
			return nil, fmt.Errorf("failed to read audio: %w", err)
		}

		sample := float32(int16(binary.LittleEndian.Uint16(buf))) / 32768.0
		frameSamples = append(frameSamples, sample)

		if len(frameSamples) >= frameSize {
			frames = append(frames, calculateRMS(frameSamples))
			frameSamples = frameSamples[:0]
		}
	}
	if len(frameSamples) > 0 {
		frames = append(frames, calculateRMS(frameSamples))
	}

	cmd.Wait()
	return frames, nil
}

// calculateRMS computes the root mean square of samples.
func calculateRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// SplitLongBlocks splits blocks longer than maxDuration into smaller
// chunks so recognition does not drop the beginning of long utterances.
func SplitLongBlocks(blocks []SpeechBlock, maxDuration float64) []SpeechBlock {
	if maxDuration <= 0 {
		return blocks
	}

	var result []SpeechBlock
	for _, block := range blocks {
		if block.End-block.Start <= maxDuration {
			result = append(result, block)
			continue
		}

		start := block.Start
		for start < block.End {
			end := start + maxDuration
			if end > block.End {
				end = block.End
			}
			result = append(result, SpeechBlock{Start: start, End: end})
			start = end
		}
	}
	return result
}
