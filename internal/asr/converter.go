package asr

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// SupportedFormats lists audio formats accepted for processing.
var SupportedFormats = []string{".mp3", ".m4a", ".aac", ".ogg", ".flac", ".wav", ".webm", ".opus", ".mp4"}

// IsSupportedFormat checks if the file extension is a supported audio format.
func IsSupportedFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range SupportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// ConvertToWav converts an audio file to mono WAV at the given sample rate.
func ConvertToWav(inputPath, outputPath string, sampleRate int) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found: please install ffmpeg to convert audio files")
	}

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if sampleRate <= 0 {
		sampleRate = 16000
	}

	cmd := exec.Command("ffmpeg",
		"-i", inputPath,
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-f", "wav",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// ConvertToWavTemp converts an audio file to mono WAV in the temp
// directory. The caller removes the returned file when done.
func ConvertToWavTemp(inputPath string, sampleRate int) (string, error) {
	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(os.TempDir(), baseName+"_converted.wav")

	if err := ConvertToWav(inputPath, outputPath, sampleRate); err != nil {
		return "", err
	}

	return outputPath, nil
}

// NeedsConversion reports whether the file must be converted before
// recognition. WAV files already at 16kHz mono pass through untouched;
// anything ffprobe cannot verify is converted to be safe.
func NeedsConversion(inputPath string) bool {
	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext != ".wav" {
		return true
	}

	if _, err := exec.LookPath("ffprobe"); err != nil {
		return true
	}

	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels",
		"-of", "csv=p=0",
		inputPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return true
	}

	parts := strings.Split(strings.TrimSpace(string(output)), ",")
	if len(parts) != 2 {
		return true
	}

	return parts[0] != "16000" || parts[1] != "1"
}

// GetAudioDuration returns the duration of an audio file in seconds.
func GetAudioDuration(inputPath string) (float64, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, fmt.Errorf("ffprobe not found: please install ffmpeg")
	}

	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		inputPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to get audio duration: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}
