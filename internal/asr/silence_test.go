package asr

import (
	"math"
	"strings"
	"testing"
)

func TestCalculateRMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    float64
	}{
		{"empty", nil, 0},
		{"silence", []float32{0, 0, 0, 0}, 0},
		{"constant", []float32{0.5, 0.5, 0.5, 0.5}, 0.5},
		{"alternating", []float32{1, -1, 1, -1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateRMS(tt.samples)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("calculateRMS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitLongBlocks(t *testing.T) {
	blocks := []SpeechBlock{
		{Start: 0, End: 2},
		{Start: 3, End: 15},
	}

	got := SplitLongBlocks(blocks, 5.0)

	if len(got) != 4 {
		t.Fatalf("expected 4 blocks, got %d: %v", len(got), got)
	}
	if got[0] != blocks[0] {
		t.Fatalf("short block should pass through unchanged, got %v", got[0])
	}
	for i := 1; i < len(got); i++ {
		if d := got[i].End - got[i].Start; d > 5.0+1e-9 {
			t.Fatalf("block %d exceeds max duration: %v", i, got[i])
		}
		if i > 1 && math.Abs(got[i].Start-got[i-1].End) > 1e-9 {
			t.Fatalf("split blocks must be contiguous: %v then %v", got[i-1], got[i])
		}
	}
	if math.Abs(got[1].Start-3) > 1e-9 || math.Abs(got[len(got)-1].End-15) > 1e-9 {
		t.Fatalf("split must cover the original range, got %v", got)
	}
}

func TestIsSupportedFormat(t *testing.T) {
	supported := []string{"episode.mp3", "clip.WAV", "video.mp4", "talk.m4a"}
	for _, name := range supported {
		if !IsSupportedFormat(name) {
			t.Errorf("expected %q to be supported", name)
		}
	}
	unsupported := []string{"notes.txt", "archive.zip", "noextension"}
	for _, name := range unsupported {
		if IsSupportedFormat(name) {
			t.Errorf("expected %q to be unsupported", name)
		}
	}
}

func TestMockTranscriber(t *testing.T) {
	transcriber, err := New("", 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer transcriber.Close()

	result, err := transcriber.Transcribe("anything.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !result.MockMode {
		t.Fatal("expected mock mode to be flagged")
	}
	if result.Warning == "" {
		t.Fatal("expected a warning explaining the degraded mode")
	}
	if !strings.Contains(result.Text, "Mock transcription") {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if len(result.Segments) == 0 {
		t.Fatal("expected at least one placeholder segment")
	}
}
