package media

import (
	"strings"
	"testing"

	"podcast-summarizer/internal/models"
)

func seg(start, end float64, text string) models.TranscriptSegment {
	return models.TranscriptSegment{Start: start, End: end, Text: text}
}

func TestMergeSegments(t *testing.T) {
	tests := []struct {
		name     string
		segments []models.TranscriptSegment
		padding  float64
		expected int
	}{
		{
			name:     "empty input",
			segments: nil,
			padding:  3,
			expected: 0,
		},
		{
			name:     "single segment",
			segments: []models.TranscriptSegment{seg(10, 12, "a")},
			padding:  3,
			expected: 1,
		},
		{
			name: "padding causes overlap and merge",
			segments: []models.TranscriptSegment{
				seg(10, 12, "a"),
				seg(14, 16, "b"),
			},
			padding:  3,
			expected: 1,
		},
		{
			name: "distant segments stay separate",
			segments: []models.TranscriptSegment{
				seg(10, 12, "a"),
				seg(30, 32, "b"),
			},
			padding:  3,
			expected: 2,
		},
		{
			name: "unsorted input is handled",
			segments: []models.TranscriptSegment{
				seg(30, 32, "b"),
				seg(10, 12, "a"),
			},
			padding:  3,
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeSegments(tt.segments, tt.padding)
			if len(got) != tt.expected {
				t.Fatalf("expected %d segments, got %d", tt.expected, len(got))
			}
			for i, s := range got {
				if s.Start < 0 {
					t.Errorf("segment %d start below zero: %f", i, s.Start)
				}
				if i > 0 && s.Start <= got[i-1].End {
					t.Errorf("segments %d and %d overlap after merge", i-1, i)
				}
			}
		})
	}
}

func TestMergeSegmentsJoinsText(t *testing.T) {
	got := MergeSegments([]models.TranscriptSegment{
		seg(10, 12, "first part"),
		seg(13, 15, "second part"),
	}, 3)
	if len(got) != 1 {
		t.Fatalf("expected merge into one segment, got %d", len(got))
	}
	if !strings.Contains(got[0].Text, "first part") || !strings.Contains(got[0].Text, "second part") {
		t.Errorf("expected joined text, got %q", got[0].Text)
	}
	if got[0].Start != 7 {
		t.Errorf("expected padded start 7, got %f", got[0].Start)
	}
	if got[0].End != 18 {
		t.Errorf("expected padded end 18, got %f", got[0].End)
	}
}

func TestTextSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "the quick brown fox", "the quick brown fox", 1, 1},
		{"disjoint", "alpha beta", "gamma delta", 0, 0},
		{"partial overlap", "database indexing strategies", "indexing strategies overview", 0.3, 0.9},
		{"empty", "", "something", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textSimilarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("similarity %f outside [%f, %f]", got, tt.min, tt.max)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{61.9, "01:01"},
		{3599, "59:59"},
		{3661, "61:01"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.expected {
			t.Errorf("FormatDuration(%f) = %q, expected %q", tt.seconds, got, tt.expected)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size     int64
		expected string
	}{
		{512, "512 bytes"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.expected {
			t.Errorf("FormatFileSize(%d) = %q, expected %q", tt.size, got, tt.expected)
		}
	}
}

func TestTrimRejectsBadRange(t *testing.T) {
	if _, err := Trim("/nonexistent/audio.wav", 0, 10); err == nil {
		t.Error("expected error for missing file")
	}
}
