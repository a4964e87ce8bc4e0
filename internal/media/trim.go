package media

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"podcast-summarizer/internal/asr"
	"podcast-summarizer/internal/models"
)

// Trim cuts the file to [start, end] seconds and writes the result next
// to the input with a timestamped name. The stream is copied, not
// re-encoded.
func Trim(filePath string, start, end float64) (string, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return "", fmt.Errorf("file not found: %s", filePath)
	}

	if start < 0 {
		start = 0
	}
	if duration, err := asr.GetAudioDuration(filePath); err == nil && end > duration {
		end = duration
	}
	if start >= end {
		return "", fmt.Errorf("start time must be less than end time")
	}

	outputPath := timestampedPath(filePath, "trimmed")

	cmd := exec.Command("ffmpeg",
		"-ss", strconv.FormatFloat(start, 'f', 3, 64),
		"-to", strconv.FormatFloat(end, 'f', 3, 64),
		"-i", filePath,
		"-c", "copy",
		"-y",
		outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg trim failed: %w\nOutput: %s", err, string(output))
	}

	return outputPath, nil
}

// MergeSegments pads each segment and merges the ones that overlap
// after padding. Text of merged segments is concatenated.
func MergeSegments(segments []models.TranscriptSegment, padding float64) []models.TranscriptSegment {
	if len(segments) == 0 {
		return nil
	}

	padded := make([]models.TranscriptSegment, len(segments))
	copy(padded, segments)
	sort.Slice(padded, func(i, j int) bool { return padded[i].Start < padded[j].Start })

	for i := range padded {
		padded[i].Start -= padding
		if padded[i].Start < 0 {
			padded[i].Start = 0
		}
		padded[i].End += padding
	}

	merged := []models.TranscriptSegment{padded[0]}
	for _, next := range padded[1:] {
		current := &merged[len(merged)-1]
		if next.Start <= current.End {
			if next.End > current.End {
				current.End = next.End
			}
			if next.Text != "" {
				current.Text = strings.TrimSpace(current.Text + " " + next.Text)
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// TrimToHighlights concatenates the given segments of the file into a
// single highlight recording. A single segment degenerates to Trim.
func TrimToHighlights(filePath string, segments []models.TranscriptSegment) (string, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("no segments provided for trimming")
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return "", fmt.Errorf("file not found: %s", filePath)
	}

	if len(segments) == 1 {
		return Trim(filePath, segments[0].Start, segments[0].End)
	}

	tempDir, err := os.MkdirTemp("", "highlights")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	// Cut each segment to its own file, then concatenate them with the
	// concat demuxer.
	ext := filepath.Ext(filePath)
	var listLines []string
	for i, seg := range segments {
		if seg.End <= seg.Start {
			continue
		}
		partPath := filepath.Join(tempDir, fmt.Sprintf("part_%03d%s", i, ext))
		cmd := exec.Command("ffmpeg",
			"-ss", strconv.FormatFloat(seg.Start, 'f', 3, 64),
			"-to", strconv.FormatFloat(seg.End, 'f', 3, 64),
			"-i", filePath,
			"-c", "copy",
			"-y",
			partPath,
		)
		if output, err := cmd.CombinedOutput(); err != nil {
			return "", fmt.Errorf("ffmpeg segment cut failed: %w\nOutput: %s", err, string(output))
		}
		listLines = append(listLines, fmt.Sprintf("file '%s'", partPath))
	}
	if len(listLines) == 0 {
		return "", fmt.Errorf("no valid segments to include")
	}

	listPath := filepath.Join(tempDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(strings.Join(listLines, "\n")+"\n"), 0644); err != nil {
		return "", fmt.Errorf("failed to write concat list: %w", err)
	}

	outputPath := timestampedPath(filePath, "highlights")
	cmd := exec.Command("ffmpeg",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg concat failed: %w\nOutput: %s", err, string(output))
	}

	return outputPath, nil
}

// TrimBySummary keeps only the parts of the recording whose transcript
// matches one of the extractive summary points. Returns the input path
// unchanged when no point matches any segment.
func TrimBySummary(filePath string, segments []models.TranscriptSegment, points []string, padding float64) (string, error) {
	var matched []models.TranscriptSegment
	for _, point := range points {
		pointText := strings.ToLower(strings.TrimSpace(point))
		if pointText == "" {
			continue
		}
		for _, seg := range segments {
			segText := strings.ToLower(strings.TrimSpace(seg.Text))
			if strings.Contains(segText, pointText) || textSimilarity(pointText, segText) > 0.75 {
				matched = append(matched, seg)
				break
			}
		}
	}

	merged := MergeSegments(matched, padding)
	if len(merged) == 0 {
		return filePath, nil
	}

	return TrimToHighlights(filePath, merged)
}

var wordToken = regexp.MustCompile(`\b\w+\b`)

// textSimilarity is the Jaccard similarity of the two word sets.
func textSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, w := range wordToken.FindAllString(strings.ToLower(text), -1) {
		set[w] = true
	}
	return set
}

func timestampedPath(filePath, suffix string) string {
	ext := filepath.Ext(filePath)
	stem := strings.TrimSuffix(filepath.Base(filePath), ext)
	name := fmt.Sprintf("%s_%s_%s%s", stem, suffix, time.Now().Format("20060102_150405"), ext)
	return filepath.Join(filepath.Dir(filePath), name)
}
