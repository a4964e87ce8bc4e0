package media

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"podcast-summarizer/internal/models"
)

// probeOutput mirrors the parts of ffprobe's JSON output we read.
type probeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		Tags       struct {
			Title  string `json:"title"`
			Artist string `json:"artist"`
		} `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		BitRate    string `json:"bit_rate"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// ExtractMetadata probes the file with ffprobe and returns display-ready
// metadata. Failures are recorded in the Error field instead of being
// returned, so a broken probe never fails the surrounding job.
func ExtractMetadata(filePath string) *models.AudioMetadata {
	meta := &models.AudioMetadata{FilePath: filePath}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		meta.Error = "File not found"
		return meta
	}

	probe, err := probeFile(filePath)
	if err != nil {
		// Minimal fallback from the filesystem alone.
		meta.Error = fmt.Sprintf("metadata extraction failed: %v", err)
		if info, statErr := os.Stat(filePath); statErr == nil {
			meta.FileSize = FormatFileSize(info.Size())
		}
		if ext := filepath.Ext(filePath); ext != "" {
			meta.Format = strings.ToLower(ext[1:])
		}
		return meta
	}

	meta.Title = probe.Format.Tags.Title
	meta.Artist = probe.Format.Tags.Artist
	meta.Format = probe.Format.FormatName

	if probe.Format.Duration != "" {
		if secs, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			meta.Duration = FormatDuration(secs)
			meta.DurationSeconds = secs
		}
	}
	if probe.Format.Size != "" {
		if size, err := strconv.ParseInt(probe.Format.Size, 10, 64); err == nil {
			meta.FileSize = FormatFileSize(size)
		}
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		if stream.BitRate != "" {
			if bps, err := strconv.Atoi(stream.BitRate); err == nil {
				meta.Bitrate = fmt.Sprintf("%d kbps", bps/1000)
			}
		}
		if stream.SampleRate != "" {
			meta.SampleRate = stream.SampleRate + " Hz"
		}
		meta.Channels = stream.Channels
		break
	}

	return meta
}

func probeFile(filePath string) (*probeOutput, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-of", "json",
		filePath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &probe, nil
}

// FormatDuration renders seconds as MM:SS.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatFileSize renders a byte count in human-readable units.
func FormatFileSize(size int64) string {
	switch {
	case size < 1024:
		return fmt.Sprintf("%d bytes", size)
	case size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(size)/1024)
	case size < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB", float64(size)/(1024*1024*1024))
	}
}
