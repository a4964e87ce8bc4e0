package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"podcast-summarizer/internal/asr"
	"podcast-summarizer/internal/config"
	"podcast-summarizer/internal/logger"
	"podcast-summarizer/internal/media"
	"podcast-summarizer/internal/models"
	"podcast-summarizer/internal/result"
)

// AudioHandler serves stored audio files and cuts excerpts from them.
type AudioHandler struct {
	cfg   *config.Config
	store *result.Store
	log   *logger.Logger
}

// NewAudioHandler creates an AudioHandler.
func NewAudioHandler(cfg *config.Config, store *result.Store, log *logger.Logger) *AudioHandler {
	return &AudioHandler{cfg: cfg, store: store, log: log}
}

// Serve streams a file from the upload directory.
func (h *AudioHandler) Serve(c echo.Context) error {
	// filepath.Base strips any directory components from the request.
	filename := filepath.Base(c.Param("filename"))
	path := filepath.Join(h.cfg.UploadDir, filename)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "File not found"})
	}
	return c.File(path)
}

// Trim cuts a stored file to the requested time range and returns the
// URL of the new file.
func (h *AudioHandler) Trim(c echo.Context) error {
	path, err := h.resolvePath(c.FormValue("file_path"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "File not found"})
	}

	start, err1 := strconv.ParseFloat(c.FormValue("start_time"), 64)
	end, err2 := strconv.ParseFloat(c.FormValue("end_time"), 64)
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "start_time and end_time must be numbers"})
	}

	trimmed, err := media.Trim(path, start, end)
	if err != nil {
		h.log.WithError(err).Error("trim failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error trimming audio: " + err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"trimmed_file_url": "/api/audio/" + filepath.Base(trimmed),
		"start_time":       start,
		"end_time":         end,
	})
}

// TrimBySummary cuts a stored file down to the sections matching the
// given summary points and returns the highlight file.
func (h *AudioHandler) TrimBySummary(c echo.Context) error {
	path, err := h.resolvePath(c.FormValue("file_path"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "File not found"})
	}

	points := parseSummaryPoints(c.FormValue("summary_points"))
	if len(points) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No summary points provided"})
	}

	padding := 3.0
	if v := c.FormValue("padding_seconds"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			padding = parsed
		}
	}

	// When the job's transcript is available the points are matched
	// against what was actually said; otherwise the points are spread
	// evenly across the recording.
	var trimmed string
	var merged []models.TranscriptSegment
	if transcript := h.jobSegments(c.FormValue("job_id")); len(transcript) > 0 {
		trimmed, err = media.TrimBySummary(path, transcript, points, padding)
	} else {
		merged = media.MergeSegments(pointSegments(path, points), padding)
		trimmed, err = media.TrimToHighlights(path, merged)
	}
	if err != nil {
		h.log.WithError(err).Error("trim by summary failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error trimming by summary: " + err.Error()})
	}

	if merged == nil {
		merged = []models.TranscriptSegment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"trimmed_file_url": "/api/audio/" + filepath.Base(trimmed),
		"segments":         merged,
	})
}

// jobSegments loads the transcript segments stored for a finished job.
func (h *AudioHandler) jobSegments(jobID string) []models.TranscriptSegment {
	if jobID == "" || h.store == nil {
		return nil
	}
	data, err := h.store.Read(jobID)
	if err != nil {
		return nil
	}
	var record models.ResultRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil
	}
	return record.Segments
}

// resolvePath maps an /api/audio/ URL or bare filename onto the upload
// directory and verifies the file exists.
func (h *AudioHandler) resolvePath(raw string) (string, error) {
	if raw == "" {
		return "", os.ErrNotExist
	}

	path := raw
	if strings.HasPrefix(raw, "/api/audio/") || !strings.Contains(raw, string(os.PathSeparator)) {
		path = filepath.Join(h.cfg.UploadDir, filepath.Base(raw))
	}

	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// parseSummaryPoints accepts either a JSON array or a comma-separated
// list of points.
func parseSummaryPoints(raw string) []string {
	if raw == "" {
		return nil
	}

	var points []string
	if err := json.Unmarshal([]byte(raw), &points); err != nil {
		points = strings.Split(raw, ",")
	}

	var cleaned []string
	for _, p := range points {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return cleaned
}

// pointSegments spreads the summary points evenly over the recording.
// Without stored per-point timestamps this approximation gives each
// point a capped window of audio.
func pointSegments(path string, points []string) []models.TranscriptSegment {
	segments := make([]models.TranscriptSegment, 0, len(points))

	duration, err := asr.GetAudioDuration(path)
	if err == nil && duration > 0 {
		per := duration / float64(len(points))
		for i, point := range points {
			start := float64(i) * per
			width := per
			if width > 20 {
				width = 20
			}
			segments = append(segments, models.TranscriptSegment{
				Start: start,
				End:   start + width,
				Text:  point,
			})
		}
		return segments
	}

	for i, point := range points {
		segments = append(segments, models.TranscriptSegment{
			Start: float64(i) * 30,
			End:   float64(i)*30 + 15,
			Text:  point,
		})
	}
	return segments
}
