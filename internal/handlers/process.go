package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"podcast-summarizer/internal/config"
	"podcast-summarizer/internal/jobs"
	"podcast-summarizer/internal/logger"
	"podcast-summarizer/internal/models"
	"podcast-summarizer/internal/result"
	"podcast-summarizer/internal/youtube"
)

// ProcessHandler accepts new processing jobs and serves their results.
type ProcessHandler struct {
	cfg        *config.Config
	runner     *jobs.Runner
	registry   *jobs.Registry
	store      *result.Store
	downloader *youtube.Downloader
	log        *logger.Logger
}

// NewProcessHandler creates a ProcessHandler.
func NewProcessHandler(cfg *config.Config, runner *jobs.Runner, registry *jobs.Registry, store *result.Store, downloader *youtube.Downloader, log *logger.Logger) *ProcessHandler {
	return &ProcessHandler{
		cfg:        cfg,
		runner:     runner,
		registry:   registry,
		store:      store,
		downloader: downloader,
		log:        log,
	}
}

// Upload receives an audio file and starts a processing job for it.
func (h *ProcessHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
	}

	jobID := uuid.New().String()
	audioPath := filepath.Join(h.cfg.UploadDir, jobID+filepath.Ext(file.Filename))

	if err := saveUpload(file, audioPath); err != nil {
		h.log.WithError(err).Error("failed to save upload")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error processing file: " + err.Error()})
	}
	h.log.WithJob(jobID).WithField("file", audioPath).Info("file saved")

	h.runner.Submit(&models.Job{
		ID:        jobID,
		FileName:  file.Filename,
		AudioPath: audioPath,
		Source:    &models.SourceInfo{Origin: "upload"},
	}, nil)

	return c.JSON(http.StatusOK, map[string]string{
		"job_id":    jobID,
		"status":    models.JobStatusProcessing,
		"file_name": file.Filename,
	})
}

// YouTube downloads the audio track of a video and starts a processing
// job for it. The download happens before the response so a bad URL
// fails fast.
func (h *ProcessHandler) YouTube(c echo.Context) error {
	url := c.FormValue("url")
	if url == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No YouTube URL provided"})
	}

	jobID := uuid.New().String()
	log := h.log.WithJob(jobID)

	audio, err := h.downloader.Fetch(c.Request().Context(), url)
	if err != nil {
		log.WithError(err).Error("youtube download failed")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Error processing YouTube URL: " + err.Error()})
	}

	h.runner.Submit(&models.Job{
		ID:        jobID,
		FileName:  filepath.Base(audio.FilePath),
		AudioPath: audio.FilePath,
		Source: &models.SourceInfo{
			Origin:   "youtube",
			URL:      url,
			Title:    audio.Title,
			Uploader: audio.Author,
			Duration: audio.Duration,
		},
	}, &models.AudioMetadata{
		Source:          "youtube",
		URL:             url,
		VideoTitle:      audio.Title,
		VideoAuthor:     audio.Author,
		DurationSeconds: audio.Duration,
	})

	return c.JSON(http.StatusOK, map[string]string{
		"job_id":    jobID,
		"status":    models.JobStatusProcessing,
		"file_name": filepath.Base(audio.FilePath),
	})
}

// Results serves the terminal result for a job. A job without a result
// file yet answers 202 so clients keep polling.
func (h *ProcessHandler) Results(c echo.Context) error {
	jobID := c.Param("job_id")

	data, err := h.store.Read(jobID)
	if os.IsNotExist(err) {
		return c.JSON(http.StatusAccepted, map[string]string{
			"job_id":  jobID,
			"status":  models.JobStatusProcessing,
			"message": "Still processing. Please try again later.",
		})
	}
	if err != nil {
		h.log.WithError(err).Error("failed to read result")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error retrieving results: " + err.Error()})
	}

	return c.JSONBlob(http.StatusOK, data)
}

// Job reports the in-memory lifecycle state of a job.
func (h *ProcessHandler) Job(c echo.Context) error {
	job, ok := h.registry.Get(c.Param("job_id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	return c.JSON(http.StatusOK, job)
}

// Health is the liveness probe.
func (h *ProcessHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Podcast Processing API",
	})
}

func saveUpload(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
