package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"podcast-summarizer/internal/config"
	"podcast-summarizer/internal/jobs"
	"podcast-summarizer/internal/logger"
	"podcast-summarizer/internal/models"
	"podcast-summarizer/internal/result"
)

type stubProcessor struct {
	mu    sync.Mutex
	store *result.Store
	calls []string
}

func (p *stubProcessor) Process(ctx context.Context, jobID, filePath string, meta *models.AudioMetadata) {
	p.mu.Lock()
	p.calls = append(p.calls, jobID)
	p.mu.Unlock()

	record := models.NewResultRecord(jobID)
	record.Transcript = "hello from the stub"
	if p.store != nil {
		p.store.Write(record)
	}
}

func newTestHandlers(t *testing.T) (*ProcessHandler, *AudioHandler, *jobs.Runner) {
	t.Helper()

	cfg := config.Default()
	cfg.UploadDir = t.TempDir()

	store, err := result.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	log := logger.New().WithField("test", t.Name())
	registry := jobs.NewRegistry()
	runner := jobs.NewRunner(registry, &stubProcessor{store: store}, log.Entry)

	process := NewProcessHandler(cfg, runner, registry, store, nil, log)
	audio := NewAudioHandler(cfg, store, log)
	return process, audio, runner
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestUploadStartsJob(t *testing.T) {
	process, _, runner := newTestHandlers(t)
	defer runner.Stop(2 * time.Second)

	body, contentType := multipartUpload(t, "file", "episode.wav", []byte("RIFFdata"))
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	if err := process.Upload(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody(t, rec)
	if resp["status"] != models.JobStatusProcessing {
		t.Fatalf("unexpected status: %v", resp["status"])
	}
	if resp["file_name"] != "episode.wav" {
		t.Fatalf("unexpected file_name: %v", resp["file_name"])
	}
	jobID, _ := resp["job_id"].(string)
	if jobID == "" {
		t.Fatal("expected a job_id")
	}

	saved := filepath.Join(process.cfg.UploadDir, jobID+".wav")
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("uploaded file not saved: %v", err)
	}
	if string(data) != "RIFFdata" {
		t.Fatalf("unexpected file content: %q", data)
	}

	if !runner.Stop(2 * time.Second) {
		t.Fatal("runner did not drain")
	}

	reqResults := httptest.NewRequest(http.MethodGet, "/api/results/"+jobID, nil)
	recResults := httptest.NewRecorder()
	ctx := e.NewContext(reqResults, recResults)
	ctx.SetParamNames("job_id")
	ctx.SetParamValues(jobID)
	if err := process.Results(ctx); err != nil {
		t.Fatalf("Results: %v", err)
	}
	if recResults.Code != http.StatusOK {
		t.Fatalf("expected 200 after processing, got %d", recResults.Code)
	}
	record := decodeBody(t, recResults)
	if record["transcript"] != "hello from the stub" {
		t.Fatalf("unexpected transcription: %v", record["transcript"])
	}
}

func TestUploadWithoutFile(t *testing.T) {
	process, _, runner := newTestHandlers(t)
	defer runner.Stop(time.Second)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	rec := httptest.NewRecorder()

	if err := process.Upload(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "No file uploaded" {
		t.Fatalf("unexpected error: %v", resp["error"])
	}
}

func TestYouTubeWithoutURL(t *testing.T) {
	process, _, runner := newTestHandlers(t)
	defer runner.Stop(time.Second)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/youtube", nil)
	rec := httptest.NewRecorder()

	if err := process.YouTube(e.NewContext(req, rec)); err != nil {
		t.Fatalf("YouTube: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["error"] != "No YouTube URL provided" {
		t.Fatalf("unexpected error: %v", resp["error"])
	}
}

func TestResultsStillProcessing(t *testing.T) {
	process, _, runner := newTestHandlers(t)
	defer runner.Stop(time.Second)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/results/unknown", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("job_id")
	ctx.SetParamValues("unknown")

	if err := process.Results(ctx); err != nil {
		t.Fatalf("Results: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	if resp["message"] != "Still processing. Please try again later." {
		t.Fatalf("unexpected message: %v", resp["message"])
	}
	if resp["status"] != models.JobStatusProcessing {
		t.Fatalf("unexpected status: %v", resp["status"])
	}
}

func TestJobNotFound(t *testing.T) {
	process, _, runner := newTestHandlers(t)
	defer runner.Stop(time.Second)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("job_id")
	ctx.SetParamValues("missing")

	if err := process.Job(ctx); err != nil {
		t.Fatalf("Job: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	process, _, runner := newTestHandlers(t)
	defer runner.Stop(time.Second)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/healthcheck", nil)
	rec := httptest.NewRecorder()

	if err := process.Health(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp := decodeBody(t, rec); resp["service"] != "Podcast Processing API" {
		t.Fatalf("unexpected service: %v", resp["service"])
	}
}

func TestServeAudio(t *testing.T) {
	_, audio, runner := newTestHandlers(t)
	defer runner.Stop(time.Second)

	path := filepath.Join(audio.cfg.UploadDir, "clip.wav")
	if err := os.WriteFile(path, []byte("sound"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/audio/clip.wav", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("filename")
	ctx.SetParamValues("clip.wav")

	if err := audio.Serve(ctx); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "sound" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestServeAudioRejectsTraversal(t *testing.T) {
	_, audio, runner := newTestHandlers(t)
	defer runner.Stop(time.Second)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/audio/x", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("filename")
	ctx.SetParamValues("../../etc/passwd")

	if err := audio.Serve(ctx); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestParseSummaryPoints(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"json array", `["first point","second point"]`, []string{"first point", "second point"}},
		{"comma separated", "first point, second point", []string{"first point", "second point"}},
		{"blanks dropped", "keep,, ,also", []string{"keep", "also"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseSummaryPoints(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("point %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTrimMissingFile(t *testing.T) {
	_, audio, runner := newTestHandlers(t)
	defer runner.Stop(time.Second)

	form := "file_path=/api/audio/missing.wav&start_time=0&end_time=5"
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/trim", bytes.NewBufferString(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	if err := audio.Trim(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
