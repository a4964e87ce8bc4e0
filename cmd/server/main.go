package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"podcast-summarizer/internal/asr"
	"podcast-summarizer/internal/config"
	"podcast-summarizer/internal/diarize"
	"podcast-summarizer/internal/handlers"
	"podcast-summarizer/internal/jobs"
	"podcast-summarizer/internal/logger"
	"podcast-summarizer/internal/pipeline"
	"podcast-summarizer/internal/result"
	"podcast-summarizer/internal/youtube"
)

// requestLogger logs one line per request through the shared logger so
// request lines carry the same fields and format as pipeline lines.
func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			err := next(c)

			entry := log.WithRequest(c.Request()).WithFields(logrus.Fields{
				"status":  c.Response().Status,
				"elapsed": time.Since(started).Round(time.Millisecond).String(),
			})
			if err != nil {
				entry.WithError(err).Warn("request failed")
			} else {
				entry.Info("request")
			}
			return err
		}
	}
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		log.WithError(err).Fatal("cannot create upload directory")
	}

	transcriber, err := asr.New(cfg.ModelDir, cfg.NumThreads, cfg.SampleRate)
	if err != nil {
		log.WithError(err).Fatal("cannot initialize speech recognition")
	}
	defer transcriber.Close()
	if cfg.ModelDir == "" {
		log.Warn("no speech model configured, transcription runs in mock mode")
	}

	store, err := result.NewStore(cfg.UploadDir)
	if err != nil {
		log.WithError(err).Fatal("cannot initialize result store")
	}

	diarizer := diarize.NewEnergyDiarizer(cfg.SampleRate)
	orchestrator := pipeline.New(cfg, transcriber, diarizer, store, log.Entry)

	registry := jobs.NewRegistry()
	runner := jobs.NewRunner(registry, orchestrator, log.Entry)
	downloader := youtube.NewDownloader(cfg.UploadDir, log.Entry)

	process := handlers.NewProcessHandler(cfg, runner, registry, store, downloader, log)
	audio := handlers.NewAudioHandler(cfg, store, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.POST("/api/upload", process.Upload)
	e.POST("/api/youtube", process.YouTube)
	e.GET("/api/results/:job_id", process.Results)
	e.GET("/api/jobs/:job_id", process.Job)
	e.GET("/api/healthcheck", process.Health)
	e.GET("/health", process.Health)
	e.GET("/api/audio/:filename", audio.Serve)
	e.POST("/api/trim", audio.Trim)
	e.POST("/api/trim_by_summary", audio.TrimBySummary)

	go func() {
		log.WithField("port", cfg.Port).Info("starting server")
		if err := e.Start(fmt.Sprintf(":%s", cfg.Port)); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	if !runner.Stop(30 * time.Second) {
		log.Warn("jobs still running at shutdown deadline")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}
