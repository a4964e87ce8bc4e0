package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"podcast-summarizer/internal/asr"
	"podcast-summarizer/internal/config"
	"podcast-summarizer/internal/diarize"
	"podcast-summarizer/internal/media"
	"podcast-summarizer/internal/models"
	"podcast-summarizer/internal/result"
	"podcast-summarizer/internal/summarize"
	"podcast-summarizer/internal/topics"
)

// Orchestrator runs the full processing pipeline for one audio file:
// metadata extraction, transcription, speaker diarization, topic
// detection, and summarization. Only a missing or failed transcript
// aborts the run early; every later stage degrades to a recorded
// error or placeholder so a partial result is always produced.
type Orchestrator struct {
	cfg          *config.Config
	transcriber  asr.Transcriber
	diarizer     diarize.Diarizer
	consolidator *diarize.Consolidator
	detector     *topics.Detector
	extractive   extractiveSummarizer
	abstractive  abstractiveSummarizer
	store        *result.Store
	log          *logrus.Entry
}

type extractiveSummarizer interface {
	Summarize(text string) []string
}

type abstractiveSummarizer interface {
	Summarize(text string) string
}

// New wires an Orchestrator from its collaborators. The diarizer is
// wrapped for chunked processing of long recordings.
func New(cfg *config.Config, transcriber asr.Transcriber, diarizer diarize.Diarizer, store *result.Store, log *logrus.Entry) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		transcriber: transcriber,
		diarizer: &diarize.ChunkedDiarizer{
			Inner:         diarizer,
			ChunkDuration: cfg.DiarizeChunkDuration,
			Log:           log,
		},
		consolidator: diarize.NewConsolidator(cfg.Collar, cfg.SpeakerGapSplit),
		detector:     topics.NewDetector(cfg.MaxTopics),
		extractive:   summarize.NewExtractive(),
		abstractive:  summarize.NewAbstractive(cfg.SummaryWorkers),
		store:        store,
		log:          log,
	}
}

// Process runs the pipeline for one job and writes the terminal result.
// meta carries source information for downloads and may be nil.
func (o *Orchestrator) Process(ctx context.Context, jobID, filePath string, meta *models.AudioMetadata) {
	log := o.log.WithField("job_id", jobID)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("processing panicked: %v", r)
			if err := o.store.WriteError(jobID, fmt.Errorf("processing failed: %v", r)); err != nil {
				log.WithError(err).Error("failed to write error result")
			}
		}
	}()

	log.WithField("file", filePath).Info("starting processing")
	record := models.NewResultRecord(jobID)

	record.Metadata = o.extractMetadata(filePath, meta)

	if done := o.transcribe(record, filePath, log); done {
		o.writeResult(record, log)
		return
	}

	o.diarize(ctx, record, filePath, log)
	o.detectTopics(ctx, record, log)
	o.summarize(ctx, record, log)

	o.writeResult(record, log)
}

func (o *Orchestrator) extractMetadata(filePath string, provided *models.AudioMetadata) *models.AudioMetadata {
	meta := media.ExtractMetadata(filePath)
	meta.AudioURL = "/api/audio/" + filepath.Base(filePath)

	if provided != nil {
		if provided.Source != "" {
			meta.Source = provided.Source
		}
		if provided.URL != "" {
			meta.URL = provided.URL
		}
		if provided.VideoTitle != "" {
			meta.VideoTitle = provided.VideoTitle
		}
		if provided.VideoAuthor != "" {
			meta.VideoAuthor = provided.VideoAuthor
		}
		if provided.DurationSeconds > 0 {
			meta.DurationSeconds = provided.DurationSeconds
		}
	}
	return meta
}

// transcribe fills the transcript fields. It reports true when the
// pipeline cannot continue, which is the single early-exit condition.
func (o *Orchestrator) transcribe(record *models.ResultRecord, filePath string, log *logrus.Entry) bool {
	log.Info("transcribing audio")

	res, err := o.transcriber.Transcribe(filePath)
	if err != nil {
		log.WithError(err).Error("transcription failed")
		record.Transcript = models.ErrorMarker + " " + err.Error()
		record.Segments = []models.TranscriptSegment{}
		return true
	}

	record.Transcript = res.Text
	record.Segments = res.Segments
	if record.Segments == nil {
		record.Segments = []models.TranscriptSegment{}
	}
	if res.MockMode {
		record.AddWarning(res.Warning)
	}

	if record.Transcript == "" || strings.HasPrefix(record.Transcript, models.ErrorMarker) {
		log.Warn("no valid transcript, skipping remaining stages")
		return true
	}
	return false
}

type diarizeOutcome struct {
	turns  []models.SpeakerTurn
	reason string
}

func (o *Orchestrator) diarize(ctx context.Context, record *models.ResultRecord, filePath string, log *logrus.Entry) {
	duration := 0.0
	for _, seg := range record.Segments {
		if seg.End > duration {
			duration = seg.End
		}
	}

	res := o.runDiarization(ctx, record, filePath, duration, log)
	if res.Status != StageOk {
		record.Diarization = &models.DiarizationResult{Error: res.Reason}
		return
	}

	consolidated := o.consolidator.Consolidate(res.Value.turns)
	if o.cfg.MinSpeakers == o.cfg.MaxSpeakers && o.cfg.MinSpeakers >= 2 {
		consolidated = o.consolidator.EnforceSpeakerCount(consolidated, o.cfg.MinSpeakers)
	}
	attachText(consolidated, record.Segments)

	record.Diarization = &models.DiarizationResult{
		Error:      res.Value.reason,
		Segments:   consolidated,
		Statistics: diarize.Statistics(consolidated, duration),
	}

	if res.Value.reason == "" {
		// Speaker-aware boundaries supersede the transcription ones.
		record.Segments = transcriptFromConsolidated(consolidated)
		log.WithFields(logrus.Fields{
			"segments": len(consolidated),
			"speakers": record.Diarization.Statistics.SpeakerCount,
		}).Info("diarization complete")
	}
}

// runDiarization applies the precondition gates and, when they pass,
// runs the diarizer stage. A diarizer error inside the stage yields the
// unknown-speaker sentinel plus a reason rather than a failure, so the
// timeline is still displayable.
func (o *Orchestrator) runDiarization(ctx context.Context, record *models.ResultRecord, filePath string, duration float64, log *logrus.Entry) StageResult[diarizeOutcome] {
	if o.cfg.HFAccessToken == "" {
		log.Warn("skipping diarization, access token not set")
		return stageSkipped[diarizeOutcome]("Hugging Face access token not provided")
	}
	if len(record.Segments) == 0 {
		return stageSkipped[diarizeOutcome]("No valid segments available for diarization")
	}
	if duration < o.cfg.MinDiarizeDuration || len(record.Segments) < o.cfg.MinDiarizeSegments {
		log.Warnf("skipping diarization, audio too short (%.1fs, %d segments)", duration, len(record.Segments))
		return stageSkipped[diarizeOutcome]("Audio too short for speaker detection")
	}

	log.Info("starting speaker diarization")
	return runStage(ctx, log, "Speaker diarization", o.cfg.DiarizationTimeout, func() (diarizeOutcome, error) {
		turns, err := o.diarizer.Diarize(filePath, diarize.Options{
			MinSpeakers: o.cfg.MinSpeakers,
			MaxSpeakers: o.cfg.MaxSpeakers,
		})
		if err != nil {
			return diarizeOutcome{turns: diarize.Sentinel(), reason: err.Error()}, nil
		}
		if len(turns) == 0 {
			return diarizeOutcome{turns: diarize.Sentinel(), reason: "No valid segments available for diarization"}, nil
		}
		return diarizeOutcome{turns: turns}, nil
	})
}

func (o *Orchestrator) detectTopics(ctx context.Context, record *models.ResultRecord, log *logrus.Entry) {
	record.Topics = []models.Topic{}

	res := o.runTopicDetection(ctx, record, log)
	if res.Status == StageOk && res.Value != nil {
		record.Topics = res.Value
	}
}

func (o *Orchestrator) runTopicDetection(ctx context.Context, record *models.ResultRecord, log *logrus.Entry) StageResult[[]models.Topic] {
	if summarize.WordCount(record.Transcript) < o.cfg.MinContentWords {
		log.Warn("transcript too short for topic detection")
		return stageSkipped[[]models.Topic]("Transcript too short for topic detection")
	}

	log.Info("detecting topics")
	return runStage(ctx, log, "Topic detection", o.cfg.TopicTimeout, func() ([]models.Topic, error) {
		return o.detector.Detect(record.Transcript), nil
	})
}

type summaries struct {
	abstractive string
	extractive  []string
}

func (o *Orchestrator) summarize(ctx context.Context, record *models.ResultRecord, log *logrus.Entry) {
	res := o.runSummarization(ctx, record, log)
	switch res.Status {
	case StageSkipped:
		record.AbstractiveSummary = "The content is too short for a meaningful summary."
		record.ExtractiveSummary = []string{"The content is too short for extracting key points."}
	case StageFailed:
		record.AbstractiveSummary = "Summarization timed out"
		record.ExtractiveSummary = []string{"Summarization timed out"}
	default:
		record.AbstractiveSummary = res.Value.abstractive
		record.ExtractiveSummary = res.Value.extractive
	}
}

// runSummarization runs both summarizers under one deadline. Each side
// recovers separately, so a failure in one leaves the other's result
// intact.
func (o *Orchestrator) runSummarization(ctx context.Context, record *models.ResultRecord, log *logrus.Entry) StageResult[summaries] {
	if summarize.WordCount(record.Transcript) < o.cfg.MinContentWords {
		log.Warn("transcript too short for summarization")
		return stageSkipped[summaries]("Transcript too short for summarization")
	}

	log.Info("generating summaries")
	return runStage(ctx, log, "Summarization", o.cfg.SummarizationTimeout, func() (summaries, error) {
		var out summaries
		out.extractive = func() (points []string) {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("extractive summarization panicked: %v", r)
					points = []string{fmt.Sprintf("%s %v", models.ErrorMarker, r)}
				}
			}()
			return o.extractive.Summarize(record.Transcript)
		}()
		out.abstractive = func() (summary string) {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("abstractive summarization panicked: %v", r)
					summary = fmt.Sprintf("%s %v", models.ErrorMarker, r)
				}
			}()
			return o.abstractive.Summarize(record.Transcript)
		}()
		return out, nil
	})
}

func (o *Orchestrator) writeResult(record *models.ResultRecord, log *logrus.Entry) {
	if err := o.store.Write(record); err != nil {
		log.WithError(err).Error("failed to write result")
		return
	}
	log.Info("processing complete")
}

// attachText fills each consolidated segment with the transcript text
// that falls inside its time range.
func attachText(consolidated []models.ConsolidatedSegment, transcript []models.TranscriptSegment) {
	for i := range consolidated {
		var parts []string
		for _, seg := range transcript {
			if overlap(seg.Start, seg.End, consolidated[i].Start, consolidated[i].End) > 0 {
				parts = append(parts, seg.Text)
			}
		}
		consolidated[i].Text = strings.Join(parts, " ")
	}
}

// transcriptFromConsolidated rebuilds the transcript segment list from
// the speaker timeline once diarization succeeded.
func transcriptFromConsolidated(consolidated []models.ConsolidatedSegment) []models.TranscriptSegment {
	out := make([]models.TranscriptSegment, 0, len(consolidated))
	for _, c := range consolidated {
		out = append(out, models.TranscriptSegment{
			Start:   c.Start,
			End:     c.End,
			Text:    c.Text,
			Speaker: c.Speaker,
		})
	}
	return out
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}
