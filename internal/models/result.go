package models

// TranscriptSegment is a timestamped interval of transcript text.
// Segments are always ordered by start time; the rest of the pipeline
// relies on that ordering.
type TranscriptSegment struct {
	Start   float64 `json:"start"` // seconds
	End     float64 `json:"end"`   // seconds
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// SpeakerTurn is a raw speaker-attributed interval as produced by the
// diarization collaborator. Labels are collaborator-assigned and are not
// guaranteed contiguous or bounded in count.
type SpeakerTurn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// ConsolidatedSegment is a speaker turn after collar merging, ready for
// display. Confidence is a duration-derived heuristic in [0,1], not a
// calibrated model confidence.
type ConsolidatedSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Speaker    string  `json:"speaker"`
	Duration   float64 `json:"duration"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text,omitempty"`
}

// SpeakerStat summarizes one speaker's participation.
type SpeakerStat struct {
	ID                 string  `json:"id"`
	SpeakingTime       float64 `json:"speaking_time"`
	Percentage         float64 `json:"percentage"`
	Segments           int     `json:"segments"`
	AvgSegmentDuration float64 `json:"avg_segment_duration"`
	IsPrimary          bool    `json:"is_primary"`
}

// SpeakerStatistics aggregates participation over all speakers.
type SpeakerStatistics struct {
	TotalDuration      float64       `json:"total_duration"`
	TotalSpeechTime    float64       `json:"total_speech_time"`
	SilenceTime        float64       `json:"silence_time"`
	SilencePercentage  float64       `json:"silence_percentage"`
	SpeakerCount       int           `json:"speaker_count"`
	PrimarySpeaker     string        `json:"primary_speaker,omitempty"`
	SegmentCount       int           `json:"segment_count"`
	SpeakerTransitions int           `json:"speaker_transitions"`
	Speakers           []SpeakerStat `json:"speakers"`
}

// DiarizationResult is either a consolidated speaker timeline plus
// statistics, or a structured error/skip reason. A non-empty Error never
// aborts the job.
type DiarizationResult struct {
	Error      string                `json:"error,omitempty"`
	Segments   []ConsolidatedSegment `json:"segments,omitempty"`
	Statistics *SpeakerStatistics    `json:"statistics,omitempty"`
}

// Topic is one detected topic with a relevance score in [0,1].
type Topic struct {
	Topic    string   `json:"topic"`
	Score    float64  `json:"score"`
	Keywords []string `json:"keywords,omitempty"`
}

// AudioMetadata describes the source audio. Extraction failure is recorded
// in Error and never fails the job.
type AudioMetadata struct {
	FilePath   string `json:"file_path"`
	AudioURL   string `json:"audio_url,omitempty"`
	Title      string `json:"title,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Format     string `json:"format,omitempty"`
	Duration   string `json:"duration,omitempty"` // MM:SS
	FileSize   string `json:"filesize,omitempty"`
	Bitrate    string `json:"bitrate,omitempty"`
	SampleRate string `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	Error      string `json:"error,omitempty"`

	// Source fields, set when the audio came from YouTube.
	Source          string  `json:"source,omitempty"`
	URL             string  `json:"url,omitempty"`
	VideoTitle      string  `json:"video_title,omitempty"`
	VideoAuthor     string  `json:"video_author,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// Result statuses.
const (
	ResultStatusCompleted = "completed"
	ResultStatusError     = "error"
)

// ErrorMarker prefixes transcript values that record a transcription
// failure instead of text.
const ErrorMarker = "Error:"

// ResultRecord is the terminal artifact of one job. It is written exactly
// once per job (the first write is terminal) and is immutable afterwards.
type ResultRecord struct {
	JobID              string              `json:"job_id"`
	Status             string              `json:"status"`
	Error              string              `json:"error,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
	Metadata           *AudioMetadata      `json:"metadata,omitempty"`
	Transcript         string              `json:"transcript"`
	Segments           []TranscriptSegment `json:"segments"`
	Diarization        *DiarizationResult  `json:"diarization,omitempty"`
	Topics             []Topic             `json:"topics"`
	AbstractiveSummary string              `json:"abstractive_summary"`
	ExtractiveSummary  []string            `json:"extractive_summary"`
}

// NewResultRecord returns an optimistic record: status completed, no
// error, empty (never nil) collection fields. The orchestrator corrects
// the status if an unrecoverable failure occurs.
func NewResultRecord(jobID string) *ResultRecord {
	return &ResultRecord{
		JobID:             jobID,
		Status:            ResultStatusCompleted,
		Segments:          []TranscriptSegment{},
		Topics:            []Topic{},
		ExtractiveSummary: []string{},
	}
}

// AddWarning appends a non-fatal processing note.
func (r *ResultRecord) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
