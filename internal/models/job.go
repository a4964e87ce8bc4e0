package models

import "time"

// Job is one processing job. Lifecycle state lives in memory only; the
// durable record for a job is its persisted ResultRecord.
type Job struct {
	ID          string      `json:"id"`
	FileName    string      `json:"file_name"`
	AudioPath   string      `json:"-"`
	Source      *SourceInfo `json:"source,omitempty"`
	Status      string      `json:"status"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// SourceInfo describes where the audio came from when it was not a direct
// upload.
type SourceInfo struct {
	Origin   string  `json:"origin"` // "upload" or "youtube"
	URL      string  `json:"url,omitempty"`
	Title    string  `json:"title,omitempty"`
	Uploader string  `json:"uploader,omitempty"`
	Duration float64 `json:"duration,omitempty"` // seconds
}

// Job statuses.
const (
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)
