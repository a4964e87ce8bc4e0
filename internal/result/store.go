package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"podcast-summarizer/internal/models"
)

// Store persists terminal job results as JSON files in a directory.
// A result file appearing is the signal that a job has finished, so
// writes are atomic (temp file plus rename) and the first write wins.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the result file path for a job.
func (s *Store) Path(jobID string) string {
	return filepath.Join(s.dir, jobID+"_results.json")
}

// Exists reports whether a result has been written for the job.
func (s *Store) Exists(jobID string) bool {
	_, err := os.Stat(s.Path(jobID))
	return err == nil
}

// Write persists the record. A record already on disk is left alone;
// results are immutable once written.
func (s *Store) Write(record *models.ResultRecord) error {
	if record.JobID == "" {
		return fmt.Errorf("record has no job id")
	}
	if s.Exists(record.JobID) {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return s.writeAtomic(record.JobID, data)
}

// WriteError persists a minimal error record for a job that failed
// before producing partial results.
func (s *Store) WriteError(jobID string, cause error) error {
	if s.Exists(jobID) {
		return nil
	}

	record := map[string]string{
		"job_id": jobID,
		"status": models.ResultStatusError,
		"error":  cause.Error(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode error result: %w", err)
	}
	return s.writeAtomic(jobID, data)
}

// Read returns the raw result JSON for a job. os.IsNotExist on the
// returned error distinguishes "still processing" from real failures.
func (s *Store) Read(jobID string) ([]byte, error) {
	return os.ReadFile(s.Path(jobID))
}

// writeAtomic writes to a temp file in the same directory and renames
// it into place, so readers never observe a partial file.
func (s *Store) writeAtomic(jobID string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, jobID+"_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.Path(jobID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize result: %w", err)
	}
	return nil
}
