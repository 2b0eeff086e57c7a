package domain

import "time"

// SyncOutcome labels what happened to a single mirrored file.
type SyncOutcome string

const (
	OutcomeDownloaded SyncOutcome = "downloaded"
	OutcomeUpdated    SyncOutcome = "updated"
	OutcomeSkipped    SyncOutcome = "skipped"
	OutcomeFailed     SyncOutcome = "failed"
	OutcomeConflict   SyncOutcome = "conflict"
)

// SyncError records one per-file failure inside an otherwise completed batch.
type SyncError struct {
	File    string    `json:"file"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SyncReport is the result of synchronizing one source. Conflicts are files
// whose local content diverged with overwrite disallowed; they are neither
// failures nor skips and are listed separately.
type SyncReport struct {
	OperationID  string        `json:"operationId"`
	Source       string        `json:"source"`
	StartedAt    time.Time     `json:"startedAt"`
	Duration     time.Duration `json:"duration"`
	SchemaCount  int           `json:"schemaCount"`
	Downloaded   int           `json:"downloaded"`
	Updated      int           `json:"updated"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	Conflicts    []string      `json:"conflicts,omitempty"`
	RemovedFiles []string      `json:"removedFiles,omitempty"`
	Errors       []SyncError   `json:"errors,omitempty"`
}

// Processed is the number of manifest files the engine classified.
func (r *SyncReport) Processed() int {
	return r.Downloaded + r.Updated + r.Skipped + r.Failed + len(r.Conflicts)
}

// Record tallies one file outcome.
func (r *SyncReport) Record(outcome SyncOutcome, file string) {
	switch outcome {
	case OutcomeDownloaded:
		r.Downloaded++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	case OutcomeConflict:
		r.Conflicts = append(r.Conflicts, file)
	}
}

// UpdateReport aggregates per-source sync results for a batch update.
type UpdateReport struct {
	StartedAt time.Time    `json:"startedAt"`
	Reports   []SyncReport `json:"reports"`
}

func (u *UpdateReport) TotalDownloaded() int {
	n := 0
	for i := range u.Reports {
		n += u.Reports[i].Downloaded
	}
	return n
}

func (u *UpdateReport) TotalUpdated() int {
	n := 0
	for i := range u.Reports {
		n += u.Reports[i].Updated
	}
	return n
}

func (u *UpdateReport) TotalFailed() int {
	n := 0
	for i := range u.Reports {
		n += u.Reports[i].Failed
	}
	return n
}
