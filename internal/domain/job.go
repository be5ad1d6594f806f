package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HistoryStatus enumerates the persisted lifecycle states of a history record.
type HistoryStatus string

const (
	HistoryInProgress HistoryStatus = "in_progress"
	HistorySuccess    HistoryStatus = "success"
	HistoryError      HistoryStatus = "error"
)

// Remote status markers that keep a job in flight. Every other status string
// reported by the backend is terminal.
const (
	RemoteStatusNew        = "NEW"
	RemoteStatusInProgress = "IN_PROGRESS"
)

// DefaultPromptTitle labels text jobs started without a style.
const DefaultPromptTitle = "Prompt"

// GenerationJob is one entry of the local generation history.
type GenerationJob struct {
	ID           string        `json:"id"`
	JobID        string        `json:"jobId"`
	Title        string        `json:"title"`
	CreatedAt    time.Time     `json:"createdAt"`
	PreviewURL   *string       `json:"previewUrl,omitempty"`
	ResultURL    *string       `json:"resultUrl,omitempty"`
	Status       HistoryStatus `json:"status"`
	ErrorMessage *string       `json:"errorMessage,omitempty"`
	Prompt       *string       `json:"prompt,omitempty"`
}

// IsTerminal reports whether a remote status string ends polling.
func IsTerminal(status string) bool {
	return status != RemoteStatusNew && status != RemoteStatusInProgress
}

// ReconcileStatus maps a remote status and result URL onto the persisted
// status. A terminal job without a result URL is a failure.
func ReconcileStatus(status string, resultURL *string) HistoryStatus {
	if !IsTerminal(status) {
		return HistoryInProgress
	}
	if present(resultURL) {
		return HistorySuccess
	}
	return HistoryError
}

// NewPhotoJob builds the provisional record for a photo generation accepted
// by the backend.
func NewPhotoJob(effect TemplateEffect, rec GenerationRecord, now time.Time) GenerationJob {
	job := GenerationJob{
		ID:         uuid.NewString(),
		JobID:      rec.JobID,
		Title:      effect.Title,
		CreatedAt:  now,
		PreviewURL: firstPresent(rec.Preview, effect.PreviewBefore, effect.PreviewProduction, effect.Preview),
	}
	job.Apply(rec.JobStatus())
	return job
}

// NewPromptJob builds the provisional record for a text generation. prompt is
// the user's text as typed, never the string sent to the backend.
func NewPromptJob(prompt string, style *TemplateEffect, st JobStatus, now time.Time) GenerationJob {
	title := DefaultPromptTitle
	if style != nil {
		title = style.Title
	}
	job := GenerationJob{
		ID:        uuid.NewString(),
		JobID:     st.JobID,
		Title:     title,
		CreatedAt: now,
		Prompt:    &prompt,
	}
	job.Apply(st)
	return job
}

// Apply folds a status report into the record. Preview URLs are replaced
// when reported and a result URL is never cleared once set. Error text is
// kept only while the record is in the error state.
func (j *GenerationJob) Apply(st JobStatus) {
	if present(st.Preview) {
		j.PreviewURL = cloneString(st.Preview)
	}
	if present(st.ResultURL) {
		j.ResultURL = cloneString(st.ResultURL)
	}
	j.Status = ReconcileStatus(st.Status, st.ResultURL)
	if j.Status != HistoryError {
		j.ErrorMessage = nil
		return
	}
	if j.ErrorMessage == nil {
		msg := fmt.Sprintf("Generation finished with status %s", st.Status)
		j.ErrorMessage = &msg
	}
}

// MarkError forces the record into the error state regardless of its
// current status.
func (j *GenerationJob) MarkError(message *string) {
	j.Status = HistoryError
	j.ErrorMessage = cloneString(message)
}

// DisplayURL is the best image to show for the record: the result when
// present, the preview otherwise.
func (j GenerationJob) DisplayURL() string {
	if present(j.ResultURL) {
		return *j.ResultURL
	}
	if present(j.PreviewURL) {
		return *j.PreviewURL
	}
	return ""
}

// StringPtr returns nil for blank strings so optional fields keep their
// absence.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func firstPresent(values ...*string) *string {
	for _, v := range values {
		if present(v) {
			return cloneString(v)
		}
	}
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
