package domain

// JobStatus is a single status report for a remote job, as returned by the
// text generation start call and by every poll.
type JobStatus struct {
	ID           int     `json:"id"`
	GenerationID int     `json:"generationId"`
	JobID        string  `json:"jobId"`
	TemplateID   *int    `json:"templateId,omitempty"`
	Preview      *string `json:"preview,omitempty"`
	ResultURL    *string `json:"resultUrl,omitempty"`
	Status       string  `json:"status"`
	IsTxt2Img    bool    `json:"isTxt2Img"`
	Seconds      int     `json:"seconds"`
	StartedAt    *string `json:"startedAt,omitempty"`
	FinishedAt   *string `json:"finishedAt,omitempty"`
}

// Terminal reports whether the status ends polling.
func (s JobStatus) Terminal() bool {
	return IsTerminal(s.Status)
}

// HistoryStatus is the persisted status this report reconciles to.
func (s JobStatus) HistoryStatus() HistoryStatus {
	return ReconcileStatus(s.Status, s.ResultURL)
}

// Succeeded reports a terminal status carrying a result URL.
func (s JobStatus) Succeeded() bool {
	return s.HistoryStatus() == HistorySuccess
}

// GenerationRecord is the record created by a photo generation start call.
type GenerationRecord struct {
	ID               int     `json:"id"`
	GenerationID     int     `json:"generationId"`
	JobID            string  `json:"jobId"`
	TemplateID       int     `json:"templateId"`
	Preview          *string `json:"preview,omitempty"`
	ResultURL        *string `json:"resultUrl,omitempty"`
	Status           string  `json:"status"`
	ErrorCode        *string `json:"errorCode,omitempty"`
	GenerationType   string  `json:"generationType"`
	GenerationTypeID int     `json:"generationTypeId"`
	Prompt           *string `json:"prompt,omitempty"`
	Seconds          int     `json:"seconds"`
	StartedAt        *string `json:"startedAt,omitempty"`
	FinishedAt       *string `json:"finishedAt,omitempty"`
}

// JobStatus projects the start record onto a status report.
func (r GenerationRecord) JobStatus() JobStatus {
	templateID := r.TemplateID
	return JobStatus{
		ID:           r.ID,
		GenerationID: r.GenerationID,
		JobID:        r.JobID,
		TemplateID:   &templateID,
		Preview:      r.Preview,
		ResultURL:    r.ResultURL,
		Status:       r.Status,
		Seconds:      r.Seconds,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
}
