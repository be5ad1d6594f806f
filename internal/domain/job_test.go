package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestReconcileStatusNonTerminalIgnoresResult(t *testing.T) {
	result := "https://x/y.jpg"
	for _, status := range []string{RemoteStatusNew, RemoteStatusInProgress} {
		for _, url := range []*string{nil, &result, StringPtr("")} {
			if got := ReconcileStatus(status, url); got != HistoryInProgress {
				t.Fatalf("ReconcileStatus(%q, %v) = %q, want in_progress", status, url, got)
			}
		}
	}
}

func TestReconcileStatusTerminal(t *testing.T) {
	result := "https://x/y.jpg"
	empty := ""
	cases := []struct {
		status string
		url    *string
		want   HistoryStatus
	}{
		{"DONE", &result, HistorySuccess},
		{"COMPLETED", &result, HistorySuccess},
		{"FAILED", &result, HistorySuccess},
		{"DONE", nil, HistoryError},
		{"DONE", &empty, HistoryError},
		{"FAILED", nil, HistoryError},
		{"", nil, HistoryError},
	}
	for _, tc := range cases {
		if got := ReconcileStatus(tc.status, tc.url); got != tc.want {
			t.Fatalf("ReconcileStatus(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestApplyKeepsResultAndClearsError(t *testing.T) {
	result := "https://x/done.jpg"
	msg := "boom"
	job := GenerationJob{JobID: "job-1", Status: HistoryError, ErrorMessage: &msg}

	job.Apply(JobStatus{JobID: "job-1", Status: "DONE", ResultURL: &result})
	if job.Status != HistorySuccess {
		t.Fatalf("status = %q, want success", job.Status)
	}
	if job.ErrorMessage != nil {
		t.Fatalf("error message not cleared: %q", *job.ErrorMessage)
	}

	job.Apply(JobStatus{JobID: "job-1", Status: RemoteStatusInProgress})
	if job.ResultURL == nil || *job.ResultURL != result {
		t.Fatalf("result url cleared by later report: %v", job.ResultURL)
	}
}

func TestApplyInProgressClearsErrorMessage(t *testing.T) {
	msg := "Timeout while waiting for generation"
	job := GenerationJob{JobID: "job-1", Status: HistoryError, ErrorMessage: &msg}
	job.Apply(JobStatus{JobID: "job-1", Status: RemoteStatusInProgress})
	if job.Status != HistoryInProgress {
		t.Fatalf("status = %q, want in_progress", job.Status)
	}
	if job.ErrorMessage != nil {
		t.Fatalf("error message kept on a running job: %q", *job.ErrorMessage)
	}
}

func TestApplyTerminalWithoutResultFillsMessage(t *testing.T) {
	job := GenerationJob{JobID: "job-1", Status: HistoryInProgress}
	job.Apply(JobStatus{JobID: "job-1", Status: "FAILED"})
	if job.Status != HistoryError {
		t.Fatalf("status = %q, want error", job.Status)
	}
	if job.ErrorMessage == nil || *job.ErrorMessage == "" {
		t.Fatalf("expected error message to be filled")
	}
}

func TestMarkErrorOverridesSuccess(t *testing.T) {
	result := "https://x/done.jpg"
	job := GenerationJob{JobID: "job-1", Status: HistorySuccess, ResultURL: &result}
	msg := "manual"
	job.MarkError(&msg)
	if job.Status != HistoryError {
		t.Fatalf("status = %q, want error", job.Status)
	}
	if job.ErrorMessage == nil || *job.ErrorMessage != "manual" {
		t.Fatalf("unexpected message: %v", job.ErrorMessage)
	}
}

func TestNewPhotoJobPreviewFallback(t *testing.T) {
	before := "https://cdn/before.jpg"
	production := "https://cdn/prod.jpg"
	effect := TemplateEffect{ID: 7, Title: "Anime", PreviewBefore: &before, PreviewProduction: &production}
	now := time.Date(2025, 12, 5, 10, 0, 0, 0, time.UTC)

	job := NewPhotoJob(effect, GenerationRecord{JobID: "job-7", Status: RemoteStatusNew}, now)
	if job.ID == "" || job.JobID != "job-7" {
		t.Fatalf("unexpected ids: %+v", job)
	}
	if job.Title != "Anime" || !job.CreatedAt.Equal(now) {
		t.Fatalf("unexpected title/createdAt: %+v", job)
	}
	if job.PreviewURL == nil || *job.PreviewURL != before {
		t.Fatalf("preview = %v, want %s", job.PreviewURL, before)
	}
	if job.Status != HistoryInProgress {
		t.Fatalf("status = %q, want in_progress", job.Status)
	}

	served := "https://cdn/served.jpg"
	job = NewPhotoJob(effect, GenerationRecord{JobID: "job-8", Status: RemoteStatusNew, Preview: &served}, now)
	if *job.PreviewURL != served {
		t.Fatalf("response preview should win, got %s", *job.PreviewURL)
	}
}

func TestNewPromptJobKeepsUserPrompt(t *testing.T) {
	style := TemplateEffect{ID: 3, Title: "Watercolor"}
	job := NewPromptJob("a cat", &style, JobStatus{JobID: "job-3", Status: RemoteStatusInProgress}, time.Now())
	if job.Prompt == nil || *job.Prompt != "a cat" {
		t.Fatalf("prompt = %v, want a cat", job.Prompt)
	}
	if job.Title != "Watercolor" {
		t.Fatalf("title = %q", job.Title)
	}

	job = NewPromptJob("a dog", nil, JobStatus{JobID: "job-4", Status: RemoteStatusNew}, time.Now())
	if job.Title != DefaultPromptTitle {
		t.Fatalf("title = %q, want %q", job.Title, DefaultPromptTitle)
	}
}

func TestNewJobsHaveUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		job := NewPromptJob("p", nil, JobStatus{JobID: fmt.Sprintf("job-%d", i), Status: RemoteStatusNew}, time.Now())
		if seen[job.ID] {
			t.Fatalf("duplicate id %s", job.ID)
		}
		seen[job.ID] = true
	}
}

func TestUserMessage(t *testing.T) {
	msg := "Photo has no face"
	code := "E42"
	if got := UserMessage(&ServerError{Code: &code, Message: &msg}); got != "[E42] Photo has no face" {
		t.Fatalf("UserMessage = %q", got)
	}
	if got := UserMessage(&ServerError{StatusCode: 502}); got != GenericErrorMessage {
		t.Fatalf("UserMessage = %q, want generic", got)
	}
	wrapped := fmt.Errorf("start: %w", &TransportError{Op: "login", Err: errors.New("dial tcp")})
	if got := UserMessage(wrapped); got != GenericErrorMessage {
		t.Fatalf("UserMessage = %q, want generic", got)
	}
	if got := UserMessage(&TimeoutError{JobID: "j"}); got != "Timeout while waiting for generation" {
		t.Fatalf("UserMessage = %q", got)
	}
}

func TestCatalogPreviewOrder(t *testing.T) {
	generic := "g"
	before := "b"
	production := "p"
	eff := TemplateEffect{Preview: &generic, PreviewBefore: &before, PreviewProduction: &production}
	if eff.PreviewURL() != "p" {
		t.Fatalf("production preview should win, got %q", eff.PreviewURL())
	}
	eff.PreviewProduction = nil
	if eff.PreviewURL() != "g" {
		t.Fatalf("generic preview should be second, got %q", eff.PreviewURL())
	}
	eff.Preview = nil
	if eff.PreviewURL() != "b" {
		t.Fatalf("before preview should be last, got %q", eff.PreviewURL())
	}

	cat := &Catalog{Categories: []TemplateCategory{
		{ID: 1, Effects: []TemplateEffect{{ID: 1, IsEnabled: true, Preview: &generic}, {ID: 2}}},
		{ID: 2, Effects: []TemplateEffect{{ID: 1, IsEnabled: true}, {ID: 3, IsEnabled: true}}},
	}}
	if got := len(cat.EnabledEffects()); got != 2 {
		t.Fatalf("EnabledEffects = %d, want 2", got)
	}
	if _, ok := cat.EffectByID(3); !ok {
		t.Fatalf("effect 3 not found")
	}
	if urls := cat.PreviewURLs(); len(urls) != 1 || urls[0] != "g" {
		t.Fatalf("PreviewURLs = %v", urls)
	}
}
