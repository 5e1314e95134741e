package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cucia/job-sentinel/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func reviewJob(title, company string) model.Job {
	return model.Job{
		Key:      "abc123",
		Platform: "linkedin",
		Company:  company,
		Title:    title,
		Location: "Remote",
		URL:      "https://example.com/jobs/1",
		Status:   model.StatusReview,
		Score:    intPtr(70),
		Decision: strPtr("ai_decision"),
	}
}

func TestSlackNotifier_EmptyJobs(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())

	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify([]model.Job{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_SingleJob(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify([]model.Job{reviewJob("Junior Engineer", "acme")}); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	if len(payload.Blocks) == 0 {
		t.Fatal("payload has no blocks")
	}
	header := payload.Blocks[0]
	if header.Type != "header" || header.Text == nil || !strings.Contains(header.Text.Text, "Junior Engineer") {
		t.Errorf("unexpected header block: %+v", header)
	}
	raw := string(body)
	if !strings.Contains(raw, "Acme") {
		t.Error("company not capitalized in payload")
	}
	if !strings.Contains(raw, "70 (ai_decision)") {
		t.Error("score and decision reason not in payload")
	}
	if !strings.Contains(raw, "https://example.com/jobs/1") {
		t.Error("posting URL missing from payload")
	}
}

func TestSlackNotifier_NoURLOmitsButton(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	job := reviewJob("Junior Engineer", "acme")
	job.URL = ""

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify([]model.Job{job}); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	for _, b := range payload.Blocks {
		if b.Type == "actions" {
			t.Error("actions block present despite empty URL")
		}
	}
}

func TestSlackNotifier_AllFailuresReturnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify([]model.Job{reviewJob("Junior Engineer", "acme")}); err == nil {
		t.Error("Notify() = nil, want error when every message fails")
	}
}

func TestSlackNotifier_PartialFailureReturnsNil(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	jobs := []model.Job{
		reviewJob("Junior Engineer", "acme"),
		reviewJob("Graduate Analyst", "globex"),
	}
	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(jobs); err != nil {
		t.Errorf("Notify() = %v, want nil when at least one message succeeds", err)
	}
}

func TestSlackNotifier_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify([]model.Job{reviewJob("Junior Engineer", "acme")}); err != nil {
		t.Errorf("Notify() = %v, want nil after 429 retry", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (original + retry), got %d", c)
	}
}

func TestSendTestMessage(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := SendTestMessage(n); err != nil {
		t.Fatalf("SendTestMessage() = %v, want nil", err)
	}
	if !strings.Contains(string(body), "Integration Verified") {
		t.Error("test message payload missing marker text")
	}
}
