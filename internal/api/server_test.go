package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/mnemosyne/internal/backfill"
	"github.com/MikeSquared-Agency/mnemosyne/internal/rank"
)

type stubRetriever struct {
	candidates []rank.Candidate
	lastChatID string
	lastQuery  string
	lastLimit  int
}

func (s *stubRetriever) Retrieve(ctx context.Context, chatID, query string, limit int) []rank.Candidate {
	s.lastChatID, s.lastQuery, s.lastLimit = chatID, query, limit
	return s.candidates
}

type stubRunner struct {
	progress backfill.Progress
	lastOpts backfill.Options
	calls    int
}

func (s *stubRunner) Run(ctx context.Context, opts backfill.Options) backfill.Progress {
	s.calls++
	s.lastOpts = opts
	return s.progress
}

func newTestServer(ret *stubRetriever, run *stubRunner) *Server {
	return NewServer(0, ret, run, "deterministic")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubRetriever{}, &stubRunner{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status body = %v", body)
	}
}

func TestContextQuery(t *testing.T) {
	ret := &stubRetriever{candidates: []rank.Candidate{
		{Source: rank.SourceMessage, Score: 0.9, Text: "pizza friday", Attribution: "ann", Timestamp: 100},
	}}
	srv := newTestServer(ret, &stubRunner{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mnemosyne/context?chat_id=c1&q=pizza&limit=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ret.lastChatID != "c1" || ret.lastQuery != "pizza" || ret.lastLimit != 5 {
		t.Errorf("retriever called with (%q, %q, %d)", ret.lastChatID, ret.lastQuery, ret.lastLimit)
	}

	var body struct {
		Candidates []rank.Candidate `json:"candidates"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Candidates) != 1 || body.Candidates[0].Attribution != "ann" {
		t.Errorf("unexpected candidates: %+v", body.Candidates)
	}
}

func TestContextQuery_Validation(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"missing chat_id", "/api/v1/mnemosyne/context?q=pizza"},
		{"missing query", "/api/v1/mnemosyne/context?chat_id=c1"},
		{"bad limit", "/api/v1/mnemosyne/context?chat_id=c1&q=pizza&limit=zero"},
		{"negative limit", "/api/v1/mnemosyne/context?chat_id=c1&q=pizza&limit=-2"},
	}

	srv := newTestServer(&stubRetriever{}, &stubRunner{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRunBackfill(t *testing.T) {
	run := &stubRunner{progress: backfill.Progress{Total: 2, Processed: 2, Succeeded: 2}}
	srv := newTestServer(&stubRetriever{}, run)

	body := strings.NewReader(`{"batch_size": 10, "missing_only": true}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/mnemosyne/backfill", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if run.calls != 1 {
		t.Fatalf("runner calls = %d, want 1", run.calls)
	}
	if run.lastOpts.BatchSize != 10 || !run.lastOpts.MissingOnly {
		t.Errorf("options not forwarded: %+v", run.lastOpts)
	}

	var got backfill.Progress
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 2 || got.Succeeded != 2 {
		t.Errorf("unexpected progress body: %+v", got)
	}
}

func TestRunBackfill_EmptyBody(t *testing.T) {
	run := &stubRunner{}
	srv := newTestServer(&stubRetriever{}, run)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/mnemosyne/backfill", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if run.calls != 1 {
		t.Errorf("runner calls = %d, want 1", run.calls)
	}
}
