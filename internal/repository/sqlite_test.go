package repository

import (
	"context"
	"testing"
	"time"

	"github.com/aiquery/relay-service/internal/models"
	"github.com/aiquery/relay-service/internal/store"
)

func openTestRepo(t *testing.T) Repository {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepository(db)
}

func TestLogAndGetQueryLogs(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	logs := []*models.QueryLog{
		{
			Timestamp:    time.Now(),
			TraceID:      "trace-1",
			ReqID:        "req-1",
			WorkerID:     "http-worker",
			Source:       "http.query",
			Prompt:       "Who founded the BBC?",
			Suffix:       "Verify all sources.",
			FullPrompt:   "Who founded the BBC?\n\nVerify all sources.",
			Model:        "gemini-test",
			ResponseText: "John Reith, in 1922.",
			TokensIn:     10,
			TokensOut:    8,
			DurationMs:   120,
			Status:       "ok",
		},
		{
			Timestamp:  time.Now(),
			ReqID:      "req-2",
			Source:     "http.query",
			Prompt:     "second",
			Status:     "error",
			ErrorKind:  "quota",
			Error:      "vertex.generate: quota: status 429",
		},
	}

	for _, q := range logs {
		if err := repo.Query().LogQuery(ctx, q); err != nil {
			t.Fatalf("LogQuery: %v", err)
		}
	}

	got, err := repo.Query().GetQueryLogs(ctx, 10)
	if err != nil {
		t.Fatalf("GetQueryLogs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d logs, want 2", len(got))
	}

	// Newest first.
	if got[0].ReqID != "req-2" || got[1].ReqID != "req-1" {
		t.Errorf("unexpected order: %s, %s", got[0].ReqID, got[1].ReqID)
	}
	if got[1].FullPrompt != "Who founded the BBC?\n\nVerify all sources." {
		t.Errorf("FullPrompt = %q", got[1].FullPrompt)
	}
	if got[1].ResponseText != "John Reith, in 1922." {
		t.Errorf("ResponseText = %q", got[1].ResponseText)
	}
	if got[0].ErrorKind != "quota" {
		t.Errorf("ErrorKind = %q, want quota", got[0].ErrorKind)
	}
}

func TestGetQueryLogsLimit(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		repo.Query().LogQuery(ctx, &models.QueryLog{Timestamp: time.Now(), ReqID: "r", Status: "ok"})
	}

	got, err := repo.Query().GetQueryLogs(ctx, 3)
	if err != nil {
		t.Fatalf("GetQueryLogs: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d logs, want 3", len(got))
	}
}

func TestLogEvent(t *testing.T) {
	repo := openTestRepo(t)

	err := repo.Event().LogEvent(context.Background(), "info", "startup", "Server starting", map[string]interface{}{"port": 5000})
	if err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
}
