package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aiquery/relay-service/internal/config"
	"github.com/aiquery/relay-service/internal/inference"
	"github.com/aiquery/relay-service/internal/render"
	"github.com/aiquery/relay-service/internal/repository"
	"github.com/aiquery/relay-service/internal/store"
)

// stubClient records its calls and returns a fixed completion or error.
type stubClient struct {
	text  string
	err   error
	calls int
	last  string
}

func (c *stubClient) Generate(ctx context.Context, prompt string) (*inference.Result, error) {
	c.calls++
	c.last = prompt
	if c.err != nil {
		return nil, c.err
	}
	return &inference.Result{Text: c.text, TokensIn: 3, TokensOut: 2}, nil
}

func (c *stubClient) ModelName() string { return "stub-model" }

func newTestService(t *testing.T, client inference.Client, suffix string) *QueryService {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{PromptSuffix: suffix, ModelName: "stub-model"}
	return NewQueryService(client, render.NewRenderer(0), repository.NewSQLiteRepository(db), cfg)
}

func TestProcessQuerySuccess(t *testing.T) {
	stub := &stubClient{text: "OK"}
	svc := newTestService(t, stub, "World")

	resp, err := svc.ProcessQuery(context.Background(), QueryRequest{ReqID: "r1", Prompt: "Hello"}, "http.query", "", "test-worker")
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}

	if resp.FullPrompt != "Hello\n\nWorld" {
		t.Errorf("FullPrompt = %q, want Hello\\n\\nWorld", resp.FullPrompt)
	}
	if stub.last != "Hello\n\nWorld" {
		t.Errorf("backend received %q, want the composed prompt", stub.last)
	}
	if resp.Prompt != "Hello" || resp.Suffix != "World" {
		t.Errorf("echo fields wrong: prompt=%q suffix=%q", resp.Prompt, resp.Suffix)
	}
	if resp.ResponseRaw != "OK" {
		t.Errorf("ResponseRaw = %q, want OK", resp.ResponseRaw)
	}
	if !strings.Contains(string(resp.ResponseHTML), "OK") {
		t.Errorf("ResponseHTML = %q, should contain OK", resp.ResponseHTML)
	}
	if resp.Error != "" {
		t.Errorf("unexpected error field %q", resp.Error)
	}

	// Exchange lands in the log store.
	logs, err := svc.GetQueryLogs(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetQueryLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != "ok" || logs[0].FullPrompt != "Hello\n\nWorld" {
		t.Errorf("unexpected log entry: %+v", logs)
	}
}

func TestProcessQueryEmptyPrompt(t *testing.T) {
	stub := &stubClient{text: "OK"}
	svc := newTestService(t, stub, "World")

	for _, p := range []string{"", "   ", "\n\t"} {
		resp, err := svc.ProcessQuery(context.Background(), QueryRequest{ReqID: "r", Prompt: p}, "http.query", "", "w")
		if !errors.Is(err, ErrEmptyPrompt) {
			t.Errorf("prompt %q: err = %v, want ErrEmptyPrompt", p, err)
		}
		if resp.Error != "Please enter a prompt" {
			t.Errorf("prompt %q: Error = %q", p, resp.Error)
		}
	}

	if stub.calls != 0 {
		t.Errorf("backend invoked %d times for empty prompts, want 0", stub.calls)
	}
}

func TestProcessQueryInferenceError(t *testing.T) {
	internalDetail := "connection reset by peer at 10.0.0.7:443"
	stub := &stubClient{err: &inference.Error{Kind: inference.KindTransport, Op: "vertex.generate", Err: fmt.Errorf("%s", internalDetail)}}
	svc := newTestService(t, stub, "suffix")

	resp, err := svc.ProcessQuery(context.Background(), QueryRequest{ReqID: "r", Prompt: "Hello"}, "http.query", "", "w")
	if err == nil {
		t.Fatal("expected error")
	}

	if resp.Error != "inference request failed" {
		t.Errorf("Error = %q, want generic message", resp.Error)
	}
	if resp.ErrorKind != "transport" {
		t.Errorf("ErrorKind = %q, want transport", resp.ErrorKind)
	}
	if strings.Contains(resp.Error, internalDetail) {
		t.Error("raw diagnostic leaked into response")
	}

	// Full detail is preserved in the log store.
	logs, _ := svc.GetQueryLogs(context.Background(), 1)
	if len(logs) != 1 || !strings.Contains(logs[0].Error, internalDetail) {
		t.Errorf("log entry missing diagnostic detail: %+v", logs)
	}
}

func TestProcessQueryQuotaErrorKind(t *testing.T) {
	stub := &stubClient{err: &inference.Error{Kind: inference.KindQuota, Op: "vertex.generate", Err: errors.New("quota exceeded")}}
	svc := newTestService(t, stub, "suffix")

	resp, _ := svc.ProcessQuery(context.Background(), QueryRequest{ReqID: "r", Prompt: "Hello"}, "http.query", "", "w")
	if resp.ErrorKind != "quota" {
		t.Errorf("ErrorKind = %q, want quota", resp.ErrorKind)
	}
}

func TestProcessQueryRendersMarkdown(t *testing.T) {
	stub := &stubClient{text: "**bold** and <script>alert(1)</script>"}
	svc := newTestService(t, stub, "suffix")

	resp, err := svc.ProcessQuery(context.Background(), QueryRequest{ReqID: "r", Prompt: "Hello"}, "http.query", "", "w")
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}

	html := string(resp.ResponseHTML)
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Errorf("markdown emphasis not rendered: %q", html)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("script tag survived sanitization: %q", html)
	}
	if resp.ResponseRaw != "**bold** and <script>alert(1)</script>" {
		t.Errorf("raw text altered: %q", resp.ResponseRaw)
	}
}

func TestProcessQueryRenderError(t *testing.T) {
	big := strings.Repeat("x", render.DefaultMaxBytes+1)
	stub := &stubClient{text: big}
	svc := newTestService(t, stub, "suffix")

	resp, err := svc.ProcessQuery(context.Background(), QueryRequest{ReqID: "r", Prompt: "Hello"}, "http.query", "", "w")
	if !errors.Is(err, render.ErrInputTooLarge) {
		t.Fatalf("err = %v, want ErrInputTooLarge", err)
	}
	if resp.ErrorKind != "render" {
		t.Errorf("ErrorKind = %q, want render", resp.ErrorKind)
	}
	if resp.Error != "failed to render response" {
		t.Errorf("Error = %q, want generic render message", resp.Error)
	}
}
