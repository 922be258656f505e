package services

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/aiquery/relay-service/internal/config"
	"github.com/aiquery/relay-service/internal/inference"
	"github.com/aiquery/relay-service/internal/models"
	"github.com/aiquery/relay-service/internal/prompt"
	"github.com/aiquery/relay-service/internal/render"
	"github.com/aiquery/relay-service/internal/repository"
)

// ErrEmptyPrompt rejects requests before any inference call is made.
var ErrEmptyPrompt = errors.New("empty prompt")

// Generic user-facing messages. Internal diagnostics stay in the log
// store and slog output only.
const (
	msgEmptyPrompt     = "Please enter a prompt"
	msgInferenceFailed = "inference request failed"
	msgRenderFailed    = "failed to render response"
)

type QueryRequest struct {
	TraceID string `json:"trace_id,omitempty"`
	ReqID   string `json:"req_id"`
	Prompt  string `json:"prompt"`
	ReplyTo string `json:"reply_to,omitempty"`
}

type QueryResponse struct {
	ReqID        string        `json:"req_id"`
	Prompt       string        `json:"prompt"`
	Suffix       string        `json:"suffix"`
	FullPrompt   string        `json:"full_prompt"`
	ResponseRaw  string        `json:"response_raw"`
	ResponseHTML template.HTML `json:"response_html"`
	TokensIn     int           `json:"tokens_in"`
	TokensOut    int           `json:"tokens_out"`
	DurationMs   int64         `json:"duration_ms"`
	Error        string        `json:"error,omitempty"`
	ErrorKind    string        `json:"error_kind,omitempty"`
}

// QueryService runs the relay pipeline: compose, infer, render, log.
type QueryService struct {
	client   inference.Client
	renderer *render.Renderer
	repo     repository.Repository
	cfg      *config.Config
}

func NewQueryService(client inference.Client, renderer *render.Renderer, repo repository.Repository, cfg *config.Config) *QueryService {
	return &QueryService{
		client:   client,
		renderer: renderer,
		repo:     repo,
		cfg:      cfg,
	}
}

// Suffix returns the configured prompt suffix.
func (s *QueryService) Suffix() string {
	return s.cfg.PromptSuffix
}

// ModelName returns the backend's model identifier.
func (s *QueryService) ModelName() string {
	return s.client.ModelName()
}

// GetQueryLogs retrieves recent query logs through the repository.
func (s *QueryService) GetQueryLogs(ctx context.Context, limit int) ([]*models.QueryLog, error) {
	return s.repo.Query().GetQueryLogs(ctx, limit)
}

// ProcessQuery handles one relay request. All failures come back as a
// populated response plus a non-nil error; the response's Error field
// carries only a generic message suitable for callers.
func (s *QueryService) ProcessQuery(ctx context.Context, req QueryRequest, source, replyTo, workerID string) (response *QueryResponse, err error) {
	start := time.Now()

	traceID := req.TraceID
	if traceID == "" {
		traceID = req.ReqID
	}

	defer func() {
		if r := recover(); r != nil {
			errStr := fmt.Sprintf("service panic: %v", r)
			s.logQuery(ctx, start, traceID, req, source, replyTo, workerID, "", "", "panic", "", errStr, 0, 0)

			response = &QueryResponse{
				ReqID:      req.ReqID,
				Prompt:     req.Prompt,
				Suffix:     s.cfg.PromptSuffix,
				DurationMs: time.Since(start).Milliseconds(),
				Error:      msgInferenceFailed,
				ErrorKind:  string(inference.KindTransport),
			}
			err = fmt.Errorf("service panic: %v", r)
		}
	}()

	if strings.TrimSpace(req.Prompt) == "" {
		return &QueryResponse{
			ReqID:     req.ReqID,
			Suffix:    s.cfg.PromptSuffix,
			Error:     msgEmptyPrompt,
			ErrorKind: "input",
		}, ErrEmptyPrompt
	}

	fullPrompt := prompt.Compose(req.Prompt, s.cfg.PromptSuffix)

	result, inferErr := s.client.Generate(ctx, fullPrompt)
	if inferErr != nil {
		kind := inference.KindOf(inferErr)
		duration := time.Since(start)

		slog.Error("Inference failed",
			"req_id", req.ReqID,
			"trace_id", traceID,
			"kind", string(kind),
			"transient", kind.Transient(),
			"error", inferErr)

		s.logQuery(ctx, start, traceID, req, source, replyTo, workerID, fullPrompt, "", "error", string(kind), inferErr.Error(), 0, 0)

		return &QueryResponse{
			ReqID:      req.ReqID,
			Prompt:     req.Prompt,
			Suffix:     s.cfg.PromptSuffix,
			FullPrompt: fullPrompt,
			DurationMs: duration.Milliseconds(),
			Error:      msgInferenceFailed,
			ErrorKind:  string(kind),
		}, inferErr
	}

	html, renderErr := s.renderer.Render(result.Text)
	if renderErr != nil {
		duration := time.Since(start)

		slog.Error("Render failed",
			"req_id", req.ReqID,
			"trace_id", traceID,
			"response_len", len(result.Text),
			"error", renderErr)

		s.logQuery(ctx, start, traceID, req, source, replyTo, workerID, fullPrompt, result.Text, "error", "render", renderErr.Error(), result.TokensIn, result.TokensOut)

		return &QueryResponse{
			ReqID:       req.ReqID,
			Prompt:      req.Prompt,
			Suffix:      s.cfg.PromptSuffix,
			FullPrompt:  fullPrompt,
			ResponseRaw: result.Text,
			DurationMs:  duration.Milliseconds(),
			Error:       msgRenderFailed,
			ErrorKind:   "render",
		}, renderErr
	}

	duration := time.Since(start)
	s.logQuery(ctx, start, traceID, req, source, replyTo, workerID, fullPrompt, result.Text, "ok", "", "", result.TokensIn, result.TokensOut)

	slog.Info("Query processed",
		"req_id", req.ReqID,
		"trace_id", traceID,
		"source", source,
		"tokens_in", result.TokensIn,
		"tokens_out", result.TokensOut,
		"duration_ms", duration.Milliseconds())

	return &QueryResponse{
		ReqID:        req.ReqID,
		Prompt:       req.Prompt,
		Suffix:       s.cfg.PromptSuffix,
		FullPrompt:   fullPrompt,
		ResponseRaw:  result.Text,
		ResponseHTML: html,
		TokensIn:     result.TokensIn,
		TokensOut:    result.TokensOut,
		DurationMs:   duration.Milliseconds(),
	}, nil
}

func (s *QueryService) logQuery(ctx context.Context, start time.Time, traceID string, req QueryRequest, source, replyTo, workerID, fullPrompt, responseText, status, errorKind, errStr string, tokensIn, tokensOut int) {
	q := &models.QueryLog{
		Timestamp:    start,
		TraceID:      traceID,
		ReqID:        req.ReqID,
		WorkerID:     workerID,
		Source:       source,
		ReplyTo:      replyTo,
		Prompt:       req.Prompt,
		Suffix:       s.cfg.PromptSuffix,
		FullPrompt:   fullPrompt,
		ResponseText: responseText,
		PromptLen:    len(req.Prompt),
		Model:        s.client.ModelName(),
		TokensIn:     tokensIn,
		TokensOut:    tokensOut,
		DurationMs:   time.Since(start).Milliseconds(),
		Status:       status,
		ErrorKind:    errorKind,
		Error:        errStr,
	}
	if err := s.repo.Query().LogQuery(ctx, q); err != nil {
		slog.Warn("Failed to log query", "req_id", req.ReqID, "error", err)
	}
}
