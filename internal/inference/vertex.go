package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// VertexConfig holds the settings for the Vertex AI Gemini backend.
type VertexConfig struct {
	ProjectID   string
	Location    string
	Model       string
	BaseURL     string        // Optional, defaults to the regional aiplatform endpoint
	AccessToken string        // OAuth2 bearer token for the Vertex API
	Timeout     time.Duration // Optional, defaults to 60s
}

// VertexClient calls the Vertex AI generateContent endpoint over REST.
// One HTTP request per Generate call, single attempt, no retry.
type VertexClient struct {
	cfg        VertexConfig
	httpClient *http.Client
}

func NewVertexClient(cfg VertexConfig) *VertexClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", cfg.Location)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &VertexClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *VertexClient) ModelName() string {
	return c.cfg.Model
}

// Gemini generateContent wire types.
type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *VertexClient) Generate(ctx context.Context, prompt string) (*Result, error) {
	start := time.Now()

	requestBody := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, &Error{Kind: KindMalformed, Op: "vertex.generate", Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
		c.cfg.BaseURL, c.cfg.ProjectID, c.cfg.Location, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: "vertex.generate", Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: "vertex.generate", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: "vertex.generate", Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyStatus(resp.StatusCode, body)
	}

	var generateResp generateContentResponse
	if err := json.Unmarshal(body, &generateResp); err != nil {
		return nil, &Error{Kind: KindMalformed, Op: "vertex.generate", Err: fmt.Errorf("parse response: %w", err)}
	}

	if len(generateResp.Candidates) == 0 {
		return nil, &Error{Kind: KindMalformed, Op: "vertex.generate", Err: fmt.Errorf("no candidates in response")}
	}

	var text string
	for _, p := range generateResp.Candidates[0].Content.Parts {
		if p.Text != "" {
			text = p.Text
			break
		}
	}
	if text == "" {
		return nil, &Error{Kind: KindMalformed, Op: "vertex.generate", Err: fmt.Errorf("no text content in response")}
	}

	slog.Debug("Vertex inference complete",
		"model", c.cfg.Model,
		"tokens_in", generateResp.UsageMetadata.PromptTokenCount,
		"tokens_out", generateResp.UsageMetadata.CandidatesTokenCount,
		"duration_ms", time.Since(start).Milliseconds())

	return &Result{
		Text:      text,
		TokensIn:  generateResp.UsageMetadata.PromptTokenCount,
		TokensOut: generateResp.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func (c *VertexClient) classifyStatus(status int, body []byte) error {
	kind := KindTransport
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusTooManyRequests:
		kind = KindQuota
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return &Error{Kind: kind, Op: "vertex.generate",
			Err: fmt.Errorf("status %d: %s", status, errResp.Error.Message)}
	}
	return &Error{Kind: kind, Op: "vertex.generate", Err: fmt.Errorf("status %d", status)}
}
