package client

import "time"

// QueryRequest represents a request to the relay service
type QueryRequest struct {
	TraceID string `json:"trace_id,omitempty"`
	ReqID   string `json:"req_id"`
	Prompt  string `json:"prompt"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// QueryResponse represents a response from the relay service
type QueryResponse struct {
	ReqID        string `json:"req_id"`
	Prompt       string `json:"prompt"`
	Suffix       string `json:"suffix"`
	FullPrompt   string `json:"full_prompt"`
	ResponseRaw  string `json:"response_raw"`
	ResponseHTML string `json:"response_html"`
	TokensIn     int    `json:"tokens_in"`
	TokensOut    int    `json:"tokens_out"`
	DurationMs   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
}

// HealthStatus represents model health information
type HealthStatus struct {
	ModelName    string    `json:"model_name"`
	Status       string    `json:"status"`
	LastActivity time.Time `json:"last_activity"`
	Backend      string    `json:"backend"`
	Endpoint     string    `json:"endpoint"`
	NATSTopic    string    `json:"nats_topic"`
	Version      string    `json:"version"`
}
