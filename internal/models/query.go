package models

import "time"

// QueryLog represents one logged relay exchange: the user prompt, the
// composed prompt actually sent upstream, and what came back.
type QueryLog struct {
	Timestamp    time.Time `json:"ts"`
	TraceID      string    `json:"trace_id"`
	ReqID        string    `json:"req_id"`
	WorkerID     string    `json:"worker_id"`
	Source       string    `json:"source"`
	ReplyTo      string    `json:"reply_to"`
	Prompt       string    `json:"prompt"`
	Suffix       string    `json:"suffix"`
	FullPrompt   string    `json:"full_prompt"`
	ResponseText string    `json:"response_text"`
	PromptLen    int       `json:"prompt_len"`
	Model        string    `json:"model"`
	TokensIn     int       `json:"tokens_in"`
	TokensOut    int       `json:"tokens_out"`
	DurationMs   int64     `json:"dur_ms"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"error_kind"`
	Error        string    `json:"error"`
}
