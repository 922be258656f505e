package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
)

// QueryClient provides a client interface for the relay service
type QueryClient interface {
	// Query relays a prompt through the service
	Query(ctx context.Context, model, prompt string) (*QueryResponse, error)

	// Health and discovery
	CheckHealth(ctx context.Context, model string) (*HealthStatus, error)

	// Lifecycle
	Close() error
}

// NATSQueryClient implements QueryClient over plain NATS publish/subscribe
type NATSQueryClient struct {
	conn     *nats.Conn
	clientID string
	timeout  time.Duration
}

// NewNATSClient creates a new NATS-based query client
func NewNATSClient(natsURL, clientID string) (QueryClient, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	if clientID == "" {
		clientID = "query-client"
	}

	return &NATSQueryClient{
		conn:     conn,
		clientID: clientID,
		timeout:  90 * time.Second,
	}, nil
}

// Query sends a prompt to the relay subject for the given model and
// waits for the worker's reply.
func (c *NATSQueryClient) Query(ctx context.Context, model, prompt string) (*QueryResponse, error) {
	topic := fmt.Sprintf("query.request.%s", model)

	reqID := ulid.Make().String()
	replySubject := fmt.Sprintf("query.reply.%s.%s", c.clientID, reqID)

	request := QueryRequest{
		ReqID:   reqID,
		Prompt:  prompt,
		ReplyTo: replySubject,
	}

	return c.sendRequest(ctx, topic, replySubject, request)
}

func (c *NATSQueryClient) sendRequest(ctx context.Context, topic, replySubject string, request QueryRequest) (*QueryResponse, error) {
	slog.Debug("Sending query request",
		"topic", topic,
		"req_id", request.ReqID,
		"reply_subject", replySubject)

	requestBytes, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Subscribe to the reply subject before publishing so the response
	// cannot be missed.
	replyChan := make(chan *nats.Msg, 1)
	sub, err := c.conn.Subscribe(replySubject, func(msg *nats.Msg) {
		replyChan <- msg
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to reply: %w", err)
	}
	defer sub.Unsubscribe()

	if err := c.conn.Publish(topic, requestBytes); err != nil {
		return nil, fmt.Errorf("failed to publish request: %w", err)
	}

	select {
	case msg := <-replyChan:
		slog.Debug("Received response",
			"req_id", request.ReqID,
			"response_size", len(msg.Data))

		var response QueryResponse
		if err := json.Unmarshal(msg.Data, &response); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		return &response, nil

	case <-time.After(c.timeout):
		return nil, fmt.Errorf("request timeout after %v", c.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CheckHealth checks if a model relay is available and healthy
func (c *NATSQueryClient) CheckHealth(ctx context.Context, model string) (*HealthStatus, error) {
	healthTopic := fmt.Sprintf("models.%s.health", model)

	reqID := ulid.Make().String()
	replySubject := fmt.Sprintf("health.response.%s.%s", c.clientID, reqID)

	healthReq := map[string]interface{}{
		"req_id":   reqID,
		"reply_to": replySubject,
	}

	requestBytes, err := json.Marshal(healthReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal health request: %w", err)
	}

	replyChan := make(chan *nats.Msg, 1)
	sub, err := c.conn.Subscribe(replySubject, func(msg *nats.Msg) {
		replyChan <- msg
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to health reply: %w", err)
	}
	defer sub.Unsubscribe()

	if err := c.conn.PublishRequest(healthTopic, replySubject, requestBytes); err != nil {
		return nil, fmt.Errorf("failed to publish health request: %w", err)
	}

	select {
	case msg := <-replyChan:
		var health HealthStatus
		if err := json.Unmarshal(msg.Data, &health); err != nil {
			return nil, fmt.Errorf("failed to parse health response: %w", err)
		}
		return &health, nil

	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("health check timeout")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts down the NATS connection
func (c *NATSQueryClient) Close() error {
	c.conn.Close()
	return nil
}
