package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aiquery/relay-service/internal/config"
)

// generateWorkerID creates a unique worker ID using timestamp and random bytes
func generateWorkerID() string {
	timestamp := time.Now().UnixNano()
	randomBytes := make([]byte, 4)
	rand.Read(randomBytes)
	randomHex := hex.EncodeToString(randomBytes)
	return fmt.Sprintf("worker-%d-%s", timestamp, randomHex)
}

// NATSService serves the query pipeline over a JetStream work queue.
type NATSService struct {
	conn         *nats.Conn
	js           nats.JetStreamContext
	queryService *QueryService
	cfg          *config.Config
	monitoring   *MonitoringService
}

func NewNATSService(cfg *config.Config, queryService *QueryService) (*NATSService, error) {
	conn, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSService{
		conn:         conn,
		js:           js,
		queryService: queryService,
		cfg:          cfg,
		monitoring:   NewMonitoringService(conn, cfg),
	}, nil
}

// GetConnection exposes the NATS connection for sibling services.
func (s *NATSService) GetConnection() *nats.Conn {
	return s.conn
}

func (s *NATSService) Start(ctx context.Context) error {
	if err := s.ensureStream(); err != nil {
		return fmt.Errorf("failed to ensure stream: %w", err)
	}

	consumer, err := s.createConsumer()
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	slog.Info("NATS service starting",
		"stream", s.cfg.Stream,
		"subject", s.cfg.Subject,
		"consumer", s.cfg.Durable,
		"concurrency", s.cfg.Concurrency)

	go s.monitoring.Start(ctx)

	for i := 0; i < s.cfg.Concurrency; i++ {
		workerID := generateWorkerID()
		go s.worker(ctx, consumer, workerID)
	}

	<-ctx.Done()
	slog.Info("NATS service shutting down")

	s.conn.Close()
	return nil
}

func (s *NATSService) ensureStream() error {
	streamInfo, err := s.js.StreamInfo(s.cfg.Stream)
	if err != nil {
		if err == nats.ErrStreamNotFound {
			_, err = s.js.AddStream(&nats.StreamConfig{
				Name:      s.cfg.Stream,
				Subjects:  []string{s.cfg.Subject},
				MaxMsgs:   int64(s.cfg.MaxMsgs),
				MaxAge:    s.cfg.MaxAge,
				Storage:   nats.FileStorage,
				Retention: nats.WorkQueuePolicy,
			})
			if err != nil {
				return fmt.Errorf("failed to create stream: %w", err)
			}
			slog.Info("Created NATS stream", "name", s.cfg.Stream)
			return nil
		}
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	// Check if stream has our subject, update if needed
	hasSubject := false
	for _, subject := range streamInfo.Config.Subjects {
		if subject == s.cfg.Subject {
			hasSubject = true
			break
		}
	}

	if !hasSubject {
		newConfig := streamInfo.Config
		newConfig.Subjects = append(newConfig.Subjects, s.cfg.Subject)
		if _, err := s.js.UpdateStream(&newConfig); err != nil {
			return fmt.Errorf("failed to update stream with new subject: %w", err)
		}
		slog.Info("Updated NATS stream with new subject", "name", s.cfg.Stream, "subject", s.cfg.Subject)
	} else {
		slog.Info("NATS stream already exists", "name", s.cfg.Stream, "messages", streamInfo.State.Msgs)
	}

	return nil
}

func (s *NATSService) createConsumer() (*nats.Subscription, error) {
	sub, err := s.js.PullSubscribe(s.cfg.Subject, s.cfg.Durable, nats.ManualAck())
	if err != nil {
		return nil, fmt.Errorf("failed to create pull consumer: %w", err)
	}

	slog.Info("Created NATS consumer", "durable", s.cfg.Durable)
	return sub, nil
}

func (s *NATSService) worker(ctx context.Context, consumer *nats.Subscription, workerID string) {
	slog.Info("NATS worker starting", "worker_id", workerID)

	for {
		select {
		case <-ctx.Done():
			slog.Info("NATS worker shutting down", "worker_id", workerID)
			return
		default:
			msgs, err := consumer.Fetch(1, nats.MaxWait(time.Second))
			if err != nil {
				if err == nats.ErrTimeout {
					continue // Normal timeout, continue polling
				}
				slog.Error("Failed to fetch messages", "worker_id", workerID, "error", err)
				time.Sleep(time.Second) // Back off on error
				continue
			}

			for _, msg := range msgs {
				s.monitoring.IncrementPending()
				s.processQueryMessage(ctx, msg, workerID)
				s.monitoring.DecrementPending()
			}
		}
	}
}

func (s *NATSService) processQueryMessage(ctx context.Context, msg *nats.Msg, workerID string) {
	s.monitoring.IncrementActive()
	defer s.monitoring.DecrementActive()

	var req QueryRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		slog.Error("Failed to parse query request",
			"worker_id", workerID,
			"error", err,
			"data", string(msg.Data))
		msg.Nak()
		return
	}

	if req.TraceID == "" {
		req.TraceID = req.ReqID
	}

	slog.Debug("Processing NATS query request",
		"worker_id", workerID,
		"req_id", req.ReqID,
		"trace_id", req.TraceID,
		"subject", msg.Subject)

	// Workers run every request to completion; errors still produce a
	// response for the caller.
	response, err := s.queryService.ProcessQuery(
		ctx,
		req,
		fmt.Sprintf("nats.%s", msg.Subject),
		req.ReplyTo,
		workerID,
	)
	if err != nil {
		slog.Warn("Query failed",
			"worker_id", workerID,
			"req_id", req.ReqID,
			"error_kind", response.ErrorKind)
	}

	if req.ReplyTo != "" {
		responseData, marshalErr := json.Marshal(response)
		if marshalErr != nil {
			slog.Error("Failed to marshal response", "req_id", req.ReqID, "error", marshalErr)
			msg.Nak()
			return
		}
		if pubErr := s.conn.Publish(req.ReplyTo, responseData); pubErr != nil {
			slog.Error("Failed to publish response", "req_id", req.ReqID, "reply_to", req.ReplyTo, "error", pubErr)
			msg.Nak()
			return
		}
	}

	msg.Ack()
}
