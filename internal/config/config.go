package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Vertex AI Configuration
	ProjectID        string
	Location         string
	ModelName        string
	PromptSuffix     string
	Backend          string // "vertex" or "mock"
	VertexBaseURL    string // empty means derive from Location
	AccessToken      string
	InferenceTimeout time.Duration

	// HTTP Configuration
	Port int

	// Rendering Configuration
	MaxRenderBytes int

	// NATS Configuration (empty NatsURL disables the NATS transport)
	NatsURL        string
	Stream         string
	Subject        string
	Durable        string
	QueueGroup     string
	ResponsePrefix string
	MaxMsgs        int
	MaxAge         time.Duration
	AckWait        time.Duration
	MaxDeliver     int
	MaxAckPending  int
	Concurrency    int

	// Monitoring Configuration
	MonitoringTopic       string
	BackpressureThreshold int

	// Data Directory Configuration
	DataDir string

	// Database Configuration
	DBPath string
}

// HTTPAddr returns the listen address derived from Port.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := loadDotEnv(envFile); err != nil {
			slog.Warn("Could not load env file", "file", envFile, "error", err)
		} else {
			slog.Info("Environment loaded", "file", envFile)
		}
	}

	return &Config{
		ProjectID:        getEnv("GCP_PROJECT_ID", "your-project-id"),
		Location:         getEnv("GCP_LOCATION", "us-central1"),
		ModelName:        getEnv("MODEL_NAME", "gemini-2.5-pro-preview-05-06"),
		PromptSuffix:     getEnv("PROMPT_SUFFIX", "Please provide a clear and concise response."),
		Backend:          getEnv("INFERENCE_BACKEND", "vertex"),
		VertexBaseURL:    getEnv("VERTEX_BASE_URL", ""),
		AccessToken:      getEnv("GCP_ACCESS_TOKEN", ""),
		InferenceTimeout: getEnvDuration("INFERENCE_TIMEOUT", "60s"),
		Port:             getEnvInt("PORT", 5000),
		MaxRenderBytes:   getEnvInt("MAX_RENDER_BYTES", 1<<20),
		NatsURL:          getEnv("NATS_URL", ""),
		Stream:           getEnv("STREAM_NAME", "QUERIES"),
		Subject:          getEnv("SUBJECT", "query.request.default"),
		Durable:          getEnv("QUEUE_DURABLE", "query-wq"),
		QueueGroup:       getEnv("QUEUE_GROUP", "workers"),
		ResponsePrefix:   getEnv("RESPONSE_PREFIX", "query.reply"),
		MaxMsgs:          getEnvInt("QUEUE_MAX_MSGS", 2000),
		MaxAge:           getEnvDuration("QUEUE_MAX_AGE", "30s"),
		AckWait:          getEnvDuration("ACK_WAIT", "30s"),
		MaxDeliver:       getEnvInt("MAX_DELIVER", 5),
		MaxAckPending:    getEnvInt("MAX_ACK_PENDING", 64),
		Concurrency:      getEnvInt("WORKER_CONCURRENCY", 2),

		MonitoringTopic:       getEnv("MONITORING_TOPIC", "monitoring.backpressure"),
		BackpressureThreshold: getEnvInt("BACKPRESSURE_THRESHOLD", 100),

		DataDir: getEnv("DATA_DIR", "data"),
		DBPath:  getEnv("DB_PATH", "data/relay.sqlite"),
	}, nil
}

func loadDotEnv(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key, defaultVal string) time.Duration {
	val := getEnv(key, defaultVal)
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaultVal)
	return d
}
