package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Ai      AIConfig
	Routing RoutingConfig
	Data    DataConfig
	Session SessionConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LogLevel           string
	EventLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string // empty disables JetStream forwarding
	RedisURL           string // empty disables session snapshots
	JWTSecret          string // empty disables the auth guard
	TurnEventTopic     string
}

type AIConfig struct {
	LLMProvider   string // "ollama", "openai", "gemini" or "canned"
	LLMModel      string
	OllamaBaseURL string
	OpenAIBaseURL string
	OpenAIAPIKey  string
	GeminiAPIKey  string
	Temperature   float64
	MaxTokens     int
	Timeout       time.Duration
	HistoryWindow int
	SampleRows    int
}

type RoutingConfig struct {
	Threshold          float64
	Margin             float64
	TopN               int
	MaxAttempts        int
	ClarificationTTL   time.Duration
	FollowUpConfidence float64
	FollowUpBoost      float64
}

type DataConfig struct {
	Dir           string
	TaxonomyPath  string // empty uses the built-in taxonomy
	SyntheticSeed uint64
}

type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	SnapshotTTL     time.Duration
	LockWait        time.Duration
	DefaultLanguage string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			EventLogFilePath:   getEnv("EVENT_LOG_FILE_PATH", "logs/turns.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			TurnEventTopic:     getEnv("TURN_EVENT_TOPIC", "chat.turn.committed"),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			GeminiAPIKey:  getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Temperature:   getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:     getEnvAsInt("LLM_MAX_TOKENS", 1000),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
			HistoryWindow: getEnvAsInt("LLM_HISTORY_WINDOW", 6),
			SampleRows:    getEnvAsInt("LLM_SAMPLE_ROWS", 5),
		},
		Routing: RoutingConfig{
			Threshold:          getEnvAsFloat("ROUTING_THRESHOLD", 0.5),
			Margin:             getEnvAsFloat("ROUTING_MARGIN", 0.1),
			TopN:               getEnvAsInt("ROUTING_TOP_N", 3),
			MaxAttempts:        getEnvAsInt("ROUTING_MAX_ATTEMPTS", 2),
			ClarificationTTL:   getEnvAsDuration("ROUTING_CLARIFICATION_TTL", 10*time.Minute),
			FollowUpConfidence: getEnvAsFloat("ROUTING_FOLLOW_UP_CONFIDENCE", 0.6),
			FollowUpBoost:      getEnvAsFloat("ROUTING_FOLLOW_UP_BOOST", 0.1),
		},
		Data: DataConfig{
			Dir:           getEnv("DATA_DIR", "data"),
			TaxonomyPath:  getEnv("TAXONOMY_PATH", ""),
			SyntheticSeed: uint64(getEnvAsInt("DATA_SYNTHETIC_SEED", 42)),
		},
		Session: SessionConfig{
			TTL:             getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			CleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
			SnapshotTTL:     getEnvAsDuration("SESSION_SNAPSHOT_TTL", 24*time.Hour),
			LockWait:        getEnvAsDuration("SESSION_LOCK_WAIT", 45*time.Second),
			DefaultLanguage: getEnv("SESSION_DEFAULT_LANGUAGE", "en"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
