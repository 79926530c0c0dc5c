package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds shared runtime configuration for the API and worker services.
type Config struct {
	Env         string
	LogLevel    string
	HTTPPort    string
	MetricsAddr string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Job record retention; the store refreshes this TTL on every write.
	JobTTL time.Duration
	// Wall-clock ceiling for one pipeline attempt. Doubles as the queue
	// lease so a wedged worker loses the job instead of holding it.
	JobTimeout         time.Duration
	VisibilityTimeout  time.Duration
	WorkerPollInterval time.Duration
	MaxAttempts        int
	DLQName            string

	RateLimitCapacity int
	RateLimitRefill   float64

	OpenAIAPIKey string
	OpenAIModel  string

	GoogleCredentials string
	VoiceLanguage     string
	VoiceHost1        string
	VoiceHost2        string

	SendGridAPIKey string
	FromEmail      string
	BaseURL        string

	TempDir      string
	OutputDir    string
	DevOutputDir string
	TemplatePath string
	FontPaths    []string

	// "local" or "s3".
	ArtifactBackend string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PathStyle     bool
	S3Prefix        string
}

// Load reads configuration from environment variables with sane defaults for local development.
func Load() Config {
	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPPort:    getEnv("HTTP_PORT", "8000"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JobTTL:             getEnvDuration("JOB_TTL", 24*time.Hour),
		JobTimeout:         getEnvDuration("JOB_TIMEOUT", 10*time.Minute),
		VisibilityTimeout:  getEnvDuration("VISIBILITY_TIMEOUT", 30*time.Second),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", time.Second),
		MaxAttempts:        getEnvInt("MAX_ATTEMPTS", 3),
		DLQName:            getEnv("DLQ_NAME", "videojobs:dlq"),

		RateLimitCapacity: getEnvInt("RATE_LIMIT_CAPACITY", 50),
		RateLimitRefill:   getEnvFloat("RATE_LIMIT_REFILL_PER_SEC", 20),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		GoogleCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		VoiceLanguage:     getEnv("TTS_LANGUAGE", "en-US"),
		VoiceHost1:        getEnv("TTS_VOICE_HOST1", "en-US-Chirp3-HD-Algenib"),
		VoiceHost2:        getEnv("TTS_VOICE_HOST2", "en-US-Chirp3-HD-Aoede"),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		FromEmail:      getEnv("FROM_EMAIL", "onboarding@dayzero.local"),
		BaseURL:        getEnv("BASE_URL", "http://localhost:8000"),

		TempDir:      getEnv("TEMP_DIR", "/tmp/dayzero"),
		OutputDir:    getEnv("OUTPUT_DIR", "./videos"),
		DevOutputDir: getEnv("DEV_OUTPUT_DIR", ""),
		TemplatePath: getEnv("SLIDE_TEMPLATE_PATH", ""),
		FontPaths:    getEnvList("SLIDE_FONT_PATHS", nil),

		ArtifactBackend: getEnv("ARTIFACT_BACKEND", "local"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3PathStyle:     getEnvBool("S3_PATH_STYLE", false),
		S3Prefix:        getEnv("S3_PREFIX", "videos/"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
