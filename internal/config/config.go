package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinTokenLength is the shortest API token the server accepts.
const MinTokenLength = 20

type Config struct {
	Host     string
	Port     int
	APIToken string

	LogDirectory string
	LogLevel     string

	LabelModelPath     string
	BoxModelPath       string
	LabelClasses       []string
	BoxClasses         []string
	DetectionThreshold float64
	NMSThreshold       float64
	ModelInputSize     int
	InferenceURL       string // remote label/box inference; empty means local models
	ProcessingWorkers  int    // detector instances per model

	OCRLanguage    string
	TessdataPrefix string

	MaxUploadMB    int64
	RequestTimeout time.Duration
	AllowedOrigins []string

	DatabasePath        string
	ResultDirectory     string
	ResultBufferLimit   int
	ResultFlushInterval time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Host:                getEnv("HOST", "0.0.0.0"),
		Port:                getEnvAsInt("PORT", 7000),
		APIToken:            getEnv("API_TOKEN", ""),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LabelModelPath:      getEnv("LABEL_MODEL_PATH", filepath.Join(".", "models", "etiqueta.onnx")),
		BoxModelPath:        getEnv("BOX_MODEL_PATH", filepath.Join(".", "models", "best.onnx")),
		LabelClasses:        getEnvAsList("LABEL_CLASSES", []string{"etiqueta"}),
		BoxClasses:          getEnvAsList("BOX_CLASSES", []string{"caixa_618", "caixa_623"}),
		DetectionThreshold:  getEnvAsFloat("DETECTION_THRESHOLD", 0.25),
		NMSThreshold:        getEnvAsFloat("NMS_THRESHOLD", 0.45),
		ModelInputSize:      getEnvAsInt("MODEL_INPUT_SIZE", 640),
		InferenceURL:        getEnv("INFERENCE_URL", ""),
		ProcessingWorkers:   getEnvAsInt("PROCESSING_WORKERS", 2),
		OCRLanguage:         getEnv("OCR_LANGUAGE", "eng"),
		TessdataPrefix:      getEnv("TESSDATA_PREFIX", ""),
		MaxUploadMB:         getEnvAsInt64("MAX_UPLOAD_MB", 16),
		RequestTimeout:      getEnvAsDuration("REQUEST_TIMEOUT", 5*time.Minute),
		AllowedOrigins:      getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		DatabasePath:        getEnv("DATABASE_PATH", filepath.Join(".", "data", "analyses.db")),
		ResultDirectory:     getEnv("RESULT_DIR", filepath.Join(".", "results")),
		ResultBufferLimit:   getEnvAsInt("RESULT_BUFFER_LIMIT", 20),
		ResultFlushInterval: getEnvAsDuration("RESULT_FLUSH_INTERVAL", 30*time.Second),
	}
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return fmt.Errorf("API_TOKEN must be set")
	}
	if len(c.APIToken) < MinTokenLength {
		return fmt.Errorf("API_TOKEN must be at least %d characters", MinTokenLength)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.ProcessingWorkers < 1 {
		return fmt.Errorf("PROCESSING_WORKERS must be positive, got %d", c.ProcessingWorkers)
	}
	if c.DetectionThreshold <= 0 || c.DetectionThreshold > 1 {
		return fmt.Errorf("DETECTION_THRESHOLD must be in (0,1], got %v", c.DetectionThreshold)
	}
	if c.NMSThreshold <= 0 || c.NMSThreshold > 1 {
		return fmt.Errorf("NMS_THRESHOLD must be in (0,1], got %v", c.NMSThreshold)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) DebugLogging() bool {
	return c.LogLevel == "debug"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
