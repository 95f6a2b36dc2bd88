package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port                int
	DatabasePath        string
	ModelPath           string
	ModelConfigPath     string
	UploadDirectory     string
	ResultDirectory     string
	ThumbnailDirectory  string
	LogDirectory        string
	ConfidenceThreshold float64
	IOUThreshold        float64
	MaxUploadSizeMB     int64 // Maximum accepted upload size in MB
	MaxBatchFiles       int   // Maximum files per batch detection request
	DetectionWorkers    int   // Worker goroutines for batch processing
	FileRetentionDays   int   // Uploads older than this are removed by cleanup

	LLMEnabled     bool
	LLMAPIEndpoint string
	LLMAPIKey      string
	LLMModelName   string
	LLMMaxTokens   int
	LLMTemperature float64
}

func Load() *Config {
	return &Config{
		Port:                getEnvAsInt("PORT", 8080),
		DatabasePath:        getEnv("DATABASE_PATH", filepath.Join(".", "data", "cityguard.db")),
		ModelPath:           getEnv("MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		ModelConfigPath:     getEnv("MODEL_CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		UploadDirectory:     getEnv("UPLOAD_DIR", filepath.Join(".", "data", "uploads")),
		ResultDirectory:     getEnv("RESULT_DIR", filepath.Join(".", "data", "results")),
		ThumbnailDirectory:  getEnv("THUMBNAIL_DIR", filepath.Join(".", "data", "thumbnails")),
		LogDirectory:        getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.5),
		IOUThreshold:        getEnvAsFloat("IOU_THRESHOLD", 0.45),
		MaxUploadSizeMB:     getEnvAsInt64("MAX_UPLOAD_SIZE_MB", 50),
		MaxBatchFiles:       getEnvAsInt("MAX_BATCH_FILES", 10),
		DetectionWorkers:    getEnvAsInt("DETECTION_WORKERS", 3),
		FileRetentionDays:   getEnvAsInt("FILE_RETENTION_DAYS", 30),

		LLMEnabled:     getEnvAsBool("LLM_ENABLED", false),
		LLMAPIEndpoint: getEnv("LLM_API_ENDPOINT", ""),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMModelName:   getEnv("LLM_MODEL_NAME", "gpt-3.5-turbo"),
		LLMMaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1000),
		LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.3),
	}
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
