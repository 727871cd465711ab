package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Port             int
	WebhookAuthToken string

	AWSRegion      string
	BedrockModelID string
	S3Bucket       string

	PrometheusURL string
	LokiURL       string

	SlackWebhookURL string
	GitHubToken     string
	GitHubRepo      string // owner/repo

	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables. Empty values
// for the optional backends disable them.
func LoadConfig() *Config {
	return &Config{
		Port:             getEnvInt("PORT", 8080),
		WebhookAuthToken: getEnv("WEBHOOK_AUTH_TOKEN", ""),
		AWSRegion:        getEnv("AWS_REGION", "ap-south-1"),
		BedrockModelID:   getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		PrometheusURL:    getEnv("PROMETHEUS_URL", ""),
		LokiURL:          getEnv("LOKI_URL", ""),
		SlackWebhookURL:  getEnv("SLACK_WEBHOOK_URL", ""),
		GitHubToken:      getEnv("GITHUB_TOKEN", ""),
		GitHubRepo:       getEnv("GITHUB_REPO", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an int environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
