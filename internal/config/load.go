package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// defaults lists every configuration key with its default value. Registering every key
// is what lets AutomaticEnv resolve nested keys during Unmarshal.
var defaults = map[string]any{
	"server.port":      8080,
	"server.log_level": "info",

	"database.driver": "none",
	"database.url":    "",

	"auth.jwt_secret":             "",
	"auth.token_lifetime_minutes": 1440,

	"llm.provider":             "gemini",
	"llm.gemini_api_key":       "",
	"llm.api_key":              "",
	"llm.base_url":             "",
	"llm.model_name":           "gemini-2.0-flash",
	"llm.timeout":              30 * time.Second,
	"llm.prompt_template_path": "",
	"llm.history_token_budget": 2000,

	"rate_limit.low.capacity":             5,
	"rate_limit.low.refill_per_second":    0.1,
	"rate_limit.normal.capacity":          20,
	"rate_limit.normal.refill_per_second": 0.5,
	"rate_limit.high.capacity":            60,
	"rate_limit.high.refill_per_second":   2,

	"circuit_breaker.failure_threshold": 5,
	"circuit_breaker.cooldown":          30 * time.Second,

	"retry.max_attempts": 3,
	"retry.base_delay":   500 * time.Millisecond,

	"models.explanation.model":            "",
	"models.explanation.temperature":      0.3,
	"models.explanation.top_p":            0.9,
	"models.explanation.max_tokens":       2048,
	"models.explanation.strict":           true,
	"models.study_plan.model":             "",
	"models.study_plan.temperature":       0.4,
	"models.study_plan.top_p":             0.9,
	"models.study_plan.max_tokens":        3072,
	"models.study_plan.strict":            true,
	"models.practice_set.model":           "",
	"models.practice_set.temperature":     0.5,
	"models.practice_set.top_p":           0.95,
	"models.practice_set.max_tokens":      3072,
	"models.practice_set.strict":          true,
	"models.concept_analysis.model":       "",
	"models.concept_analysis.temperature": 0.2,
	"models.concept_analysis.top_p":       0.85,
	"models.concept_analysis.max_tokens":  2048,
	"models.concept_analysis.strict":      true,
	"models.free_chat.model":              "",
	"models.free_chat.temperature":        0.7,
	"models.free_chat.top_p":              0.95,
	"models.free_chat.max_tokens":         1024,
	"models.free_chat.strict":             false,

	"cache.capacity":       1000,
	"cache.ttl_long":       24 * time.Hour,
	"cache.ttl_medium":     6 * time.Hour,
	"cache.ttl_short":      time.Hour,
	"cache.purge_interval": 10 * time.Minute,

	"quality.weights.title":        0.25,
	"quality.weights.summary":      0.25,
	"quality.weights.headers":      0.25,
	"quality.weights.code_fences":  0.25,
	"quality.thresholds.very_high": 0.9,
	"quality.thresholds.high":      0.75,
	"quality.thresholds.moderate":  0.5,
	"quality.min_headers":          2,

	"pipeline.max_task_length": 4000,

	"telemetry.enabled":      false,
	"telemetry.service_name": "scry-tutor",
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SCRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
