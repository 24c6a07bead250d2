package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Auth           AuthConfig           `mapstructure:"auth"`
	LLM            LLMConfig            `mapstructure:"llm"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Retry          RetryConfig          `mapstructure:"retry"`
	Models         ModelsConfig         `mapstructure:"models"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Quality        QualityConfig        `mapstructure:"quality"`
	Pipeline       PipelineConfig       `mapstructure:"pipeline"`
	Telemetry      TelemetryConfig      `mapstructure:"telemetry"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig selects the durable cache tier.
// Driver "none" keeps the answer cache in memory only.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=none postgres sqlite"`
	URL    string `mapstructure:"url" validate:"required_unless=Driver none"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=525600"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	Provider     string `mapstructure:"provider" validate:"required,oneof=gemini openai"`
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required_if=Provider gemini"`
	// APIKey is the bearer token for OpenAI-compatible endpoints. Local servers may not need one.
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url" validate:"omitempty,url"`
	Model   string        `mapstructure:"model_name" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// PromptTemplatePath optionally points at a directory of <response-type>.tmpl files
	// that replace the embedded system prompts.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
	HistoryTokenBudget int    `mapstructure:"history_token_budget" validate:"gte=0"`
}

// TierConfig describes one rate-limit tier.
type TierConfig struct {
	Capacity        int     `mapstructure:"capacity" validate:"gt=0"`
	RefillPerSecond float64 `mapstructure:"refill_per_second" validate:"gt=0"`
}

// RateLimitConfig holds per-tier token bucket settings.
type RateLimitConfig struct {
	Low    TierConfig `mapstructure:"low"`
	Normal TierConfig `mapstructure:"normal"`
	High   TierConfig `mapstructure:"high"`
}

// CircuitBreakerConfig controls when an upstream endpoint is considered unhealthy.
type CircuitBreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold" validate:"gt=0"`
	Cooldown         time.Duration `mapstructure:"cooldown" validate:"gt=0"`
}

// RetryConfig controls retries of transient upstream failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gt=0,lte=10"`
	BaseDelay   time.Duration `mapstructure:"base_delay" validate:"gte=0"`
}

// ModelConfig is the per-response-type generation profile.
type ModelConfig struct {
	// Model overrides llm.model_name when set.
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	TopP        float32 `mapstructure:"top_p" validate:"gte=0,lte=1"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gt=0"`
	Strict      bool    `mapstructure:"strict"`
}

// ModelsConfig holds one ModelConfig per response type.
type ModelsConfig struct {
	Explanation     ModelConfig `mapstructure:"explanation"`
	StudyPlan       ModelConfig `mapstructure:"study_plan"`
	PracticeSet     ModelConfig `mapstructure:"practice_set"`
	ConceptAnalysis ModelConfig `mapstructure:"concept_analysis"`
	FreeChat        ModelConfig `mapstructure:"free_chat"`
}

// CacheConfig controls the in-memory answer cache and the TTL tiers used by the quality gate.
type CacheConfig struct {
	Capacity  int           `mapstructure:"capacity" validate:"gt=0"`
	TTLLong   time.Duration `mapstructure:"ttl_long" validate:"gt=0"`
	TTLMedium time.Duration `mapstructure:"ttl_medium" validate:"gt=0"`
	TTLShort  time.Duration `mapstructure:"ttl_short" validate:"gt=0"`
	// PurgeInterval is how often expired rows are deleted from the durable tier.
	// Zero disables the janitor.
	PurgeInterval time.Duration `mapstructure:"purge_interval" validate:"gte=0"`
}

// QualityWeights weights each quality criterion. They are expected to sum to 1.
type QualityWeights struct {
	Title      float64 `mapstructure:"title" validate:"gte=0,lte=1"`
	Summary    float64 `mapstructure:"summary" validate:"gte=0,lte=1"`
	Headers    float64 `mapstructure:"headers" validate:"gte=0,lte=1"`
	CodeFences float64 `mapstructure:"code_fences" validate:"gte=0,lte=1"`
}

// QualityThresholds are the score boundaries of the TTL step function.
type QualityThresholds struct {
	VeryHigh float64 `mapstructure:"very_high" validate:"gte=0,lte=1"`
	High     float64 `mapstructure:"high" validate:"gte=0,lte=1"`
	Moderate float64 `mapstructure:"moderate" validate:"gte=0,lte=1"`
}

// QualityConfig configures the quality assessor.
type QualityConfig struct {
	Weights    QualityWeights    `mapstructure:"weights"`
	Thresholds QualityThresholds `mapstructure:"thresholds"`
	MinHeaders int               `mapstructure:"min_headers" validate:"gte=0"`
}

// PipelineConfig holds request-level limits.
type PipelineConfig struct {
	MaxTaskLength int `mapstructure:"max_task_length" validate:"gt=0"`
}

// TelemetryConfig toggles OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name" validate:"required"`
}
