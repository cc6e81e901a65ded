package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"       validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database"     validate:"required"`
	LLM          LLMConfig          `mapstructure:"llm"          validate:"required"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator" validate:"required"`
	Task         TaskConfig         `mapstructure:"task"         validate:"required"`
	Notify       NotifyConfig       `mapstructure:"notify"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains all provider integration settings: which vendor to
// call, the credential pool, rotation, and call timeouts.
type LLMConfig struct {
	Provider           string   `mapstructure:"provider"             validate:"required,oneof=gemini openai"`
	ModelName          string   `mapstructure:"model_name"           validate:"required"`
	GeminiAPIKeys      []string `mapstructure:"gemini_api_keys"      validate:"required_if=Provider gemini"`
	OpenAIAPIKeys      []string `mapstructure:"openai_api_keys"      validate:"required_if=Provider openai"`
	RotationStrategy   string   `mapstructure:"rotation_strategy"    validate:"required,oneof=round_robin random failover"`
	CallTimeoutSecs    int      `mapstructure:"call_timeout_secs"    validate:"required,gt=0"`
	RetryTimeoutSecs   int      `mapstructure:"retry_timeout_secs"   validate:"required,gt=0"`
	MaxRetries         int      `mapstructure:"max_retries"          validate:"gte=0"`
	MaxParallelKeys    int      `mapstructure:"max_parallel_keys"    validate:"gt=0"`
	EnableFastFailover bool     `mapstructure:"enable_fast_failover"`
}

// APIKeys returns the credential list for the configured provider.
func (c LLMConfig) APIKeys() []string {
	if c.Provider == "openai" {
		return c.OpenAIAPIKeys
	}
	return c.GeminiAPIKeys
}

// CallTimeout returns the first-attempt timeout as a duration.
func (c LLMConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSecs) * time.Second
}

// RetryTimeout returns the retry-attempt timeout as a duration.
func (c LLMConfig) RetryTimeout() time.Duration {
	return time.Duration(c.RetryTimeoutSecs) * time.Second
}

// OrchestratorConfig contains batch splitting and retry settings.
type OrchestratorConfig struct {
	ChunkSize      int `mapstructure:"chunk_size"       validate:"required,gt=0"`
	MaxRequests    int `mapstructure:"max_requests"     validate:"required,gt=0"`
	MaxRetryRounds int `mapstructure:"max_retry_rounds" validate:"required,gt=0"`
}

// TaskConfig contains background processing settings.
type TaskConfig struct {
	QueueSize   int `mapstructure:"queue_size"   validate:"required,gt=0"`
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
}

// NotifyConfig contains completion notification settings. When Enabled is
// false the rest of the fields are ignored.
type NotifyConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SMTPHost     string `mapstructure:"smtp_host"     validate:"required_if=Enabled true"`
	SMTPPort     int    `mapstructure:"smtp_port"     validate:"required_if=Enabled true"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	From         string `mapstructure:"from"          validate:"required_if=Enabled true"`
	To           string `mapstructure:"to"            validate:"required_if=Enabled true"`
}
