package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally a config
// file. Environment variables take precedence over values from config
// files. Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables like EXAMGEN_SERVER_PORT override file values.
	v.SetEnvPrefix("EXAMGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment can carry
		// everything. Any other read error is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	// Comma-separated env values (e.g. EXAMGEN_LLM_GEMINI_API_KEYS) decode
	// into string slices.
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Empty defaults register the keys so AutomaticEnv can bind them.
	v.SetDefault("database.url", "")
	v.SetDefault("llm.gemini_api_keys", []string{})
	v.SetDefault("llm.openai_api_keys", []string{})
	v.SetDefault("notify.smtp_host", "")
	v.SetDefault("notify.smtp_port", 0)
	v.SetDefault("notify.smtp_username", "")
	v.SetDefault("notify.smtp_password", "")
	v.SetDefault("notify.from", "")
	v.SetDefault("notify.to", "")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.rotation_strategy", "round_robin")
	v.SetDefault("llm.call_timeout_secs", 120)
	v.SetDefault("llm.retry_timeout_secs", 60)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.max_parallel_keys", 5)
	v.SetDefault("llm.enable_fast_failover", true)

	v.SetDefault("orchestrator.chunk_size", 10)
	v.SetDefault("orchestrator.max_requests", 10)
	v.SetDefault("orchestrator.max_retry_rounds", 3)

	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.worker_count", 2)

	v.SetDefault("notify.enabled", false)
}
