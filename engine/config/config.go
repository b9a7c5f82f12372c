// Package config loads and validates engine configuration from YAML files,
// environment variables, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for a dialogue run.
type Config struct {
	Conversation ConversationConfig `mapstructure:"conversation"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Dialogue     DialogueConfig     `mapstructure:"dialogue"`
	Output       OutputConfig       `mapstructure:"output"`
}

// ConversationConfig describes the dialogue itself: what to pursue, who
// answers, and how long to run.
type ConversationConfig struct {
	Goal        string      `mapstructure:"goal"`
	Persona     string      `mapstructure:"persona"`
	MaxTurns    int         `mapstructure:"max_turns"`
	HistoryFile string      `mapstructure:"history_file"`
	Questioner  AgentConfig `mapstructure:"questioner"`
	Responder   AgentConfig `mapstructure:"responder"`
}

// AgentConfig optionally overrides one agent's identity and instructions.
type AgentConfig struct {
	Name         string `mapstructure:"name"`
	Description  string `mapstructure:"description"`
	Instructions string `mapstructure:"instructions"`
}

// LLMConfig configures the inference provider.
type LLMConfig struct {
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DialogueConfig tunes the loop's instrumentation.
type DialogueConfig struct {
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitCapacity int           `mapstructure:"rate_limit_capacity"`
	RateLimitRefill   time.Duration `mapstructure:"rate_limit_refill"`
	EnableTracing     bool          `mapstructure:"enable_tracing"`
}

// OutputConfig controls where and how artifacts are written.
type OutputConfig struct {
	Dir             string   `mapstructure:"dir"`
	RedactSecrets   bool     `mapstructure:"redact_secrets"`
	BlockedPatterns []string `mapstructure:"blocked_patterns"`
}

// Load reads configuration from the given path, or searches the working
// directory for config.yaml when path is empty. Values merge in the usual
// order: defaults, then file, then environment (CONVERSATION_GOAL style
// keys). The merged settings are validated against the embedded schema
// before unmarshalling.
//
// Each call uses its own viper instance so concurrent loads for batch runs
// do not share state.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	if err := validateSettings(v.AllSettings()); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.Conversation.MaxTurns < 1 {
		return nil, fmt.Errorf("config: conversation.max_turns must be at least 1, got %d", cfg.Conversation.MaxTurns)
	}

	// Credential resolution happens here, once, so components downstream
	// receive the key explicitly and never consult process state.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if cfg.Conversation.HistoryFile != "" {
		if _, err := os.Stat(cfg.Conversation.HistoryFile); err != nil {
			return nil, fmt.Errorf("config: history file: %w", err)
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("conversation.goal", "")
	v.SetDefault("conversation.persona", "")
	v.SetDefault("conversation.max_turns", 5)
	v.SetDefault("conversation.history_file", "")
	v.SetDefault("conversation.questioner.name", "")
	v.SetDefault("conversation.questioner.description", "")
	v.SetDefault("conversation.questioner.instructions", "")
	v.SetDefault("conversation.responder.name", "")
	v.SetDefault("conversation.responder.description", "")
	v.SetDefault("conversation.responder.instructions", "")

	v.SetDefault("llm.model", "gpt-4.1-mini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("dialogue.rate_limit_enabled", true)
	v.SetDefault("dialogue.rate_limit_capacity", 10)
	v.SetDefault("dialogue.rate_limit_refill", "1s")
	v.SetDefault("dialogue.enable_tracing", false)

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.redact_secrets", true)
	v.SetDefault("output.blocked_patterns", []string{
		`(?i)password[:=]\s*\S+`,
		`(?i)api[_-]?key[:=]\s*\S+`,
		`(?i)secret[:=]\s*\S+`,
	})
}
