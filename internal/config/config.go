// Package config loads and validates the bot configuration.
//
// DESIGN: One YAML file describes the providers, the models they expose, and
// per-model price overrides. Secrets never live in the file: each provider
// names the environment variable its API key is read from, and the Telegram
// token is resolved the same way. Everything else has a built-in default so
// the bot starts with an empty config file.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kenyap/quotabot/internal/pricing"
)

// TokenizerHeuristic selects the word-count estimator, TokenizerTiktoken the
// exact BPE counter.
const (
	TokenizerHeuristic = "heuristic"
	TokenizerTiktoken  = "tiktoken"
)

// Config is the root configuration.
type Config struct {
	Telegram  TelegramConfig            `yaml:"telegram"`
	Storage   StorageConfig             `yaml:"storage"`
	Dispatch  DispatchConfig            `yaml:"dispatch"`
	Tokenizer string                    `yaml:"tokenizer"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Pricing   pricing.Table             `yaml:"pricing"`
}

// TelegramConfig holds transport settings.
type TelegramConfig struct {
	TokenEnv    string        `yaml:"token_env"`
	PollTimeout time.Duration `yaml:"poll_timeout"`

	// Token is resolved from TokenEnv at load time, never from YAML.
	Token string `yaml:"-"`
}

// StorageConfig holds ledger settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// DispatchConfig holds vendor-call settings.
type DispatchConfig struct {
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ProviderConfig describes one LLM vendor and the models it exposes in the
// selection menu.
type ProviderConfig struct {
	// API selects the wire protocol: "anthropic" or "openai".
	API       string        `yaml:"api"`
	Endpoint  string        `yaml:"endpoint"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Models    []ModelConfig `yaml:"models"`

	// APIKey is resolved from APIKeyEnv at load time.
	APIKey string `yaml:"-"`
}

// ModelConfig is one menu entry.
type ModelConfig struct {
	Name string `yaml:"name"` // display name
	ID   string `yaml:"id"`   // vendor model identifier
}

// Default returns the built-in configuration: three providers, six models,
// default pricing.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			TokenEnv:    "TELE_API_KEY",
			PollTimeout: DefaultPollTimeout,
		},
		Storage: StorageConfig{DBPath: DefaultDBPath},
		Dispatch: DispatchConfig{
			MaxTokens: DefaultMaxTokens,
			Timeout:   DefaultDispatchTimeout,
		},
		Tokenizer: TokenizerHeuristic,
		Providers: map[string]ProviderConfig{
			"Claude": {
				API:       "anthropic",
				APIKeyEnv: "CLA_API_KEY",
				Models: []ModelConfig{
					{Name: "Claude 3.7 (Sonnet)", ID: "claude-3-7-sonnet-20250219"},
					{Name: "Claude 3.5 (Haiku)", ID: "claude-3-5-haiku-20241022"},
				},
			},
			"Deepseek": {
				API:       "openai",
				Endpoint:  "https://api.deepseek.com/v1/chat/completions",
				APIKeyEnv: "DS_API_KEY",
				Models: []ModelConfig{
					{Name: "Deepseek R1", ID: "deepseek-reasoner"},
					{Name: "Deepseek V3", ID: "deepseek-chat"},
				},
			},
			"ChatGPT": {
				API:       "openai",
				APIKeyEnv: "GPT_API_KEY",
				Models: []ModelConfig{
					{Name: "GPT-4o", ID: "gpt-4o"},
					{Name: "GPT-4o-mini", ID: "gpt-4o-mini"},
				},
			},
		},
		Pricing: pricing.DefaultTable(),
	}
}

// Load reads the YAML file at path (if it exists), overlays it onto the
// defaults, resolves secrets from the environment, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else {
			var file Config
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
			cfg.overlay(&file)
		}
	}

	cfg.Telegram.Token = os.Getenv(cfg.Telegram.TokenEnv)
	for name, p := range cfg.Providers {
		p.APIKey = os.Getenv(p.APIKeyEnv)
		cfg.Providers[name] = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay applies the non-zero fields of file onto cfg.
func (c *Config) overlay(file *Config) {
	if file.Telegram.TokenEnv != "" {
		c.Telegram.TokenEnv = file.Telegram.TokenEnv
	}
	if file.Telegram.PollTimeout > 0 {
		c.Telegram.PollTimeout = file.Telegram.PollTimeout
	}
	if file.Storage.DBPath != "" {
		c.Storage.DBPath = file.Storage.DBPath
	}
	if file.Dispatch.MaxTokens > 0 {
		c.Dispatch.MaxTokens = file.Dispatch.MaxTokens
	}
	if file.Dispatch.Timeout > 0 {
		c.Dispatch.Timeout = file.Dispatch.Timeout
	}
	if file.Tokenizer != "" {
		c.Tokenizer = file.Tokenizer
	}
	if len(file.Providers) > 0 {
		c.Providers = file.Providers
	}
	if len(file.Pricing) > 0 {
		c.Pricing.Merge(file.Pricing)
	}
}

// Validate checks the configuration for internal consistency.
// Every model offered in a menu must carry a price entry: an unpriced model
// is rejected here rather than billed at zero later.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token missing: set %s", c.Telegram.TokenEnv)
	}
	if c.Tokenizer != TokenizerHeuristic && c.Tokenizer != TokenizerTiktoken {
		return fmt.Errorf("tokenizer must be %q or %q, got %q",
			TokenizerHeuristic, TokenizerTiktoken, c.Tokenizer)
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("no providers configured")
	}
	for name, p := range c.Providers {
		if p.API != "anthropic" && p.API != "openai" {
			return fmt.Errorf("provider %s: api must be \"anthropic\" or \"openai\", got %q", name, p.API)
		}
		if len(p.Models) == 0 {
			return fmt.Errorf("provider %s: no models configured", name)
		}
		for _, m := range p.Models {
			if m.ID == "" {
				return fmt.Errorf("provider %s: model %q has no id", name, m.Name)
			}
			if _, ok := c.Pricing.Lookup(m.ID); !ok {
				return fmt.Errorf("provider %s: model %s has no price entry", name, m.ID)
			}
		}
	}
	return c.Pricing.Validate()
}

// ProviderNames returns provider names in stable menu order.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
