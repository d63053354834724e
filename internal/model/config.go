package model

import "time"

// Config holds the complete scholar configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Analyze     AnalyzeConfig     `yaml:"analyze"`
	Verify      VerifyConfig      `yaml:"verify"`
	Fetch       FetchConfig       `yaml:"fetch"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// LLMConfig configures the model provider
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, anthropic, ollama
	Model    string `yaml:"model"`
	APIKey   string `yaml:"-"` // Never serialized; from environment
	BaseURL  string `yaml:"base_url,omitempty"`
	Timeout  int    `yaml:"timeout"` // seconds

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty"`
}

// AnalyzeConfig configures the batch analysis driver
type AnalyzeConfig struct {
	SystemPrompt string  `yaml:"system_prompt"`
	NumResults   int     `yaml:"num_results"` // Completions requested per attempt; first valid one wins
	NumRetries   int     `yaml:"num_retries"`
	MaxTokens    int     `yaml:"max_tokens"` // 0 = provider default
	TopP         float32 `yaml:"top_p"`
	PricingURL   string  `yaml:"pricing_url"`
}

// VerifyConfig configures citation verification
type VerifyConfig struct {
	// MaxDistance is the edit-operation budget for fuzzy citation matching.
	// One fixed budget for all citations regardless of length.
	MaxDistance int `yaml:"max_distance"`
}

// FetchConfig configures document fetching for URL-valued input fields
type FetchConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	RespectRobots     bool          `yaml:"respect_robots"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // per host
	BurstSize         int           `yaml:"burst_size"`
}

// CacheConfig configures the fetched-document cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"` // disk layer location; empty = ~/.scholar/cache
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ConcurrencyConfig configures worker counts
type ConcurrencyConfig struct {
	VerifyWorkers int `yaml:"verify_workers"`
}

// OutputConfig configures output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
	InPlace bool `yaml:"in_place"` // Write results back to the input file
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  60,
		},
		Analyze: AnalyzeConfig{
			SystemPrompt: "You are a social scientist analyzing textual data.",
			NumResults:   1,
			NumRetries:   10,
			TopP:         0.3,
			PricingURL:   "https://raw.githubusercontent.com/scholarlabs/scholar/main/internal/pricing/model_pricing.json",
		},
		Verify: VerifyConfig{
			MaxDistance: 30,
		},
		Fetch: FetchConfig{
			Timeout:           30 * time.Second,
			UserAgent:         "Scholar/0.1 (+https://github.com/scholarlabs/scholar)",
			MaxBodyBytes:      2_000_000,
			RespectRobots:     true,
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			VerifyWorkers: 4,
		},
		Output: OutputConfig{
			InPlace: true,
		},
	}
}
