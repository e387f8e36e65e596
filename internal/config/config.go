package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv         = "DEALSCOUT_CONFIG"
	databaseDSNEnv        = "DATABASE_DSN"
	redisAddressEnv       = "REDIS_ADDRESS"
	adminSecretEnv        = "ADMIN_SECRET"
	classifierProviderEnv = "CLASSIFIER_PROVIDER"
	openAIAPIKeyEnv       = "OPENAI_API_KEY"
	geminiAPIKeyEnv       = "GEMINI_API_KEY"
	actorTokenEnv         = "ACTOR_TOKEN"

	defaultInterval = 5 * time.Minute
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Admin      AdminConfig      `yaml:"admin"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Triage     TriageConfig     `yaml:"triage"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	RSS        []FeedConfig     `yaml:"rss"`
	Actor      ActorConfig      `yaml:"actor"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig describes the dedup-ledger backing store. An empty address
// falls back to the in-memory ledger.
type RedisConfig struct {
	Address       string `yaml:"address"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	RetentionDays int    `yaml:"retentionDays"`
}

// SchedulerConfig defines how often discovery cycles run.
type SchedulerConfig struct {
	Interval string `yaml:"interval"`
}

// Every resolves the interval string to a duration, defaulting to 5 minutes.
func (s SchedulerConfig) Every() time.Duration {
	if s.Interval == "" {
		return defaultInterval
	}
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		log.Printf("config: invalid scheduler interval %q, using %s", s.Interval, defaultInterval)
		return defaultInterval
	}
	return d
}

// AdminConfig wires the administrative HTTP boundary.
type AdminConfig struct {
	Addr   string `yaml:"addr"`
	Secret string `yaml:"secret"`
}

// ClassifierConfig selects and configures the extraction provider.
type ClassifierConfig struct {
	Provider string       `yaml:"provider"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	Gemini   GeminiConfig `yaml:"gemini"`
}

// OpenAIConfig defines how to contact an OpenAI-compatible API.
type OpenAIConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"apiKey"`
}

// TriageConfig externalizes the confidence thresholds.
type TriageConfig struct {
	AutoPublishThreshold float64 `yaml:"autoPublishThreshold"`
	ReviewFloor          float64 `yaml:"reviewFloor"`
}

// PipelineConfig bounds per-cycle work.
type PipelineConfig struct {
	BatchSize    int    `yaml:"batchSize"`
	FetchTimeout string `yaml:"fetchTimeout"`
}

// FetchDeadline resolves the per-adapter timeout, defaulting to 30 seconds.
func (p PipelineConfig) FetchDeadline() time.Duration {
	if p.FetchTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(p.FetchTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// TelegramConfig lists the public channels to scrape.
type TelegramConfig struct {
	Channels []string `yaml:"channels"`
}

// FeedConfig describes one RSS feed.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// ActorConfig describes the remote scraping-actor integration.
type ActorConfig struct {
	BaseURL      string   `yaml:"baseUrl"`
	Token        string   `yaml:"token"`
	ActorID      string   `yaml:"actorId"`
	Keywords     []string `yaml:"keywords"`
	PollInterval string   `yaml:"pollInterval"`
	PollTimeout  string   `yaml:"pollTimeout"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(redisAddressEnv); v != "" {
		c.Redis.Address = v
	}
	if v := os.Getenv(adminSecretEnv); v != "" {
		c.Admin.Secret = v
	}
	if v := os.Getenv(classifierProviderEnv); v != "" {
		c.Classifier.Provider = v
	}
	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.Classifier.OpenAI.APIKey = v
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Classifier.Gemini.APIKey = v
	}
	if v := os.Getenv(actorTokenEnv); v != "" {
		c.Actor.Token = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Redis.Address != "" {
		base.Redis.Address = override.Redis.Address
	}
	if override.Redis.Password != "" {
		base.Redis.Password = override.Redis.Password
	}
	if override.Redis.DB != 0 {
		base.Redis.DB = override.Redis.DB
	}
	if override.Redis.RetentionDays != 0 {
		base.Redis.RetentionDays = override.Redis.RetentionDays
	}

	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.Admin.Addr != "" {
		base.Admin.Addr = override.Admin.Addr
	}
	if override.Admin.Secret != "" {
		base.Admin.Secret = override.Admin.Secret
	}

	if override.Classifier.Provider != "" {
		base.Classifier.Provider = override.Classifier.Provider
	}
	if override.Classifier.OpenAI.Endpoint != "" {
		base.Classifier.OpenAI.Endpoint = override.Classifier.OpenAI.Endpoint
	}
	if override.Classifier.OpenAI.Model != "" {
		base.Classifier.OpenAI.Model = override.Classifier.OpenAI.Model
	}
	if override.Classifier.OpenAI.APIKey != "" {
		base.Classifier.OpenAI.APIKey = override.Classifier.OpenAI.APIKey
	}
	if override.Classifier.Gemini.BaseURL != "" {
		base.Classifier.Gemini.BaseURL = override.Classifier.Gemini.BaseURL
	}
	if override.Classifier.Gemini.Model != "" {
		base.Classifier.Gemini.Model = override.Classifier.Gemini.Model
	}
	if override.Classifier.Gemini.APIKey != "" {
		base.Classifier.Gemini.APIKey = override.Classifier.Gemini.APIKey
	}

	if override.Triage.AutoPublishThreshold != 0 {
		base.Triage.AutoPublishThreshold = override.Triage.AutoPublishThreshold
	}
	if override.Triage.ReviewFloor != 0 {
		base.Triage.ReviewFloor = override.Triage.ReviewFloor
	}

	if override.Pipeline.BatchSize != 0 {
		base.Pipeline.BatchSize = override.Pipeline.BatchSize
	}
	if override.Pipeline.FetchTimeout != "" {
		base.Pipeline.FetchTimeout = override.Pipeline.FetchTimeout
	}

	if len(override.Telegram.Channels) > 0 {
		base.Telegram.Channels = override.Telegram.Channels
	}
	if len(override.RSS) > 0 {
		base.RSS = override.RSS
	}

	if override.Actor.BaseURL != "" {
		base.Actor.BaseURL = override.Actor.BaseURL
	}
	if override.Actor.Token != "" {
		base.Actor.Token = override.Actor.Token
	}
	if override.Actor.ActorID != "" {
		base.Actor.ActorID = override.Actor.ActorID
	}
	if len(override.Actor.Keywords) > 0 {
		base.Actor.Keywords = override.Actor.Keywords
	}
	if override.Actor.PollInterval != "" {
		base.Actor.PollInterval = override.Actor.PollInterval
	}
	if override.Actor.PollTimeout != "" {
		base.Actor.PollTimeout = override.Actor.PollTimeout
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Database:  DatabaseConfig{DSN: ""},
		Redis:     RedisConfig{RetentionDays: 30},
		Scheduler: SchedulerConfig{Interval: "5m"},
		Admin:     AdminConfig{Addr: ":8090"},
		Classifier: ClassifierConfig{
			Provider: "openai",
			OpenAI: OpenAIConfig{
				Endpoint: "https://api.openai.com/v1/chat/completions",
				Model:    "gpt-4o-mini",
			},
			Gemini: GeminiConfig{
				BaseURL: "https://generativelanguage.googleapis.com",
				Model:   "gemini-2.0-flash",
			},
		},
		Triage: TriageConfig{
			AutoPublishThreshold: 0.75,
			ReviewFloor:          0.4,
		},
		Pipeline: PipelineConfig{BatchSize: 10, FetchTimeout: "30s"},
		Actor: ActorConfig{
			BaseURL:      "https://api.apify.com",
			Keywords:     []string{"#sale", "#discount", "#מבצע"},
			PollInterval: "5s",
			PollTimeout:  "2m",
		},
	}
}
