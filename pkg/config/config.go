package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config stores all configuration for the scraper and the webhook server.
type Config struct {
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	ServerPort string `mapstructure:"SERVER_PORT"`

	OutputDir     string `mapstructure:"OUTPUT_DIR"`
	DebugDir      string `mapstructure:"DEBUG_DIR"`
	SaveDebugHTML bool   `mapstructure:"SAVE_DEBUG_HTML"`
	ReportsDir    string `mapstructure:"REPORTS_DIR"`
	ContentDir    string `mapstructure:"CONTENT_DIR"`

	WaitSeconds       int    `mapstructure:"WAIT_SECONDS"`
	Scroll            bool   `mapstructure:"SCROLL"`
	Headless          bool   `mapstructure:"HEADLESS"`
	UserAgent         string `mapstructure:"USER_AGENT"`
	WindowWidth       int    `mapstructure:"WINDOW_WIDTH"`
	WindowHeight      int    `mapstructure:"WINDOW_HEIGHT"`
	PageLoadTimeout   int    `mapstructure:"PAGE_LOAD_TIMEOUT"`
	MinImageSize      int    `mapstructure:"MIN_IMAGE_SIZE"`
	ProbeTimeoutMS    int    `mapstructure:"PROBE_TIMEOUT_MS"`
	BatchDelaySeconds int    `mapstructure:"BATCH_DELAY_SECONDS"`
	TotalPages        int    `mapstructure:"TOTAL_PAGES"`
	FlushEachPage     bool   `mapstructure:"FLUSH_EACH_PAGE"`
	TargetsFile       string `mapstructure:"TARGETS_FILE"`

	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int    `mapstructure:"REDIS_DB"`
	VisitedTTLHours int    `mapstructure:"VISITED_TTL_HOURS"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`

	S3Bucket           string `mapstructure:"S3_BUCKET"`
	S3Region           string `mapstructure:"S3_REGION"`
	S3Prefix           string `mapstructure:"S3_PREFIX"`
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`

	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel   string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`

	WebflowToken        string  `mapstructure:"WEBFLOW_TOKEN"`
	WebflowBaseURL      string  `mapstructure:"WEBFLOW_BASE_URL"`
	WebflowSiteID       string  `mapstructure:"WEBFLOW_SITE_ID"`
	WebflowCollectionID string  `mapstructure:"WEBFLOW_COLLECTION_ID"`
	ScoreThreshold      float64 `mapstructure:"SCORE_THRESHOLD"`
}

var defaults = map[string]any{
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"SERVER_PORT":           "8080",
	"OUTPUT_DIR":            "images",
	"DEBUG_DIR":             "debug_output",
	"SAVE_DEBUG_HTML":       false,
	"REPORTS_DIR":           "reports",
	"CONTENT_DIR":           "content",
	"WAIT_SECONDS":          10,
	"SCROLL":                true,
	"HEADLESS":              true,
	"USER_AGENT":            "",
	"WINDOW_WIDTH":          1920,
	"WINDOW_HEIGHT":         1080,
	"PAGE_LOAD_TIMEOUT":     60,
	"MIN_IMAGE_SIZE":        200,
	"PROBE_TIMEOUT_MS":      5000,
	"BATCH_DELAY_SECONDS":   2,
	"TOTAL_PAGES":           0,
	"FLUSH_EACH_PAGE":       false,
	"TARGETS_FILE":          "",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"VISITED_TTL_HOURS":     24,
	"POSTGRES_URL":          "",
	"S3_BUCKET":             "",
	"S3_REGION":             "us-east-1",
	"S3_PREFIX":             "collections",
	"AWS_ACCESS_KEY_ID":     "",
	"AWS_SECRET_ACCESS_KEY": "",
	"OPENAI_API_KEY":        "",
	"OPENAI_MODEL":          "gpt-4o-mini",
	"OPENAI_BASE_URL":       "https://api.openai.com",
	"WEBFLOW_TOKEN":         "",
	"WEBFLOW_BASE_URL":      "https://api.webflow.com",
	"WEBFLOW_SITE_ID":       "",
	"WEBFLOW_COLLECTION_ID": "",
	"SCORE_THRESHOLD":       90.0,
}

// flagKeys maps CLI flag names to the configuration keys they override.
var flagKeys = map[string]string{
	"output-dir":      "OUTPUT_DIR",
	"wait-time":       "WAIT_SECONDS",
	"scroll":          "SCROLL",
	"headless":        "HEADLESS",
	"log-level":       "LOG_LEVEL",
	"delay":           "BATCH_DELAY_SECONDS",
	"pages":           "TOTAL_PAGES",
	"min-size":        "MIN_IMAGE_SIZE",
	"flush-each-page": "FLUSH_EACH_PAGE",
	"targets":         "TARGETS_FILE",
	"save-html":       "SAVE_DEBUG_HTML",
}

// Load reads configuration from .env, the environment and, when flags is
// non-nil, any flags the user set explicitly. Flags win over env.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing .env is fine; production configures through the environment.
	_ = v.ReadInConfig()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch {
	case c.WaitSeconds < 0:
		return fmt.Errorf("WAIT_SECONDS must not be negative, got %d", c.WaitSeconds)
	case c.BatchDelaySeconds < 0:
		return fmt.Errorf("BATCH_DELAY_SECONDS must not be negative, got %d", c.BatchDelaySeconds)
	case c.MinImageSize < 0:
		return fmt.Errorf("MIN_IMAGE_SIZE must not be negative, got %d", c.MinImageSize)
	case c.TotalPages < 0:
		return fmt.Errorf("TOTAL_PAGES must not be negative, got %d", c.TotalPages)
	case c.OutputDir == "":
		return fmt.Errorf("OUTPUT_DIR must be set")
	}
	return nil
}

func (c *Config) WaitTime() time.Duration { return time.Duration(c.WaitSeconds) * time.Second }

func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelaySeconds) * time.Second
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

func (c *Config) PageLoad() time.Duration {
	return time.Duration(c.PageLoadTimeout) * time.Second
}

func (c *Config) VisitedTTL() time.Duration {
	return time.Duration(c.VisitedTTLHours) * time.Hour
}
