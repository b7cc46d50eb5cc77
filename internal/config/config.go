package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RatePerSec     float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// ScoringConfig is the tuning seam for the scoring pipeline. The defaults
// are the production contract values; they are exposed here so threshold
// drift found during validation can be corrected without a code change.
type ScoringConfig struct {
	// Answers scoring at or below this 0-5 value become gap candidates.
	GapScoreThreshold float64 `yaml:"gap_score_threshold" mapstructure:"gap_score_threshold"`

	// Sections with regulatory priority at or above this value escalate
	// derived gap severity one band.
	RegulatoryEscalationMin int `yaml:"regulatory_escalation_min" mapstructure:"regulatory_escalation_min"`

	// Timeline bucket boundaries on the 1-10 gap priority scale.
	ImmediateMinPriority int `yaml:"immediate_min_priority" mapstructure:"immediate_min_priority"`
	NearTermMinPriority  int `yaml:"near_term_min_priority" mapstructure:"near_term_min_priority"`

	// Vendor match quality tier cut points (inclusive lower bounds).
	HighlyRelevantMin float64 `yaml:"highly_relevant_min" mapstructure:"highly_relevant_min"`
	GoodMatchMin      float64 `yaml:"good_match_min" mapstructure:"good_match_min"`

	// Vendors recommended per timeline bucket.
	TopVendorsPerBucket int `yaml:"top_vendors_per_bucket" mapstructure:"top_vendors_per_bucket"`
}

// BatchConfig configures concurrent batch scoring.
type BatchConfig struct {
	MaxConcurrentAssessments int `yaml:"max_concurrent_assessments" mapstructure:"max_concurrent_assessments"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ASSESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "assess.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_per_sec", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("batch.max_concurrent_assessments", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("scoring.gap_score_threshold", 2)
	v.SetDefault("scoring.regulatory_escalation_min", 8)
	v.SetDefault("scoring.immediate_min_priority", 8)
	v.SetDefault("scoring.near_term_min_priority", 4)
	v.SetDefault("scoring.highly_relevant_min", 120)
	v.SetDefault("scoring.good_match_min", 100)
	v.SetDefault("scoring.top_vendors_per_bucket", 3)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that a ScoringConfig is internally consistent.
func (c ScoringConfig) Validate() error {
	var errs []string

	if c.GapScoreThreshold < 0 || c.GapScoreThreshold > 5 {
		errs = append(errs, "gap_score_threshold must be between 0 and 5")
	}
	if c.ImmediateMinPriority < 1 || c.ImmediateMinPriority > 10 {
		errs = append(errs, "immediate_min_priority must be between 1 and 10")
	}
	if c.NearTermMinPriority < 1 || c.NearTermMinPriority >= c.ImmediateMinPriority {
		errs = append(errs, "near_term_min_priority must be between 1 and immediate_min_priority-1")
	}
	if c.GoodMatchMin > c.HighlyRelevantMin {
		errs = append(errs, "good_match_min must not exceed highly_relevant_min")
	}
	if c.TopVendorsPerBucket < 0 {
		errs = append(errs, "top_vendors_per_bucket must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: scoring validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DefaultScoring returns the contract scoring configuration.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		GapScoreThreshold:       2,
		RegulatoryEscalationMin: 8,
		ImmediateMinPriority:    8,
		NearTermMinPriority:     4,
		HighlyRelevantMin:       120,
		GoodMatchMin:            100,
		TopVendorsPerBucket:     3,
	}
}

// Hash returns a stable digest of the scoring configuration. Persisted
// alongside each score so a historical score can be tied to the exact
// thresholds that produced it.
func (c ScoringConfig) Hash() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
