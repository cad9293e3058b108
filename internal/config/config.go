// Package config loads application configuration from config.yaml and the
// environment and owns global logger initialization.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meridian-grc/riskflow/internal/scoring"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Audit      AuditConfig      `yaml:"audit" mapstructure:"audit"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Moderation ModerationConfig `yaml:"moderation" mapstructure:"moderation"`
	Scoring    scoring.Config   `yaml:"scoring" mapstructure:"scoring"`
	Limits     LimitsConfig     `yaml:"limits" mapstructure:"limits"`
	HITL       HITLConfig       `yaml:"hitl" mapstructure:"hitl"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the queryable audit store backend. Driver "none"
// disables the store; the per-run audit file is written regardless.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AuditConfig configures the per-run audit file sink.
type AuditConfig struct {
	LogDir string `yaml:"log_dir" mapstructure:"log_dir"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key             string `yaml:"key" mapstructure:"key"`
	ModerationModel string `yaml:"moderation_model" mapstructure:"moderation_model"`
}

// ModerationConfig selects the moderation classifier. Provider "anthropic"
// uses the remote classifier with the heuristic as fallback; "heuristic"
// skips the remote call entirely.
type ModerationConfig struct {
	Provider      string   `yaml:"provider" mapstructure:"provider"`
	ExtraKeywords []string `yaml:"extra_keywords" mapstructure:"extra_keywords"`
	RatePerSecond float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// LimitsConfig sets the per-run call ceilings.
type LimitsConfig struct {
	MaxToolCalls  int `yaml:"max_tool_calls" mapstructure:"max_tool_calls"`
	MaxModelCalls int `yaml:"max_model_calls" mapstructure:"max_model_calls"`
}

// HITLConfig configures the review gate.
type HITLConfig struct {
	// AllowAutoCritical permits non-interactive runs to auto-approve
	// CRITICAL-tier escalations. Off unless an operator opts in.
	AllowAutoCritical bool `yaml:"allow_auto_critical" mapstructure:"allow_auto_critical"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentRuns int `yaml:"max_concurrent_runs" mapstructure:"max_concurrent_runs"`
}

// ServerConfig configures the intake HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("RISKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	def := scoring.DefaultConfig()
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "riskflow.db")
	v.SetDefault("audit.log_dir", "logs")
	v.SetDefault("anthropic.moderation_model", "claude-haiku-4-5-20251001")
	v.SetDefault("moderation.provider", "heuristic")
	v.SetDefault("moderation.rate_per_second", 5.0)
	v.SetDefault("limits.max_tool_calls", 10)
	v.SetDefault("limits.max_model_calls", 5)
	v.SetDefault("hitl.allow_auto_critical", false)
	v.SetDefault("batch.max_concurrent_runs", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("scoring.txn_count_weight", def.TxnCountWeight)
	v.SetDefault("scoring.avg_txn_amount_weight", def.AvgTxnAmountWeight)
	v.SetDefault("scoring.high_risk_country_weight", def.HighRiskCountryWeight)
	v.SetDefault("scoring.txn_count_min", def.TxnCountMin)
	v.SetDefault("scoring.txn_count_max", def.TxnCountMax)
	v.SetDefault("scoring.avg_txn_amount_min", def.AvgTxnAmountMin)
	v.SetDefault("scoring.avg_txn_amount_max", def.AvgTxnAmountMax)

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

	if len(cfg.Scoring.Thresholds) == 0 {
		cfg.Scoring.Thresholds = def.Thresholds
	}
	if sum := cfg.Scoring.WeightSum(); sum < 0.999 || sum > 1.001 {
		return nil, eris.Errorf("config: scoring weights sum to %.4f, must sum to 1.0", sum)
	}

	return &cfg, nil
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
