package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Telemetry TelemetryConfig `koanf:"telemetry"`

	Scoring    ScoringConfig    `koanf:"scoring"`
	Risk       RiskConfig       `koanf:"risk"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
}

type ServerConfig struct {
	MetricsPort     int           `koanf:"metrics_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	URL      string `koanf:"url"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`

	// TTL for the latest-assessment cache entries.
	AssessmentTTL time.Duration `koanf:"assessment_ttl"`
}

type TelemetryConfig struct {
	Enabled      bool          `koanf:"enabled"`
	OTLPEndpoint string        `koanf:"otlp_endpoint"`
	SamplingRate float64       `koanf:"sampling_rate"`
	BatchTimeout time.Duration `koanf:"batch_timeout"`
}

// ScoringConfig exposes the aggregator's blend weights.
type ScoringConfig struct {
	AuditWeight    float64 `koanf:"audit_weight"`
	RuleWeight     float64 `koanf:"rule_weight"`
	CoverageWeight float64 `koanf:"coverage_weight"`
}

// RiskConfig carries the risk scorer's named weights and cut points.
type RiskConfig struct {
	CriticalFindingWeight float64 `koanf:"critical_finding_weight"`
	MajorFindingWeight    float64 `koanf:"major_finding_weight"`
	MinorFindingWeight    float64 `koanf:"minor_finding_weight"`
	CAPAOverduePerDay     float64 `koanf:"capa_overdue_per_day"`
	CAPAOverdueDayCap     int     `koanf:"capa_overdue_day_cap"`
	FailedRuleWeight      float64 `koanf:"failed_rule_weight"`
	MediumThreshold       float64 `koanf:"medium_threshold"`
	HighThreshold         float64 `koanf:"high_threshold"`
	CriticalThreshold     float64 `koanf:"critical_threshold"`
}

type MonitoringConfig struct {
	DefaultFrequency string `koanf:"default_frequency"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			MetricsPort:     9090,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB:            0,
			AssessmentTTL: 15 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			SamplingRate: 0.1,
			BatchTimeout: 5 * time.Second,
		},
		Scoring: ScoringConfig{
			AuditWeight:    0.5,
			RuleWeight:     0.25,
			CoverageWeight: 0.25,
		},
		Risk: RiskConfig{
			CriticalFindingWeight: 25,
			MajorFindingWeight:    10,
			MinorFindingWeight:    3,
			CAPAOverduePerDay:     0.5,
			CAPAOverdueDayCap:     60,
			FailedRuleWeight:      5,
			MediumThreshold:       20,
			HighThreshold:         50,
			CriticalThreshold:     80,
		},
		Monitoring: MonitoringConfig{
			DefaultFrequency: "weekly",
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = "configs/config.yaml"
	}
	// Config file is optional.
	_ = k.Load(file.Provider(path), yaml.Parser())

	if err := k.Load(env.Provider("FCB_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "FCB_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
