package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "PRIVACY_SCANNER_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	openAIAPIKeyEnv  = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_MODEL"
	modelArtifactEnv = "RISK_MODEL_PATH"
	logLevelEnv      = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Risk     RiskConfig     `yaml:"risk"`
	Features FeatureConfig  `yaml:"features"`
	Merge    MergeConfig    `yaml:"merge"`
	Advisory AdvisoryConfig `yaml:"advisory"`
	Profile  ProfileConfig  `yaml:"profile"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes Postgres connection details for the optional
// analysis-history repository.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RiskConfig carries the model artifact location, the shared tier
// thresholds, and the fallback scoring tables. Thresholds and weights are
// configuration so environments can retune without a code change.
type RiskConfig struct {
	ArtifactPath string `yaml:"artifactPath"`
	WatchArtifact bool  `yaml:"watchArtifact"`

	// Tier thresholds on the 0-100 score scale: LOW below LowThreshold,
	// MEDIUM below HighThreshold, HIGH otherwise.
	LowThreshold  float64 `yaml:"lowThreshold"`
	HighThreshold float64 `yaml:"highThreshold"`

	// FallbackWeights and NormalizationCaps are keyed by feature name.
	// Each feature contributes weight * min(value/cap, 1) to the fallback
	// score before scaling to 0-100.
	FallbackWeights   map[string]float64 `yaml:"fallbackWeights"`
	NormalizationCaps map[string]float64 `yaml:"normalizationCaps"`
}

// FeatureConfig feeds the feature extractor.
type FeatureConfig struct {
	SensitiveKeywords []string `yaml:"sensitiveKeywords"`
}

// MergeConfig tunes entity-merger conflict resolution.
type MergeConfig struct {
	// PreferPattern breaks exact confidence/coverage ties in favor of
	// pattern-sourced spans over statistical ones.
	PreferPattern bool `yaml:"preferPattern"`
}

// AdvisoryConfig defines how to contact the OpenAI-compatible advisor.
type AdvisoryConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"apiKey"`
	Timeout         time.Duration `yaml:"timeout"`
	RecommendPrompt string        `yaml:"recommendPrompt"`
	RewritePrompt   string        `yaml:"rewritePrompt"`
}

// ProfileConfig tunes the public-profile text source.
type ProfileConfig struct {
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Load reads .env, YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	_ = godotenv.Load()

	cfg := Default()

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

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.Advisory.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.Advisory.Model = v
	}

	if v := os.Getenv(modelArtifactEnv); v != "" {
		c.Risk.ArtifactPath = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Risk.ArtifactPath != "" {
		base.Risk.ArtifactPath = override.Risk.ArtifactPath
	}
	if override.Risk.WatchArtifact {
		base.Risk.WatchArtifact = true
	}
	if override.Risk.LowThreshold > 0 {
		base.Risk.LowThreshold = override.Risk.LowThreshold
	}
	if override.Risk.HighThreshold > 0 {
		base.Risk.HighThreshold = override.Risk.HighThreshold
	}
	if len(override.Risk.FallbackWeights) > 0 {
		base.Risk.FallbackWeights = override.Risk.FallbackWeights
	}
	if len(override.Risk.NormalizationCaps) > 0 {
		base.Risk.NormalizationCaps = override.Risk.NormalizationCaps
	}

	if len(override.Features.SensitiveKeywords) > 0 {
		base.Features.SensitiveKeywords = override.Features.SensitiveKeywords
	}

	base.Merge.PreferPattern = base.Merge.PreferPattern || override.Merge.PreferPattern

	if override.Advisory.Endpoint != "" {
		base.Advisory.Endpoint = override.Advisory.Endpoint
	}
	if override.Advisory.Model != "" {
		base.Advisory.Model = override.Advisory.Model
	}
	if override.Advisory.APIKey != "" {
		base.Advisory.APIKey = override.Advisory.APIKey
	}
	if override.Advisory.Timeout > 0 {
		base.Advisory.Timeout = override.Advisory.Timeout
	}
	if override.Advisory.RecommendPrompt != "" {
		base.Advisory.RecommendPrompt = override.Advisory.RecommendPrompt
	}
	if override.Advisory.RewritePrompt != "" {
		base.Advisory.RewritePrompt = override.Advisory.RewritePrompt
	}

	if override.Profile.UserAgent != "" {
		base.Profile.UserAgent = override.Profile.UserAgent
	}
	if override.Profile.Timeout > 0 {
		base.Profile.Timeout = override.Profile.Timeout
	}

	return base
}

// Default returns the built-in configuration. Tests and the fallback
// classifier rely on these tables being stable.
func Default() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{DSN: ""},
		Risk: RiskConfig{
			ArtifactPath:  "./models/risk_classifier.json",
			WatchArtifact: true,
			LowThreshold:  30,
			HighThreshold: 60,
			FallbackWeights: map[string]float64{
				"num_persons":             0.12,
				"num_emails":              0.15,
				"num_phones":              0.15,
				"num_locations":           0.10,
				"num_organizations":       0.08,
				"num_dates":               0.05,
				"num_government_ids":      0.20,
				"num_financial_accounts":  0.18,
				"num_other":               0.04,
				"text_length":             0.05,
				"entity_density":          0.25,
				"sensitive_keyword_count": 0.15,
			},
			NormalizationCaps: map[string]float64{
				"num_persons":             2,
				"num_emails":              1,
				"num_phones":              1,
				"num_locations":           4,
				"num_organizations":       3,
				"num_dates":               3,
				"num_government_ids":      1,
				"num_financial_accounts":  1,
				"num_other":               4,
				"text_length":             1000,
				"entity_density":          0.01,
				"sensitive_keyword_count": 4,
			},
		},
		Features: FeatureConfig{
			SensitiveKeywords: []string{
				"password", "ssn", "social security", "credit card",
				"bank account", "routing number", "passport",
				"license", "medical", "diagnosis", "therapy",
				"salary", "income", "address", "home", "live at",
			},
		},
		Merge: MergeConfig{PreferPattern: true},
		Advisory: AdvisoryConfig{
			Endpoint:        "https://api.openai.com/v1/chat/completions",
			Model:           "gpt-4o-mini",
			APIKey:          "",
			Timeout:         20 * time.Second,
			RecommendPrompt: "You are a privacy expert. Given detected personal information, provide 3-5 specific, actionable recommendations to reduce exposure. Return a numbered list only.",
			RewritePrompt:   "You are a privacy expert. Rewrite the text removing personal information while preserving tone, length and context. Return only the rewritten text.",
		},
		Profile: ProfileConfig{
			UserAgent: "PrivacyScanner/1.0",
			Timeout:   15 * time.Second,
		},
	}
}
