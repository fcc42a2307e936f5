package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Renderer  RendererConfig  `yaml:"renderer"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Cache     CacheConfig     `yaml:"cache"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Detectors DetectorsConfig `yaml:"detectors"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Alerts    AlertsConfig    `yaml:"alerts"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type RendererConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string          `yaml:"brokers"`
	Topics  map[string]string `yaml:"topics"`
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

type AnalysisConfig struct {
	UnitBudget time.Duration    `yaml:"unit_budget"`
	Viewports  []ViewportConfig `yaml:"viewports"`
	Timings    []string         `yaml:"timings"`
}

type ViewportConfig struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type DetectorsConfig struct {
	Contrast   ContrastConfig   `yaml:"contrast"`
	Typography TypographyConfig `yaml:"typography"`
	TapTarget  TapTargetConfig  `yaml:"tap_target"`
	Overlap    OverlapConfig    `yaml:"overlap"`
	Density    DensityConfig    `yaml:"density"`
	Alignment  AlignmentConfig  `yaml:"alignment"`
}

type ContrastConfig struct {
	Enabled    bool    `yaml:"enabled"`
	AANormal   float64 `yaml:"aa_normal"`
	AALarge    float64 `yaml:"aa_large"`
	AAANormal  float64 `yaml:"aaa_normal"`
	AAALarge   float64 `yaml:"aaa_large"`
	HighMargin float64 `yaml:"high_margin"`
}

type TypographyConfig struct {
	Enabled        bool    `yaml:"enabled"`
	MinSizeDesktop float64 `yaml:"min_size_desktop"`
	MinSizeMobile  float64 `yaml:"min_size_mobile"`
	FarBelowSize   float64 `yaml:"far_below_size"`
	MinLineHeight  float64 `yaml:"min_line_height"`
	MaxLineChars   int     `yaml:"max_line_chars"`
}

type TapTargetConfig struct {
	Enabled      bool    `yaml:"enabled"`
	MinSizePx    float64 `yaml:"min_size_px"`
	CriticalSize float64 `yaml:"critical_size_px"`
}

type OverlapConfig struct {
	Enabled  bool    `yaml:"enabled"`
	MinRatio float64 `yaml:"min_ratio"`
}

type DensityConfig struct {
	Enabled        bool `yaml:"enabled"`
	RegionWidth    int  `yaml:"region_width"`
	RegionHeight   int  `yaml:"region_height"`
	MaxInteractive int  `yaml:"max_interactive"`
}

type AlignmentConfig struct {
	Enabled      bool    `yaml:"enabled"`
	RowTolerance float64 `yaml:"row_tolerance"`
	MaxDeviation float64 `yaml:"max_deviation"`
}

// ScoringConfig carries the weights used to fuse detector sub-scores.
// Weights are normalized at use, so they only need to be proportional.
type ScoringConfig struct {
	Contrast   float64 `yaml:"contrast"`
	Typography float64 `yaml:"typography"`
	TapTarget  float64 `yaml:"tap_target"`
	Overlap    float64 `yaml:"overlap"`
	Density    float64 `yaml:"density"`
	Alignment  float64 `yaml:"alignment"`
}

type AlertsConfig struct {
	MinScore int `yaml:"min_score"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns a fully enabled configuration with every threshold at
// its documented default. Used by tests and library callers that skip yaml.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Detectors.Contrast.Enabled = true
	cfg.Detectors.Typography.Enabled = true
	cfg.Detectors.TapTarget.Enabled = true
	cfg.Detectors.Overlap.Enabled = true
	cfg.Detectors.Density.Enabled = true
	cfg.Detectors.Alignment.Enabled = true
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Renderer.Timeout == 0 {
		cfg.Renderer.Timeout = 60 * time.Second
	}
	if cfg.Renderer.Retries == 0 {
		cfg.Renderer.Retries = 2
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 21600 // 6 hours
	}
	if cfg.Analysis.UnitBudget == 0 {
		cfg.Analysis.UnitBudget = 30 * time.Second
	}
	if len(cfg.Analysis.Viewports) == 0 {
		cfg.Analysis.Viewports = []ViewportConfig{
			{Name: "desktop", Width: 1440, Height: 900},
			{Name: "tablet", Width: 834, Height: 1112},
			{Name: "mobile", Width: 390, Height: 844},
		}
	}
	if len(cfg.Analysis.Timings) == 0 {
		cfg.Analysis.Timings = []string{"t1", "t2"}
	}

	// Detector defaults
	if cfg.Detectors.Contrast.AANormal == 0 {
		cfg.Detectors.Contrast.AANormal = 4.5
	}
	if cfg.Detectors.Contrast.AALarge == 0 {
		cfg.Detectors.Contrast.AALarge = 3.0
	}
	if cfg.Detectors.Contrast.AAANormal == 0 {
		cfg.Detectors.Contrast.AAANormal = 7.0
	}
	if cfg.Detectors.Contrast.AAALarge == 0 {
		cfg.Detectors.Contrast.AAALarge = 4.5
	}
	if cfg.Detectors.Contrast.HighMargin == 0 {
		cfg.Detectors.Contrast.HighMargin = 2.0
	}
	if cfg.Detectors.Typography.MinSizeDesktop == 0 {
		cfg.Detectors.Typography.MinSizeDesktop = 16
	}
	if cfg.Detectors.Typography.MinSizeMobile == 0 {
		cfg.Detectors.Typography.MinSizeMobile = 14
	}
	if cfg.Detectors.Typography.FarBelowSize == 0 {
		cfg.Detectors.Typography.FarBelowSize = 12
	}
	if cfg.Detectors.Typography.MinLineHeight == 0 {
		cfg.Detectors.Typography.MinLineHeight = 1.3
	}
	if cfg.Detectors.Typography.MaxLineChars == 0 {
		cfg.Detectors.Typography.MaxLineChars = 90
	}
	if cfg.Detectors.TapTarget.MinSizePx == 0 {
		cfg.Detectors.TapTarget.MinSizePx = 44
	}
	if cfg.Detectors.TapTarget.CriticalSize == 0 {
		cfg.Detectors.TapTarget.CriticalSize = 32
	}
	if cfg.Detectors.Overlap.MinRatio == 0 {
		cfg.Detectors.Overlap.MinRatio = 0.10
	}
	if cfg.Detectors.Density.RegionWidth == 0 {
		cfg.Detectors.Density.RegionWidth = 1000
	}
	if cfg.Detectors.Density.RegionHeight == 0 {
		cfg.Detectors.Density.RegionHeight = 800
	}
	if cfg.Detectors.Density.MaxInteractive == 0 {
		cfg.Detectors.Density.MaxInteractive = 20
	}
	if cfg.Detectors.Alignment.RowTolerance == 0 {
		cfg.Detectors.Alignment.RowTolerance = 20
	}
	if cfg.Detectors.Alignment.MaxDeviation == 0 {
		cfg.Detectors.Alignment.MaxDeviation = 8
	}

	// Scoring weights: contrast 0.30, typography 0.25, tap target 0.25,
	// remaining 0.20 split across overlap/density/alignment.
	zero := ScoringConfig{}
	if cfg.Scoring == zero {
		cfg.Scoring = ScoringConfig{
			Contrast:   0.30,
			Typography: 0.25,
			TapTarget:  0.25,
			Overlap:    0.20 / 3,
			Density:    0.20 / 3,
			Alignment:  0.20 / 3,
		}
	}

	if cfg.Alerts.MinScore == 0 {
		cfg.Alerts.MinScore = 50
	}
}
