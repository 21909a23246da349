package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Model    ModelConfig    `yaml:"model"`
	Weather  WeatherConfig  `yaml:"weather"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	LLM      LLMConfig      `yaml:"llm"`
	Tracking TrackingConfig `yaml:"tracking"`
	History  HistoryConfig  `yaml:"history"`
	Fleet    FleetConfig    `yaml:"fleet"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	CORSOrigins  []string        `yaml:"corsOrigins"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the per-IP request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// ModelConfig points at the emission model serving sidecar.
type ModelConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// WeatherConfig contains provider settings plus the resistance policy.
// The resistance coefficients, cap, and flag thresholds are versioned policy
// values; changing them changes emission adjustments across the fleet, so
// they are configured as one unit rather than hard-coded per call site.
type WeatherConfig struct {
	APIKey         string        `yaml:"apiKey"`
	BaseURL        string        `yaml:"baseUrl"`
	Timeout        time.Duration `yaml:"timeout"`
	GridResolution float64       `yaml:"gridResolution"`
	CacheTTL       time.Duration `yaml:"cacheTtl"`
	Valkey         ValkeyConfig  `yaml:"valkey"`

	WindThresholdMS   float64 `yaml:"windThresholdMs"`
	WindCoeff         float64 `yaml:"windCoeff"`
	WaveThresholdM    float64 `yaml:"waveThresholdM"`
	WaveCoeff         float64 `yaml:"waveCoeff"`
	FactorCap         float64 `yaml:"factorCap"`
	StrongWindMS      float64 `yaml:"strongWindMs"`
	RoughSeaWaveM     float64 `yaml:"roughSeaWaveM"`
	DefaultWindMS     float64 `yaml:"defaultWindMs"`
	DefaultWindDirDeg float64 `yaml:"defaultWindDirDeg"`
	DefaultWaveM      float64 `yaml:"defaultWaveM"`
	DefaultCondition  string  `yaml:"defaultCondition"`
}

// ValkeyConfig enables the shared weather cache for multi-instance deployments.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ScoringConfig is the versioned ESG scoring policy. Any change affects score
// comparability over time, so the whole block carries a version label.
type ScoringConfig struct {
	PolicyVersion          string  `yaml:"policyVersion"`
	CO2IntensityThreshold  float64 `yaml:"co2IntensityThreshold"`
	AccelerationThreshold  int     `yaml:"accelerationThreshold"`
	SpeedLimitKnots        float64 `yaml:"speedLimitKnots"`
	LongDurationHours      float64 `yaml:"longDurationHours"`
	PenaltyCO2Intensity    int     `yaml:"penaltyCo2Intensity"`
	PenaltyAcceleration    int     `yaml:"penaltyAcceleration"`
	PenaltyHighSpeed       int     `yaml:"penaltyHighSpeed"`
	PenaltyLongDuration    int     `yaml:"penaltyLongDuration"`
}

// LLMConfig contains Ollama settings for recommendation and chat text.
type LLMConfig struct {
	BaseURL          string        `yaml:"baseUrl"`
	Model            string        `yaml:"model"`
	Temperature      float32       `yaml:"temperature"`
	RecommendTimeout time.Duration `yaml:"recommendTimeout"`
	ChatTimeout      time.Duration `yaml:"chatTimeout"`
	MaxPromptTokens  int           `yaml:"maxPromptTokens"`
}

// TrackingConfig drives the live tracking loop and its synthetic projections.
type TrackingConfig struct {
	TickInterval     time.Duration `yaml:"tickInterval"`
	VesselsPerSector int           `yaml:"vesselsPerSector"`
	ProjectionHours  float64       `yaml:"projectionHours"`
	DefaultLengthM   float64       `yaml:"defaultLengthM"`
	DefaultWidthM    float64       `yaml:"defaultWidthM"`
	DefaultDraftM    float64       `yaml:"defaultDraftM"`
	DefaultCO2Factor float64       `yaml:"defaultCo2Factor"`
	AISStreamAPIKey  string        `yaml:"aisStreamApiKey"`
	AISStreamURL     string        `yaml:"aisStreamUrl"`
}

// HistoryConfig points at the S3-compatible bucket holding processed AIS records.
type HistoryConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// FleetConfig contains persistence settings for completed assessments.
type FleetConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("MODEL_BASE_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	if v := os.Getenv("OPENWEATHER_API_KEY"); v != "" {
		cfg.Weather.APIKey = v
	}
	if v := os.Getenv("OPENWEATHER_BASE_URL"); v != "" {
		cfg.Weather.BaseURL = v
	}
	if v := os.Getenv("WEATHER_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Weather.CacheTTL = parsed
		}
	}
	if v := os.Getenv("WEATHER_VALKEY_ENABLED"); v != "" {
		cfg.Weather.Valkey.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("WEATHER_VALKEY_ADDR"); v != "" {
		cfg.Weather.Valkey.Addr = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("AISSTREAM_API_KEY"); v != "" {
		cfg.Tracking.AISStreamAPIKey = v
	}
	if v := os.Getenv("TRACKING_VESSELS_PER_SECTOR"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Tracking.VesselsPerSector = parsed
		}
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.History.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.History.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.History.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET_NAME"); v != "" {
		cfg.History.Bucket = v
	}
	if v := os.Getenv("S3_PREFIX"); v != "" {
		cfg.History.Prefix = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.History.Region = v
	}
	if v := os.Getenv("FLEET_POSTGRES_DSN"); v != "" {
		cfg.Fleet.Postgres.DSN = v
	}
	if v := os.Getenv("FLEET_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Fleet.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			CORSOrigins:  []string{"*"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		Model: ModelConfig{
			BaseURL: "http://localhost:8501",
			Timeout: 5 * time.Second,
		},
		Weather: WeatherConfig{
			BaseURL:        "https://api.openweathermap.org",
			Timeout:        5 * time.Second,
			GridResolution: 0.25,
			CacheTTL:       10 * time.Minute,

			WindThresholdMS:   5.0,
			WindCoeff:         0.01,
			WaveThresholdM:    1.0,
			WaveCoeff:         0.05,
			FactorCap:         3.0,
			StrongWindMS:      12.0,
			RoughSeaWaveM:     3.0,
			DefaultWindMS:     8.0,
			DefaultWindDirDeg: 180,
			DefaultWaveM:      1.5,
			DefaultCondition:  "clouds",
		},
		Scoring: ScoringConfig{
			PolicyVersion:         "2026.1",
			CO2IntensityThreshold: 50.0,
			AccelerationThreshold: 15,
			SpeedLimitKnots:       10.0,
			LongDurationHours:     720.0,
			PenaltyCO2Intensity:   25,
			PenaltyAcceleration:   15,
			PenaltyHighSpeed:      10,
			PenaltyLongDuration:   10,
		},
		LLM: LLMConfig{
			BaseURL:          "http://localhost:11434",
			Model:            "llama3",
			Temperature:      0.7,
			RecommendTimeout: 4 * time.Second,
			ChatTimeout:      30 * time.Second,
			MaxPromptTokens:  1024,
		},
		Tracking: TrackingConfig{
			TickInterval:     2 * time.Second,
			VesselsPerSector: 5,
			ProjectionHours:  24.0,
			DefaultLengthM:   225.0,
			DefaultWidthM:    32.0,
			DefaultDraftM:    12.0,
			DefaultCO2Factor: 3.114,
			AISStreamURL:     "wss://stream.aisstream.io/v0/stream",
		},
		History: HistoryConfig{
			Region: "us-east-1",
			Bucket: "maritime-esg-data",
			Prefix: "processed/features/",
		},
		Fleet: FleetConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.Model.BaseURL == "" {
		return errors.New("model.baseUrl cannot be empty")
	}
	if c.Weather.GridResolution <= 0 {
		return errors.New("weather.gridResolution must be positive")
	}
	if c.Weather.CacheTTL <= 0 {
		return errors.New("weather.cacheTtl must be positive")
	}
	if c.Weather.FactorCap < 1.0 {
		return errors.New("weather.factorCap must be at least 1.0")
	}
	if c.Weather.WindCoeff < 0 || c.Weather.WaveCoeff < 0 {
		return errors.New("weather resistance coefficients cannot be negative")
	}
	if c.Weather.Valkey.Enabled && strings.TrimSpace(c.Weather.Valkey.Addr) == "" {
		return errors.New("weather.valkey.addr cannot be empty when valkey cache is enabled")
	}
	if c.Scoring.CO2IntensityThreshold <= 0 {
		return errors.New("scoring.co2IntensityThreshold must be positive")
	}
	if c.Scoring.PenaltyCO2Intensity < 0 || c.Scoring.PenaltyAcceleration < 0 ||
		c.Scoring.PenaltyHighSpeed < 0 || c.Scoring.PenaltyLongDuration < 0 {
		return errors.New("scoring penalties cannot be negative")
	}
	if c.LLM.RecommendTimeout <= 0 {
		return errors.New("llm.recommendTimeout must be positive")
	}
	if c.Tracking.TickInterval <= 0 {
		return errors.New("tracking.tickInterval must be positive")
	}
	if c.Tracking.ProjectionHours <= 0 {
		return errors.New("tracking.projectionHours must be positive")
	}
	if c.Tracking.VesselsPerSector < 0 {
		return errors.New("tracking.vesselsPerSector cannot be negative")
	}
	return nil
}
