package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for CaseLens
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port        int    `yaml:"port"`
	Environment string `yaml:"environment"`
	JWTSecret   string `yaml:"jwt_secret"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	DataPath string `yaml:"data_path"`
}

// ThresholdsConfig holds all detection thresholds. Thresholds are
// injected into the detectors; nothing in the engine reads
// process-wide state, so they can differ per case or per tenant.
type ThresholdsConfig struct {
	HighValue             float64       `yaml:"high_value"`
	StructuringLimit      float64       `yaml:"structuring_limit"`
	SmurfingCount         int           `yaml:"smurfing_count"`
	UnusualHourStart      int           `yaml:"unusual_hour_start"`
	UnusualHourEnd        int           `yaml:"unusual_hour_end"`
	NewAccountDays        int           `yaml:"new_account_days"`
	NewAccountHighValue   float64       `yaml:"new_account_high_value"`
	FrequentSameAccounts  int           `yaml:"frequent_same_accounts"`
	HighRiskCountries     []string      `yaml:"high_risk_countries"`
	RapidSuccessiveCount  int           `yaml:"rapid_successive_count"`
	RapidSuccessiveWindow time.Duration `yaml:"rapid_successive_window"`
	RapidMovementWindow   time.Duration `yaml:"rapid_movement_window"`
	MaxCycleDepth         int           `yaml:"max_cycle_depth"`
	CycleBudget           time.Duration `yaml:"cycle_budget"`
	ConnectorDegree       int           `yaml:"connector_degree"`
}

// DefaultThresholds returns the default detection thresholds
func DefaultThresholds() ThresholdsConfig {
	return ThresholdsConfig{
		HighValue:             10000,
		StructuringLimit:      10000,
		SmurfingCount:         5,
		UnusualHourStart:      0,
		UnusualHourEnd:        4,
		NewAccountDays:        30,
		NewAccountHighValue:   5000,
		FrequentSameAccounts:  5,
		HighRiskCountries:     []string{"NG", "RU", "CN", "IR", "KP", "SY"},
		RapidSuccessiveCount:  3,
		RapidSuccessiveWindow: 5 * time.Minute,
		RapidMovementWindow:   time.Hour,
		MaxCycleDepth:         10,
		CycleBudget:           2 * time.Second,
		ConnectorDegree:       10,
	}
}

// IsHighRiskCountry reports whether the country code is configured as
// high risk. Matching is case-insensitive.
func (t ThresholdsConfig) IsHighRiskCountry(country string) bool {
	if country == "" {
		return false
	}
	for _, c := range t.HighRiskCountries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{Thresholds: DefaultThresholds()}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvInt("PORT", 3007),
			Environment: getEnv("ENVIRONMENT", "development"),
			JWTSecret:   getEnv("JWT_SECRET", ""),
		},
		Storage: StorageConfig{
			DataPath: getEnv("CASELENS_DATA_PATH", "/var/lib/caselens"),
		},
		Thresholds: ThresholdsConfig{
			HighValue:             getEnvFloat("THRESHOLD_HIGH_VALUE", 10000),
			StructuringLimit:      getEnvFloat("THRESHOLD_STRUCTURING_LIMIT", 10000),
			SmurfingCount:         getEnvInt("THRESHOLD_SMURFING_COUNT", 5),
			UnusualHourStart:      getEnvInt("THRESHOLD_UNUSUAL_HOUR_START", 0),
			UnusualHourEnd:        getEnvInt("THRESHOLD_UNUSUAL_HOUR_END", 4),
			NewAccountDays:        getEnvInt("THRESHOLD_NEW_ACCOUNT_DAYS", 30),
			NewAccountHighValue:   getEnvFloat("THRESHOLD_NEW_ACCOUNT_HIGH_VALUE", 5000),
			FrequentSameAccounts:  getEnvInt("THRESHOLD_FREQUENT_SAME_ACCOUNTS", 5),
			HighRiskCountries:     getEnvList("THRESHOLD_HIGH_RISK_COUNTRIES", []string{"NG", "RU", "CN", "IR", "KP", "SY"}),
			RapidSuccessiveCount:  getEnvInt("THRESHOLD_RAPID_SUCCESSIVE_COUNT", 3),
			RapidSuccessiveWindow: getEnvDuration("THRESHOLD_RAPID_SUCCESSIVE_WINDOW", 5*time.Minute),
			RapidMovementWindow:   getEnvDuration("THRESHOLD_RAPID_MOVEMENT_WINDOW", time.Hour),
			MaxCycleDepth:         getEnvInt("THRESHOLD_MAX_CYCLE_DEPTH", 10),
			CycleBudget:           getEnvDuration("THRESHOLD_CYCLE_BUDGET", 2*time.Second),
			ConnectorDegree:       getEnvInt("THRESHOLD_CONNECTOR_DEGREE", 10),
		},
	}
	return cfg
}

func (c *Config) applyDefaults() {
	def := DefaultThresholds()
	t := &c.Thresholds
	if t.HighValue == 0 {
		t.HighValue = def.HighValue
	}
	if t.StructuringLimit == 0 {
		t.StructuringLimit = def.StructuringLimit
	}
	if t.SmurfingCount == 0 {
		t.SmurfingCount = def.SmurfingCount
	}
	if t.UnusualHourEnd == 0 {
		t.UnusualHourEnd = def.UnusualHourEnd
	}
	if t.NewAccountDays == 0 {
		t.NewAccountDays = def.NewAccountDays
	}
	if t.NewAccountHighValue == 0 {
		t.NewAccountHighValue = def.NewAccountHighValue
	}
	if t.FrequentSameAccounts == 0 {
		t.FrequentSameAccounts = def.FrequentSameAccounts
	}
	if len(t.HighRiskCountries) == 0 {
		t.HighRiskCountries = def.HighRiskCountries
	}
	if t.RapidSuccessiveCount == 0 {
		t.RapidSuccessiveCount = def.RapidSuccessiveCount
	}
	if t.RapidSuccessiveWindow == 0 {
		t.RapidSuccessiveWindow = def.RapidSuccessiveWindow
	}
	if t.RapidMovementWindow == 0 {
		t.RapidMovementWindow = def.RapidMovementWindow
	}
	if t.MaxCycleDepth == 0 {
		t.MaxCycleDepth = def.MaxCycleDepth
	}
	if t.CycleBudget == 0 {
		t.CycleBudget = def.CycleBudget
	}
	if t.ConnectorDegree == 0 {
		t.ConnectorDegree = def.ConnectorDegree
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3007
	}
	if c.Storage.DataPath == "" {
		c.Storage.DataPath = "/var/lib/caselens"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
