package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the client configuration
type Config struct {
	Client     ClientConfig     `yaml:"client" mapstructure:"client"`
	Ephemeris  EphemerisConfig  `yaml:"ephemeris" mapstructure:"ephemeris"`
	Simulation SimulationConfig `yaml:"simulation" mapstructure:"simulation"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
}

// ClientConfig contains client-wide settings
type ClientConfig struct {
	DataDir  string `yaml:"data_dir" mapstructure:"data_dir"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// EphemerisConfig configures the JPL Horizons collaborator
type EphemerisConfig struct {
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`
	CachePath      string `yaml:"cache_path" mapstructure:"cache_path"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// SimulationConfig configures the N-body runner
type SimulationConfig struct {
	InitialStepYears float64 `yaml:"initial_step_years" mapstructure:"initial_step_years"`
	TraceDir         string  `yaml:"trace_dir" mapstructure:"trace_dir"`
}

// ClassifierConfig configures the pretrained model backend
type ClassifierConfig struct {
	ModelPath string   `yaml:"model_path" mapstructure:"model_path"`
	Labels    []string `yaml:"labels" mapstructure:"labels"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	baseDir := filepath.Join(homeDir, ".kbo-classifier")

	return &Config{
		Client: ClientConfig{
			DataDir:  filepath.Join(baseDir, "data"),
			LogLevel: "info",
		},
		Ephemeris: EphemerisConfig{
			Endpoint:       "https://ssd.jpl.nasa.gov/api/horizons.api",
			CachePath:      filepath.Join(baseDir, "cache", "ephemeris.db"),
			TimeoutSeconds: 60,
		},
		Simulation: SimulationConfig{
			InitialStepYears: 0.1,
			TraceDir:         filepath.Join(baseDir, "traces"),
		},
		Classifier: ClassifierConfig{
			ModelPath: filepath.Join(baseDir, "models", "kbo_lgbm.txt"),
			Labels:    []string{"Resonant", "Classical", "Detached", "Scattering"},
		},
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	homeDir, _ := os.UserHomeDir()
	viper.AddConfigPath(filepath.Join(homeDir, ".kbo-classifier"))
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("KBO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig()
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".kbo-classifier")
	configFile := filepath.Join(configDir, "config.yaml")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := createDirectories(config); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Configuration saved to: %s\n", configFile)
	return nil
}

// createDefaultConfig creates and saves a default configuration
func createDefaultConfig() (*Config, error) {
	config := DefaultConfig()

	if err := SaveConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Ephemeris.Endpoint == "" {
		return fmt.Errorf("ephemeris endpoint cannot be empty")
	}

	if config.Ephemeris.TimeoutSeconds < 0 {
		return fmt.Errorf("ephemeris timeout cannot be negative")
	}

	if config.Simulation.InitialStepYears <= 0 {
		return fmt.Errorf("simulation initial step must be positive")
	}

	if len(config.Classifier.Labels) == 0 {
		return fmt.Errorf("at least one classifier label must be specified")
	}

	seen := make(map[string]bool, len(config.Classifier.Labels))
	for _, label := range config.Classifier.Labels {
		if label == "" {
			return fmt.Errorf("classifier labels cannot be empty strings")
		}
		if seen[label] {
			return fmt.Errorf("duplicate classifier label: %s", label)
		}
		seen[label] = true
	}

	return nil
}

// createDirectories creates necessary directories based on config
func createDirectories(config *Config) error {
	dirs := []string{
		config.Client.DataDir,
		filepath.Dir(config.Ephemeris.CachePath),
		config.Simulation.TraceDir,
		filepath.Dir(config.Classifier.ModelPath),
	}

	for _, dir := range dirs {
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".kbo-classifier", "config.yaml"), nil
}
