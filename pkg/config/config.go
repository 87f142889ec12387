// Package config handles hoverthrust configuration via YAML files and environment variables.
//
// Configuration Precedence (highest to lowest):
//  1. Command-line flags (--data-dir, --gate, etc.)
//  2. Environment variables (HOVERTHRUST_*)
//  3. Config file (hoverthrust.yaml)
//  4. Built-in defaults
//
// Example Usage:
//
//	cfg, err := config.LoadFromFile(config.FindConfigFile())
//	if err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//	est := hoverthrust.New(cfg.EstimatorConfig())
//
// Environment Variables (all use HOVERTHRUST_ prefix):
//
// Estimator:
//   - HOVERTHRUST_PRESET="default", "agile" or "conservative"
//   - HOVERTHRUST_INITIAL=0.5
//   - HOVERTHRUST_HOVER_STD_DEV=0.1
//   - HOVERTHRUST_PROCESS_NOISE=0.0005
//   - HOVERTHRUST_ACCEL_NOISE=2.236
//   - HOVERTHRUST_GATE=3.0
//   - HOVERTHRUST_GATE_CONFIDENCE=0.997 (overrides HOVERTHRUST_GATE)
//   - HOVERTHRUST_MIN=0.1
//   - HOVERTHRUST_MAX=0.9
//
// Tracker:
//   - HOVERTHRUST_ENABLED=true
//   - HOVERTHRUST_FRAME="up" or "ned"
//   - HOVERTHRUST_MIN_DT=2ms
//   - HOVERTHRUST_MAX_DT=200ms
//   - HOVERTHRUST_MIN_THRUST=0.05
//   - HOVERTHRUST_VALID_VARIANCE=0.001
//   - HOVERTHRUST_VALID_HYSTERESIS=2s
//
// Storage:
//   - HOVERTHRUST_DATA_DIR="./data"
//   - HOVERTHRUST_SYNC_WRITES=false
//   - HOVERTHRUST_LOW_MEMORY=false
//
// Replay:
//   - HOVERTHRUST_VEHICLE="default"
//
// Logging:
//   - HOVERTHRUST_LOG_LEVEL="INFO"
//   - HOVERTHRUST_LOG_OUTPUT="stderr"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orneryd/hoverthrust/pkg/hover"
	"github.com/orneryd/hoverthrust/pkg/hoverthrust"
)

// ErrInvalidConfig is wrapped by every Validate error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Estimator presets.
const (
	PresetDefault      = "default"
	PresetAgile        = "agile"
	PresetConservative = "conservative"
)

// Config holds all hoverthrust configuration.
//
// Configuration is organized into logical sections:
//   - Estimator: EKF tuning
//   - Tracker: per-cycle driver (timing, landed handling, validity)
//   - Storage: checkpoint and replay run persistence
//   - Replay: offline flight-log replay defaults
//   - Logging: Logging configuration
type Config struct {
	Estimator EstimatorConfig
	Tracker   TrackerConfig
	Storage   StorageConfig
	Replay    ReplayConfig
	Logging   LoggingConfig
}

// EstimatorConfig holds hover thrust EKF tuning.
type EstimatorConfig struct {
	// Preset selects the base tuning (default, agile, conservative).
	// Fields below that are set override the preset.
	Preset string
	// InitialHoverThrust is the estimate used before any measurement
	InitialHoverThrust float64
	// HoverThrustStdDev is the initial estimate uncertainty
	HoverThrustStdDev float64
	// ProcessNoiseStdDev is the hover thrust drift rate (thrust/s)
	ProcessNoiseStdDev float64
	// AccelNoiseStdDev is the initial accelerometer noise (m/s^2)
	AccelNoiseStdDev float64
	// AccelInnovGate is the innovation gate in standard deviations
	AccelInnovGate float64
	// GateConfidence, when in (0,1), derives the gate from a chi-square
	// quantile and overrides AccelInnovGate.
	// Env: HOVERTHRUST_GATE_CONFIDENCE
	GateConfidence float64
	// HoverThrustMin and HoverThrustMax bound the estimate
	HoverThrustMin float64
	HoverThrustMax float64
}

// TrackerConfig holds per-cycle driver settings.
type TrackerConfig struct {
	// Enabled runs the estimator. When false the fixed initial hover thrust is reported.
	Enabled bool
	// Frame of the incoming acceleration and thrust ("up" or "ned")
	Frame string
	// MinDt and MaxDt bound the time step computed from sample timestamps
	MinDt time.Duration
	MaxDt time.Duration
	// MinThrust below which samples are not fused
	MinThrust float64
	// ValidVarianceThreshold is the hover thrust variance below which the
	// estimate may be declared valid
	ValidVarianceThreshold float64
	// ValidHysteresis is how long the validity conditions must hold
	ValidHysteresis time.Duration
}

// StorageConfig holds badger store settings.
type StorageConfig struct {
	// DataDir is the directory for the badger store
	DataDir string
	// InMemory keeps everything in RAM (testing)
	InMemory bool
	// SyncWrites forces fsync after each write
	SyncWrites bool
	// LowMemory shrinks badger buffers for embedded targets
	LowMemory bool
}

// ReplayConfig holds flight-log replay defaults.
type ReplayConfig struct {
	// VehicleID keys checkpoints in the store
	VehicleID string
	// SaveCheckpoint persists the final estimate after a replay
	SaveCheckpoint bool
	// ResumeFromCheckpoint starts the replay from the stored estimate
	ResumeFromCheckpoint bool
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level (DEBUG, INFO, WARN, ERROR)
	Level string
	// Output path (stdout, stderr, or file path)
	Output string
}

// LoadDefaults returns a Config with built-in defaults only.
//
// Configuration precedence:
//  1. Built-in defaults (this function)
//  2. Config file (YAML)
//  3. Environment variables
//  4. Command-line arguments (applied in main.go)
func LoadDefaults() *Config {
	config := &Config{}
	est := hoverthrust.DefaultConfig()

	// Estimator defaults
	config.Estimator.Preset = PresetDefault
	config.Estimator.InitialHoverThrust = est.InitialHoverThrust
	config.Estimator.HoverThrustStdDev = est.HoverThrustStdDev
	config.Estimator.ProcessNoiseStdDev = est.ProcessNoiseStdDev
	config.Estimator.AccelNoiseStdDev = est.MeasurementNoiseStdDev
	config.Estimator.AccelInnovGate = est.AccelInnovGate
	config.Estimator.GateConfidence = 0 // disabled
	config.Estimator.HoverThrustMin = est.HoverThrustMin
	config.Estimator.HoverThrustMax = est.HoverThrustMax

	// Tracker defaults
	config.Tracker.Enabled = true
	config.Tracker.Frame = "up"
	config.Tracker.MinDt = 2 * time.Millisecond
	config.Tracker.MaxDt = 200 * time.Millisecond
	config.Tracker.MinThrust = 0.05
	config.Tracker.ValidVarianceThreshold = 1e-3
	config.Tracker.ValidHysteresis = 2 * time.Second

	// Storage defaults
	config.Storage.DataDir = "./data"
	config.Storage.InMemory = false
	config.Storage.SyncWrites = false
	config.Storage.LowMemory = false

	// Replay defaults
	config.Replay.VehicleID = "default"
	config.Replay.SaveCheckpoint = false
	config.Replay.ResumeFromCheckpoint = false

	// Logging defaults
	config.Logging.Level = "INFO"
	config.Logging.Output = "stderr"

	return config
}

// LoadFromEnv loads defaults and applies environment variable overrides.
func LoadFromEnv() *Config {
	config := LoadDefaults()
	applyEnvVars(config)
	return config
}

// applyEnvVars applies environment variable overrides to an existing config.
// Environment variables take precedence over config file values.
func applyEnvVars(config *Config) {
	// Estimator
	if preset := getEnv("HOVERTHRUST_PRESET", ""); preset != "" {
		config.ApplyPreset(preset)
	}
	config.Estimator.InitialHoverThrust = getEnvFloat("HOVERTHRUST_INITIAL", config.Estimator.InitialHoverThrust)
	config.Estimator.HoverThrustStdDev = getEnvFloat("HOVERTHRUST_HOVER_STD_DEV", config.Estimator.HoverThrustStdDev)
	config.Estimator.ProcessNoiseStdDev = getEnvFloat("HOVERTHRUST_PROCESS_NOISE", config.Estimator.ProcessNoiseStdDev)
	config.Estimator.AccelNoiseStdDev = getEnvFloat("HOVERTHRUST_ACCEL_NOISE", config.Estimator.AccelNoiseStdDev)
	config.Estimator.AccelInnovGate = getEnvFloat("HOVERTHRUST_GATE", config.Estimator.AccelInnovGate)
	config.Estimator.GateConfidence = getEnvFloat("HOVERTHRUST_GATE_CONFIDENCE", config.Estimator.GateConfidence)
	config.Estimator.HoverThrustMin = getEnvFloat("HOVERTHRUST_MIN", config.Estimator.HoverThrustMin)
	config.Estimator.HoverThrustMax = getEnvFloat("HOVERTHRUST_MAX", config.Estimator.HoverThrustMax)

	// Tracker
	config.Tracker.Enabled = getEnvBool("HOVERTHRUST_ENABLED", config.Tracker.Enabled)
	config.Tracker.Frame = strings.ToLower(getEnv("HOVERTHRUST_FRAME", config.Tracker.Frame))
	config.Tracker.MinDt = getEnvDuration("HOVERTHRUST_MIN_DT", config.Tracker.MinDt)
	config.Tracker.MaxDt = getEnvDuration("HOVERTHRUST_MAX_DT", config.Tracker.MaxDt)
	config.Tracker.MinThrust = getEnvFloat("HOVERTHRUST_MIN_THRUST", config.Tracker.MinThrust)
	config.Tracker.ValidVarianceThreshold = getEnvFloat("HOVERTHRUST_VALID_VARIANCE", config.Tracker.ValidVarianceThreshold)
	config.Tracker.ValidHysteresis = getEnvDuration("HOVERTHRUST_VALID_HYSTERESIS", config.Tracker.ValidHysteresis)

	// Storage
	config.Storage.DataDir = getEnv("HOVERTHRUST_DATA_DIR", config.Storage.DataDir)
	config.Storage.SyncWrites = getEnvBool("HOVERTHRUST_SYNC_WRITES", config.Storage.SyncWrites)
	config.Storage.LowMemory = getEnvBool("HOVERTHRUST_LOW_MEMORY", config.Storage.LowMemory)

	// Replay
	config.Replay.VehicleID = getEnv("HOVERTHRUST_VEHICLE", config.Replay.VehicleID)

	// Logging
	config.Logging.Level = strings.ToUpper(getEnv("HOVERTHRUST_LOG_LEVEL", config.Logging.Level))
	config.Logging.Output = getEnv("HOVERTHRUST_LOG_OUTPUT", config.Logging.Output)
}

// ApplyPreset resets the estimator section to a named tuning. Unknown names
// are kept so that Validate can report them.
func (c *Config) ApplyPreset(name string) {
	name = strings.ToLower(name)
	var est hoverthrust.Config
	switch name {
	case PresetDefault:
		est = hoverthrust.DefaultConfig()
	case PresetAgile:
		est = hoverthrust.AgileConfig()
	case PresetConservative:
		est = hoverthrust.ConservativeConfig()
	default:
		c.Estimator.Preset = name
		return
	}

	c.Estimator.Preset = name
	c.Estimator.InitialHoverThrust = est.InitialHoverThrust
	c.Estimator.HoverThrustStdDev = est.HoverThrustStdDev
	c.Estimator.ProcessNoiseStdDev = est.ProcessNoiseStdDev
	c.Estimator.AccelNoiseStdDev = est.MeasurementNoiseStdDev
	c.Estimator.AccelInnovGate = est.AccelInnovGate
	c.Estimator.HoverThrustMin = est.HoverThrustMin
	c.Estimator.HoverThrustMax = est.HoverThrustMax
}

// EstimatorConfig converts the estimator section for hoverthrust.New.
func (c *Config) EstimatorConfig() hoverthrust.Config {
	est := hoverthrust.DefaultConfig()
	est.InitialHoverThrust = c.Estimator.InitialHoverThrust
	est.HoverThrustStdDev = c.Estimator.HoverThrustStdDev
	est.ProcessNoiseStdDev = c.Estimator.ProcessNoiseStdDev
	est.MeasurementNoiseStdDev = c.Estimator.AccelNoiseStdDev
	est.AccelInnovGate = c.Estimator.AccelInnovGate
	est.HoverThrustMin = c.Estimator.HoverThrustMin
	est.HoverThrustMax = c.Estimator.HoverThrustMax

	if c.Estimator.GateConfidence > 0 && c.Estimator.GateConfidence < 1 {
		est.AccelInnovGate = hoverthrust.GateForConfidence(c.Estimator.GateConfidence)
	}
	return est
}

// TrackerOptions converts the estimator and tracker sections for hover.NewTracker.
// An unparseable frame falls back to hover.FrameUp; Validate reports it.
func (c *Config) TrackerOptions() hover.Options {
	frame, _ := hover.ParseFrame(c.Tracker.Frame)
	return hover.Options{
		Estimator:              c.EstimatorConfig(),
		Enabled:                c.Tracker.Enabled,
		Frame:                  frame,
		MinDt:                  c.Tracker.MinDt,
		MaxDt:                  c.Tracker.MaxDt,
		MinThrust:              c.Tracker.MinThrust,
		ValidVarianceThreshold: c.Tracker.ValidVarianceThreshold,
		ValidHysteresis:        c.Tracker.ValidHysteresis,
		Debug:                  c.Logging.Level == "DEBUG",
	}
}

// Validate checks the configuration for errors.
//
// Example:
//
//	if err := config.Validate(); err != nil {
//		log.Fatalf("Configuration error: %v", err)
//	}
//
// Returns nil if configuration is valid, or an error wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	switch c.Estimator.Preset {
	case PresetDefault, PresetAgile, PresetConservative:
	default:
		return fmt.Errorf("%w: unknown estimator preset %q", ErrInvalidConfig, c.Estimator.Preset)
	}

	if c.Estimator.GateConfidence != 0 && !(c.Estimator.GateConfidence > 0 && c.Estimator.GateConfidence < 1) {
		return fmt.Errorf("%w: gate confidence must be in (0,1), got %v", ErrInvalidConfig, c.Estimator.GateConfidence)
	}

	if err := c.EstimatorConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Tracker.Frame != "up" && c.Tracker.Frame != "ned" {
		return fmt.Errorf("%w: frame must be \"up\" or \"ned\", got %q", ErrInvalidConfig, c.Tracker.Frame)
	}

	if c.Tracker.MinDt <= 0 || c.Tracker.MaxDt < c.Tracker.MinDt {
		return fmt.Errorf("%w: invalid dt bounds [%v, %v]", ErrInvalidConfig, c.Tracker.MinDt, c.Tracker.MaxDt)
	}

	if c.Tracker.MinThrust < 0 || c.Tracker.MinThrust >= 1 {
		return fmt.Errorf("%w: min thrust must be in [0,1), got %v", ErrInvalidConfig, c.Tracker.MinThrust)
	}

	if c.Tracker.ValidVarianceThreshold <= 0 {
		return fmt.Errorf("%w: valid variance threshold must be positive, got %v", ErrInvalidConfig, c.Tracker.ValidVarianceThreshold)
	}

	if !c.Storage.InMemory && c.Storage.DataDir == "" {
		return fmt.Errorf("%w: storage data dir is required", ErrInvalidConfig)
	}

	if c.Replay.VehicleID == "" {
		return fmt.Errorf("%w: vehicle id is required", ErrInvalidConfig)
	}

	switch c.Logging.Level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Logging.Level)
	}

	return nil
}

// String returns a compact representation of the Config, suitable for logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Preset: %s, Hover: %.3f, Gate: %.2f, Frame: %s, Enabled: %v, DataDir: %s}",
		c.Estimator.Preset,
		c.Estimator.InitialHoverThrust,
		c.EstimatorConfig().AccelInnovGate,
		c.Tracker.Frame,
		c.Tracker.Enabled,
		c.Storage.DataDir,
	)
}

// YAMLConfig represents the YAML configuration file structure.
// All fields mirror the environment variable configuration options.
type YAMLConfig struct {
	Estimator struct {
		Preset             string   `yaml:"preset"`
		InitialHoverThrust *float64 `yaml:"initial_hover_thrust"`
		HoverThrustStdDev  *float64 `yaml:"hover_thrust_std_dev"`
		ProcessNoiseStdDev *float64 `yaml:"process_noise_std_dev"`
		AccelNoiseStdDev   *float64 `yaml:"accel_noise_std_dev"`
		AccelInnovGate     *float64 `yaml:"accel_innov_gate"`
		GateConfidence     *float64 `yaml:"gate_confidence"`
		HoverThrustMin     *float64 `yaml:"hover_thrust_min"`
		HoverThrustMax     *float64 `yaml:"hover_thrust_max"`
	} `yaml:"estimator"`

	Tracker struct {
		Enabled                *bool    `yaml:"enabled"`
		Frame                  string   `yaml:"frame"`
		MinDt                  string   `yaml:"min_dt"`
		MaxDt                  string   `yaml:"max_dt"`
		MinThrust              *float64 `yaml:"min_thrust"`
		ValidVarianceThreshold *float64 `yaml:"valid_variance_threshold"`
		ValidHysteresis        string   `yaml:"valid_hysteresis"`
	} `yaml:"tracker"`

	Storage struct {
		DataDir    string `yaml:"data_dir"`
		InMemory   *bool  `yaml:"in_memory"`
		SyncWrites *bool  `yaml:"sync_writes"`
		LowMemory  *bool  `yaml:"low_memory"`
	} `yaml:"storage"`

	Replay struct {
		VehicleID            string `yaml:"vehicle_id"`
		SaveCheckpoint       *bool  `yaml:"save_checkpoint"`
		ResumeFromCheckpoint *bool  `yaml:"resume_from_checkpoint"`
	} `yaml:"replay"`

	Logging struct {
		Level  string `yaml:"level"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
}

// LoadFromFile loads configuration with proper precedence:
//  1. Built-in defaults (lowest priority)
//  2. YAML config file
//  3. Environment variables (highest priority before CLI args)
//
// Command-line arguments are applied by the caller (main.go) after this.
// A missing file is not an error: defaults and env vars are returned.
//
// Example YAML:
//
//	estimator:
//	  preset: agile
//	  gate_confidence: 0.997
//	tracker:
//	  frame: ned
//	  max_dt: 100ms
//	storage:
//	  data_dir: /var/lib/hoverthrust
func LoadFromFile(configPath string) (*Config, error) {
	config := LoadDefaults()

	if configPath == "" {
		applyEnvVars(config)
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvVars(config)
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlCfg YAMLConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := yamlCfg.apply(config); err != nil {
		return nil, fmt.Errorf("failed to apply config file %s: %w", configPath, err)
	}

	applyEnvVars(config)
	return config, nil
}

func (y *YAMLConfig) apply(config *Config) error {
	// === Estimator ===
	if y.Estimator.Preset != "" {
		config.ApplyPreset(y.Estimator.Preset)
	}
	setFloat(&config.Estimator.InitialHoverThrust, y.Estimator.InitialHoverThrust)
	setFloat(&config.Estimator.HoverThrustStdDev, y.Estimator.HoverThrustStdDev)
	setFloat(&config.Estimator.ProcessNoiseStdDev, y.Estimator.ProcessNoiseStdDev)
	setFloat(&config.Estimator.AccelNoiseStdDev, y.Estimator.AccelNoiseStdDev)
	setFloat(&config.Estimator.AccelInnovGate, y.Estimator.AccelInnovGate)
	setFloat(&config.Estimator.GateConfidence, y.Estimator.GateConfidence)
	setFloat(&config.Estimator.HoverThrustMin, y.Estimator.HoverThrustMin)
	setFloat(&config.Estimator.HoverThrustMax, y.Estimator.HoverThrustMax)

	// === Tracker ===
	setBool(&config.Tracker.Enabled, y.Tracker.Enabled)
	if y.Tracker.Frame != "" {
		config.Tracker.Frame = strings.ToLower(y.Tracker.Frame)
	}
	if err := setDuration(&config.Tracker.MinDt, y.Tracker.MinDt); err != nil {
		return fmt.Errorf("tracker.min_dt: %w", err)
	}
	if err := setDuration(&config.Tracker.MaxDt, y.Tracker.MaxDt); err != nil {
		return fmt.Errorf("tracker.max_dt: %w", err)
	}
	setFloat(&config.Tracker.MinThrust, y.Tracker.MinThrust)
	setFloat(&config.Tracker.ValidVarianceThreshold, y.Tracker.ValidVarianceThreshold)
	if err := setDuration(&config.Tracker.ValidHysteresis, y.Tracker.ValidHysteresis); err != nil {
		return fmt.Errorf("tracker.valid_hysteresis: %w", err)
	}

	// === Storage ===
	if y.Storage.DataDir != "" {
		config.Storage.DataDir = y.Storage.DataDir
	}
	setBool(&config.Storage.InMemory, y.Storage.InMemory)
	setBool(&config.Storage.SyncWrites, y.Storage.SyncWrites)
	setBool(&config.Storage.LowMemory, y.Storage.LowMemory)

	// === Replay ===
	if y.Replay.VehicleID != "" {
		config.Replay.VehicleID = y.Replay.VehicleID
	}
	setBool(&config.Replay.SaveCheckpoint, y.Replay.SaveCheckpoint)
	setBool(&config.Replay.ResumeFromCheckpoint, y.Replay.ResumeFromCheckpoint)

	// === Logging ===
	if y.Logging.Level != "" {
		config.Logging.Level = strings.ToUpper(y.Logging.Level)
	}
	if y.Logging.Output != "" {
		config.Logging.Output = y.Logging.Output
	}

	return nil
}

// FindConfigFile searches for config file in standard locations.
// Returns the path to the first config file found, or empty string if none found.
// Search order:
//  1. ~/.hoverthrust/config.yaml (user home directory - highest priority)
//  2. Current working directory (hoverthrust.yaml, config.yaml)
//  3. ~/.config/hoverthrust/config.yaml (XDG standard)
func FindConfigFile() string {
	var candidates []string

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".hoverthrust", "config.yaml"))
	}

	candidates = append(candidates,
		"hoverthrust.yaml",
		"config.yaml",
	)

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "hoverthrust", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Helper functions for YAML overrides

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		// Try parsing as milliseconds
		if ms, err := strconv.Atoi(val); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}
