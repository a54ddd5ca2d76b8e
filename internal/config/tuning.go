package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tracker tuning
// parameters. Every field is optional; the Get* methods supply defaults for
// fields omitted from the config file.
type TuningConfig struct {
	// Gating confidence levels, each in (0, 1)
	ChiSq       *float64 `json:"chi_sq,omitempty" yaml:"chi_sq,omitempty"`               // primary track gate
	FingerChiSq *float64 `json:"finger_chi_sq,omitempty" yaml:"finger_chi_sq,omitempty"` // swipe gate on the finger track
	MovedChiSq  *float64 `json:"moved_chi_sq,omitempty" yaml:"moved_chi_sq,omitempty"`   // hand-moved suppression gate

	// PrimaryGatingDoF selects the hand gate: 4 gates on box center plus
	// anchor, 2 gates on the box center only.
	PrimaryGatingDoF *int `json:"primary_gating_dof,omitempty" yaml:"primary_gating_dof,omitempty"`

	// Track lifecycle
	MaxAge       *int `json:"max_age,omitempty" yaml:"max_age,omitempty"`
	NInit        *int `json:"n_init,omitempty" yaml:"n_init,omitempty"`
	FingerMaxAge *int `json:"finger_max_age,omitempty" yaml:"finger_max_age,omitempty"`

	// Swipe debounce
	SwipeDebounceFrames     *int `json:"swipe_debounce_frames,omitempty" yaml:"swipe_debounce_frames,omitempty"`
	InitialFramesSinceSwipe *int `json:"initial_frames_since_swipe,omitempty" yaml:"initial_frames_since_swipe,omitempty"`

	// Kalman noise weights, relative to normalised image coordinates
	StdWeightPosition *float64 `json:"std_weight_position,omitempty" yaml:"std_weight_position,omitempty"`
	StdWeightVelocity *float64 `json:"std_weight_velocity,omitempty" yaml:"std_weight_velocity,omitempty"`

	// Replay params
	FrameInterval *string `json:"frame_interval,omitempty" yaml:"frame_interval,omitempty"` // duration string like "33ms"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// with its default value.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		ChiSq:                   ptrFloat64(empty.GetChiSq()),
		FingerChiSq:             ptrFloat64(empty.GetFingerChiSq()),
		MovedChiSq:              ptrFloat64(empty.GetMovedChiSq()),
		PrimaryGatingDoF:        ptrInt(empty.GetPrimaryGatingDoF()),
		MaxAge:                  ptrInt(empty.GetMaxAge()),
		NInit:                   ptrInt(empty.GetNInit()),
		FingerMaxAge:            ptrInt(empty.GetFingerMaxAge()),
		SwipeDebounceFrames:     ptrInt(empty.GetSwipeDebounceFrames()),
		InitialFramesSinceSwipe: ptrInt(empty.GetInitialFramesSinceSwipe()),
		StdWeightPosition:       ptrFloat64(empty.GetStdWeightPosition()),
		StdWeightVelocity:       ptrFloat64(empty.GetStdWeightVelocity()),
		FrameInterval:           ptrString(empty.GetFrameInterval().String()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON or YAML file, chosen by
// extension (.json, .yaml or .yml). The file must be under the max file size.
// Fields omitted from the file retain their default values, so partial
// configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	var unmarshal func([]byte, any) error
	switch ext := filepath.Ext(cleanPath); ext {
	case ".json":
		unmarshal = json.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	confidences := []struct {
		name string
		v    *float64
	}{
		{"chi_sq", c.ChiSq},
		{"finger_chi_sq", c.FingerChiSq},
		{"moved_chi_sq", c.MovedChiSq},
	}
	for _, p := range confidences {
		if p.v != nil && (*p.v <= 0 || *p.v >= 1) {
			return fmt.Errorf("%s must be between 0 and 1 (exclusive), got %f", p.name, *p.v)
		}
	}

	if c.PrimaryGatingDoF != nil && *c.PrimaryGatingDoF != 2 && *c.PrimaryGatingDoF != 4 {
		return fmt.Errorf("primary_gating_dof must be 2 or 4, got %d", *c.PrimaryGatingDoF)
	}

	if c.MaxAge != nil && *c.MaxAge < 0 {
		return fmt.Errorf("max_age must be non-negative, got %d", *c.MaxAge)
	}
	if c.NInit != nil && *c.NInit < 1 {
		return fmt.Errorf("n_init must be at least 1, got %d", *c.NInit)
	}
	if c.FingerMaxAge != nil && *c.FingerMaxAge < 0 {
		return fmt.Errorf("finger_max_age must be non-negative, got %d", *c.FingerMaxAge)
	}
	if c.SwipeDebounceFrames != nil && *c.SwipeDebounceFrames < 0 {
		return fmt.Errorf("swipe_debounce_frames must be non-negative, got %d", *c.SwipeDebounceFrames)
	}

	if c.StdWeightPosition != nil && *c.StdWeightPosition <= 0 {
		return fmt.Errorf("std_weight_position must be positive, got %f", *c.StdWeightPosition)
	}
	if c.StdWeightVelocity != nil && *c.StdWeightVelocity <= 0 {
		return fmt.Errorf("std_weight_velocity must be positive, got %f", *c.StdWeightVelocity)
	}

	// Validate FrameInterval can be parsed if set
	if c.FrameInterval != nil && *c.FrameInterval != "" {
		d, err := time.ParseDuration(*c.FrameInterval)
		if err != nil {
			return fmt.Errorf("invalid frame_interval '%s': %w", *c.FrameInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("frame_interval must be positive, got %s", d)
		}
	}

	return nil
}

// GetChiSq returns the chi_sq value or the default.
func (c *TuningConfig) GetChiSq() float64 {
	if c.ChiSq == nil {
		return 0.95
	}
	return *c.ChiSq
}

// GetFingerChiSq returns the finger_chi_sq value or the default.
func (c *TuningConfig) GetFingerChiSq() float64 {
	if c.FingerChiSq == nil {
		return 0.5
	}
	return *c.FingerChiSq
}

// GetMovedChiSq returns the moved_chi_sq value or the default.
func (c *TuningConfig) GetMovedChiSq() float64 {
	if c.MovedChiSq == nil {
		return 0.85
	}
	return *c.MovedChiSq
}

// GetPrimaryGatingDoF returns the primary_gating_dof value or the default.
func (c *TuningConfig) GetPrimaryGatingDoF() int {
	if c.PrimaryGatingDoF == nil {
		return 4
	}
	return *c.PrimaryGatingDoF
}

// GetMaxAge returns the max_age value or the default.
func (c *TuningConfig) GetMaxAge() int {
	if c.MaxAge == nil {
		return 4
	}
	return *c.MaxAge
}

// GetNInit returns the n_init value or the default.
func (c *TuningConfig) GetNInit() int {
	if c.NInit == nil {
		return 4
	}
	return *c.NInit
}

// GetFingerMaxAge returns the finger_max_age value or the default.
func (c *TuningConfig) GetFingerMaxAge() int {
	if c.FingerMaxAge == nil {
		return 5
	}
	return *c.FingerMaxAge
}

// GetSwipeDebounceFrames returns the swipe_debounce_frames value or the default.
func (c *TuningConfig) GetSwipeDebounceFrames() int {
	if c.SwipeDebounceFrames == nil {
		return 15
	}
	return *c.SwipeDebounceFrames
}

// GetInitialFramesSinceSwipe returns the initial_frames_since_swipe value or the default.
func (c *TuningConfig) GetInitialFramesSinceSwipe() int {
	if c.InitialFramesSinceSwipe == nil {
		return 6
	}
	return *c.InitialFramesSinceSwipe
}

// GetStdWeightPosition returns the std_weight_position value or the default.
func (c *TuningConfig) GetStdWeightPosition() float64 {
	if c.StdWeightPosition == nil {
		return 1.0 / 20
	}
	return *c.StdWeightPosition
}

// GetStdWeightVelocity returns the std_weight_velocity value or the default.
func (c *TuningConfig) GetStdWeightVelocity() float64 {
	if c.StdWeightVelocity == nil {
		return 1.0 / 160
	}
	return *c.StdWeightVelocity
}

// GetFrameInterval parses and returns the FrameInterval as a time.Duration.
func (c *TuningConfig) GetFrameInterval() time.Duration {
	if c.FrameInterval == nil || *c.FrameInterval == "" {
		return 33 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.FrameInterval)
	if err != nil {
		return 33 * time.Millisecond // default on parse error
	}
	return d
}
