package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	// Test that defaults are set via pointers
	if cfg.ChiSq == nil || *cfg.ChiSq != 0.95 {
		t.Errorf("Expected ChiSq 0.95, got %v", cfg.ChiSq)
	}
	if cfg.FingerChiSq == nil || *cfg.FingerChiSq != 0.5 {
		t.Errorf("Expected FingerChiSq 0.5, got %v", cfg.FingerChiSq)
	}
	if cfg.MaxAge == nil || *cfg.MaxAge != 4 {
		t.Errorf("Expected MaxAge 4, got %v", cfg.MaxAge)
	}
	if cfg.FrameInterval == nil || *cfg.FrameInterval != "33ms" {
		t.Errorf("Expected FrameInterval '33ms', got %v", cfg.FrameInterval)
	}

	// Test getter methods
	if cfg.GetMovedChiSq() != 0.85 {
		t.Errorf("GetMovedChiSq() = %f, want 0.85", cfg.GetMovedChiSq())
	}
	if cfg.GetNInit() != 4 {
		t.Errorf("GetNInit() = %d, want 4", cfg.GetNInit())
	}
	if cfg.GetSwipeDebounceFrames() != 15 {
		t.Errorf("GetSwipeDebounceFrames() = %d, want 15", cfg.GetSwipeDebounceFrames())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultTuningConfig().Validate() = %v", err)
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "chi_sq": 0.9,
  "finger_chi_sq": 0.6,
  "primary_gating_dof": 2,
  "max_age": 8,
  "n_init": 3,
  "frame_interval": "40ms"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetChiSq() != 0.9 {
		t.Errorf("GetChiSq() = %f, want 0.9", cfg.GetChiSq())
	}
	if cfg.GetFingerChiSq() != 0.6 {
		t.Errorf("GetFingerChiSq() = %f, want 0.6", cfg.GetFingerChiSq())
	}
	if cfg.GetPrimaryGatingDoF() != 2 {
		t.Errorf("GetPrimaryGatingDoF() = %d, want 2", cfg.GetPrimaryGatingDoF())
	}
	if cfg.GetMaxAge() != 8 {
		t.Errorf("GetMaxAge() = %d, want 8", cfg.GetMaxAge())
	}
	if cfg.GetNInit() != 3 {
		t.Errorf("GetNInit() = %d, want 3", cfg.GetNInit())
	}
	if cfg.GetFrameInterval() != 40*time.Millisecond {
		t.Errorf("GetFrameInterval() = %v, want 40ms", cfg.GetFrameInterval())
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	// Write invalid JSON
	invalidJSON := `{
  "chi_sq": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadTuningConfigRejectsOutOfRange(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "range.json")

	if err := os.WriteFile(configPath, []byte(`{"chi_sq": 1.2}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected validation error for chi_sq > 1, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     DefaultTuningConfig(),
			wantErr: false,
		},
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name:    "chi_sq zero",
			cfg:     &TuningConfig{ChiSq: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "finger chi_sq one",
			cfg:     &TuningConfig{FingerChiSq: ptrFloat64(1)},
			wantErr: true,
		},
		{
			name:    "moved chi_sq negative",
			cfg:     &TuningConfig{MovedChiSq: ptrFloat64(-0.2)},
			wantErr: true,
		},
		{
			name:    "gating dof three",
			cfg:     &TuningConfig{PrimaryGatingDoF: ptrInt(3)},
			wantErr: true,
		},
		{
			name:    "gating dof two",
			cfg:     &TuningConfig{PrimaryGatingDoF: ptrInt(2)},
			wantErr: false,
		},
		{
			name:    "negative max age",
			cfg:     &TuningConfig{MaxAge: ptrInt(-1)},
			wantErr: true,
		},
		{
			name:    "zero n_init",
			cfg:     &TuningConfig{NInit: ptrInt(0)},
			wantErr: true,
		},
		{
			name:    "negative finger max age",
			cfg:     &TuningConfig{FingerMaxAge: ptrInt(-3)},
			wantErr: true,
		},
		{
			name:    "negative debounce",
			cfg:     &TuningConfig{SwipeDebounceFrames: ptrInt(-1)},
			wantErr: true,
		},
		{
			name:    "zero position weight",
			cfg:     &TuningConfig{StdWeightPosition: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "negative velocity weight",
			cfg:     &TuningConfig{StdWeightVelocity: ptrFloat64(-1)},
			wantErr: true,
		},
		{
			name:    "invalid frame interval",
			cfg:     &TuningConfig{FrameInterval: ptrString("invalid")},
			wantErr: true,
		},
		{
			name:    "negative frame interval",
			cfg:     &TuningConfig{FrameInterval: ptrString("-5ms")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetFrameInterval(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TuningConfig
		want time.Duration
	}{
		{
			name: "explicit",
			cfg:  &TuningConfig{FrameInterval: ptrString("50ms")},
			want: 50 * time.Millisecond,
		},
		{
			name: "nil uses default",
			cfg:  &TuningConfig{},
			want: 33 * time.Millisecond,
		},
		{
			name: "empty uses default",
			cfg:  &TuningConfig{FrameInterval: ptrString("")},
			want: 33 * time.Millisecond,
		},
		{
			name: "unparseable uses default",
			cfg:  &TuningConfig{FrameInterval: ptrString("soon")},
			want: 33 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GetFrameInterval(); got != tt.want {
				t.Errorf("GetFrameInterval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/tuning.defaults.json")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	// The defaults file must agree with the built-in getter defaults.
	want := DefaultTuningConfig()
	if cfg.GetChiSq() != want.GetChiSq() {
		t.Errorf("chi_sq = %f, want %f", cfg.GetChiSq(), want.GetChiSq())
	}
	if cfg.GetFingerChiSq() != want.GetFingerChiSq() {
		t.Errorf("finger_chi_sq = %f, want %f", cfg.GetFingerChiSq(), want.GetFingerChiSq())
	}
	if cfg.GetMovedChiSq() != want.GetMovedChiSq() {
		t.Errorf("moved_chi_sq = %f, want %f", cfg.GetMovedChiSq(), want.GetMovedChiSq())
	}
	if cfg.GetPrimaryGatingDoF() != want.GetPrimaryGatingDoF() {
		t.Errorf("primary_gating_dof = %d, want %d", cfg.GetPrimaryGatingDoF(), want.GetPrimaryGatingDoF())
	}
	if cfg.GetMaxAge() != want.GetMaxAge() || cfg.GetNInit() != want.GetNInit() || cfg.GetFingerMaxAge() != want.GetFingerMaxAge() {
		t.Errorf("lifecycle = (%d,%d,%d), want (%d,%d,%d)",
			cfg.GetMaxAge(), cfg.GetNInit(), cfg.GetFingerMaxAge(),
			want.GetMaxAge(), want.GetNInit(), want.GetFingerMaxAge())
	}
	if cfg.GetSwipeDebounceFrames() != want.GetSwipeDebounceFrames() {
		t.Errorf("swipe_debounce_frames = %d, want %d", cfg.GetSwipeDebounceFrames(), want.GetSwipeDebounceFrames())
	}
	if cfg.GetInitialFramesSinceSwipe() != want.GetInitialFramesSinceSwipe() {
		t.Errorf("initial_frames_since_swipe = %d, want %d", cfg.GetInitialFramesSinceSwipe(), want.GetInitialFramesSinceSwipe())
	}
	if cfg.GetStdWeightPosition() != want.GetStdWeightPosition() || cfg.GetStdWeightVelocity() != want.GetStdWeightVelocity() {
		t.Errorf("noise weights = (%f,%f), want (%f,%f)",
			cfg.GetStdWeightPosition(), cfg.GetStdWeightVelocity(),
			want.GetStdWeightPosition(), want.GetStdWeightVelocity())
	}
	if cfg.GetFrameInterval() != want.GetFrameInterval() {
		t.Errorf("frame_interval = %v, want %v", cfg.GetFrameInterval(), want.GetFrameInterval())
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if cfg.GetChiSq() != 0.95 {
		t.Errorf("GetChiSq() = %f, want 0.95", cfg.GetChiSq())
	}
}

func TestLoadTuningConfigPartial(t *testing.T) {
	// Partial config: only override max_age; everything else should keep defaults.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	if err := os.WriteFile(configPath, []byte(`{"max_age": 10}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load partial config: %v", err)
	}

	if cfg.GetMaxAge() != 10 {
		t.Errorf("Expected overridden MaxAge 10, got %d", cfg.GetMaxAge())
	}
	if cfg.GetChiSq() != 0.95 {
		t.Errorf("Expected default ChiSq 0.95, got %f", cfg.GetChiSq())
	}
	if cfg.GetFingerMaxAge() != 5 {
		t.Errorf("Expected default FingerMaxAge 5, got %d", cfg.GetFingerMaxAge())
	}
}

func TestLoadTuningConfigRejectsUnknownExtension(t *testing.T) {
	_, err := LoadTuningConfig("/some/path/config.toml")
	if err == nil {
		t.Error("Expected error for .toml extension, got nil")
	}
}

func TestLoadTuningConfigYAML(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"tuning.yaml", "tuning.yml"} {
		configPath := filepath.Join(tmpDir, name)
		data := "finger_chi_sq: 0.6\nswipe_debounce_frames: 10\nframe_interval: 50ms\n"
		if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
			t.Fatalf("Failed to write test config: %v", err)
		}

		cfg, err := LoadTuningConfig(configPath)
		if err != nil {
			t.Fatalf("Failed to load %s: %v", name, err)
		}
		if cfg.GetFingerChiSq() != 0.6 {
			t.Errorf("%s: FingerChiSq = %f, want 0.6", name, cfg.GetFingerChiSq())
		}
		if cfg.GetSwipeDebounceFrames() != 10 {
			t.Errorf("%s: SwipeDebounceFrames = %d, want 10", name, cfg.GetSwipeDebounceFrames())
		}
		if cfg.GetFrameInterval() != 50*time.Millisecond {
			t.Errorf("%s: FrameInterval = %v, want 50ms", name, cfg.GetFrameInterval())
		}
		if cfg.GetChiSq() != 0.95 {
			t.Errorf("%s: ChiSq = %f, want default 0.95", name, cfg.GetChiSq())
		}
	}
}

func TestLoadTuningConfigYAMLInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configPath, []byte("max_age: [1, 2\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	if _, err := LoadTuningConfig(configPath); err == nil {
		t.Error("Expected parse error for malformed YAML, got nil")
	}
}

func TestLoadTuningConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")

	// Create a file larger than 1MB
	largeData := make([]byte, 2*1024*1024) // 2MB
	if err := os.WriteFile(configPath, largeData, 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}
