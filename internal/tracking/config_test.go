package tracking

import (
	"encoding/json"
	"testing"

	"github.com/banshee-data/handtrack/internal/config"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTrackerConfig(t *testing.T) {
	t.Parallel()

	want := TrackerConfig{
		ChiSq:                   0.95,
		FingerChiSq:             0.5,
		MovedChiSq:              0.85,
		PrimaryGatingDoF:        4,
		MaxAge:                  4,
		NInit:                   4,
		FingerMaxAge:            5,
		SwipeDebounceFrames:     15,
		InitialFramesSinceSwipe: 6,
		StdWeightPosition:       1.0 / 20,
		StdWeightVelocity:       1.0 / 160,
	}
	if diff := cmp.Diff(want, DefaultTrackerConfig()); diff != "" {
		t.Errorf("DefaultTrackerConfig() mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, want.Validate())
}

func TestTrackerConfigFromTuning_Overrides(t *testing.T) {
	t.Parallel()

	var tc config.TuningConfig
	require.NoError(t, json.Unmarshal([]byte(`{"chi_sq": 0.9, "n_init": 3, "primary_gating_dof": 2}`), &tc))

	got := TrackerConfigFromTuning(&tc)
	want := DefaultTrackerConfig()
	want.ChiSq = 0.9
	want.NInit = 3
	want.PrimaryGatingDoF = 2
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TrackerConfigFromTuning() mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackerConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*TrackerConfig)
	}{
		{"chi_sq zero", func(c *TrackerConfig) { c.ChiSq = 0 }},
		{"finger chi_sq one", func(c *TrackerConfig) { c.FingerChiSq = 1 }},
		{"moved chi_sq negative", func(c *TrackerConfig) { c.MovedChiSq = -0.1 }},
		{"dof 3", func(c *TrackerConfig) { c.PrimaryGatingDoF = 3 }},
		{"negative max age", func(c *TrackerConfig) { c.MaxAge = -1 }},
		{"negative debounce", func(c *TrackerConfig) { c.SwipeDebounceFrames = -1 }},
		{"n_init zero", func(c *TrackerConfig) { c.NInit = 0 }},
		{"zero velocity weight", func(c *TrackerConfig) { c.StdWeightVelocity = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTrackerConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
