package tracking

import (
	"strings"
	"testing"

	"github.com/banshee-data/handtrack/internal/kalman"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFilter(t *testing.T, ndim int) *kalman.Filter {
	t.Helper()
	kf, err := kalman.NewFilter(kalman.FixedScaleModel(ndim), 0.95)
	require.NoError(t, err)
	return kf
}

func newTestTrack(t *testing.T, kf *kalman.Filter, det *Detection) *Track {
	t.Helper()
	est, err := kf.Initiate(det.XYIndex())
	require.NoError(t, err)
	return NewTrack(est, 4, 4)
}

// ---------------------------------------------------------------------------
// Track
// ---------------------------------------------------------------------------

func TestNewTrack(t *testing.T) {
	t.Parallel()

	kf := newTestFilter(t, 4)
	det := mustDetection(t, [4]float64{0.1, 0.1, 0.3, 0.4}, nil, nil)
	trk := newTestTrack(t, kf, det)

	assert.True(t, strings.HasPrefix(trk.TrackID, "trk_"))
	assert.True(t, trk.IsTentative())
	assert.Equal(t, 1, trk.Hits)
	assert.Equal(t, 0, trk.TimeSinceUpdate)
	assert.InDelta(t, 0.2, trk.Position().X, 1e-12)
	assert.InDelta(t, 0.25, trk.Position().Y, 1e-12)
	assert.Equal(t, trk.Position(), trk.Anchor())

	other := newTestTrack(t, kf, det)
	assert.NotEqual(t, trk.TrackID, other.TrackID)
}

func TestTrack_ConfirmsAfterNInit(t *testing.T) {
	t.Parallel()

	kf := newTestFilter(t, 4)
	det := mustDetection(t, [4]float64{0.1, 0.1, 0.3, 0.4}, nil, nil)
	trk := newTestTrack(t, kf, det)

	for i := 2; i <= 4; i++ {
		trk.Predict(kf)
		assert.Equal(t, 1, trk.TimeSinceUpdate)
		require.NoError(t, trk.Update(kf, det))
		assert.Equal(t, i, trk.Hits)
		assert.Equal(t, 0, trk.TimeSinceUpdate)
		if i < 4 {
			assert.True(t, trk.IsTentative(), "hit %d", i)
		}
	}
	assert.True(t, trk.IsConfirmed())
}

func TestTrack_MarkMissed(t *testing.T) {
	t.Parallel()

	kf := newTestFilter(t, 4)
	det := mustDetection(t, [4]float64{0.1, 0.1, 0.3, 0.4}, nil, nil)

	t.Run("tentative deleted on first miss", func(t *testing.T) {
		trk := newTestTrack(t, kf, det)
		trk.Predict(kf)
		trk.MarkMissed()
		assert.True(t, trk.IsDeleted())
	})

	t.Run("confirmed coasts up to max age", func(t *testing.T) {
		trk := newTestTrack(t, kf, det)
		for i := 0; i < 3; i++ {
			trk.Predict(kf)
			require.NoError(t, trk.Update(kf, det))
		}
		require.True(t, trk.IsConfirmed())

		for i := 1; i <= 4; i++ {
			trk.Predict(kf)
			trk.MarkMissed()
			assert.True(t, trk.IsConfirmed(), "miss %d", i)
		}
		trk.Predict(kf)
		trk.MarkMissed()
		assert.True(t, trk.IsDeleted())
	})
}

// ---------------------------------------------------------------------------
// FingerTrack
// ---------------------------------------------------------------------------

func TestFingerTrack_Lifecycle(t *testing.T) {
	t.Parallel()

	kf := newTestFilter(t, NumFingers)
	fingers := FingerLandmarks{0.5, 0.5, 0.5, 0.5}
	est, err := kf.Initiate(fingers.Slice())
	require.NoError(t, err)

	ft := NewFingerTrack(est, 5)
	assert.False(t, ft.IsDeleted())
	assert.Equal(t, TrackConfirmed, ft.State)
	assert.Equal(t, fingers, ft.Landmarks())

	ft.Predict(kf)
	require.NoError(t, ft.Update(kf, FingerLandmarks{0.52, 0.52, 0.52, 0.52}))
	assert.Equal(t, 0, ft.TimeSinceUpdate)
	for _, v := range ft.Landmarks() {
		assert.Greater(t, v, 0.5)
		assert.Less(t, v, 0.52)
	}

	for i := 1; i <= 5; i++ {
		ft.Predict(kf)
		ft.MarkMissed()
		assert.False(t, ft.IsDeleted(), "miss %d", i)
	}
	ft.Predict(kf)
	ft.MarkMissed()
	assert.True(t, ft.IsDeleted())
}

func TestFingerTrack_UpdateDimensionError(t *testing.T) {
	t.Parallel()

	kf := newTestFilter(t, 2)
	est, err := kf.Initiate([]float64{0.5, 0.5})
	require.NoError(t, err)

	ft := NewFingerTrack(est, 5)
	err = ft.Update(kf, FingerLandmarks{0.5, 0.5, 0.5, 0.5})
	assert.ErrorIs(t, err, kalman.ErrDimension)
}
