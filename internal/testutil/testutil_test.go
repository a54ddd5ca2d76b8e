package testutil

import (
	"net/http"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAssertStatusCode(t *testing.T) {
	t.Parallel()

	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	AssertStatusCode(t, http.StatusNotFound, http.StatusNotFound)
}

func TestAssertPositiveSemiDefinite(t *testing.T) {
	t.Parallel()

	m := mat.NewSymDense(2, []float64{
		2, 1,
		1, 2,
	})
	AssertPositiveSemiDefinite(t, m, 1e-12)

	zero := mat.NewSymDense(3, nil)
	AssertPositiveSemiDefinite(t, zero, 1e-12)
}

func TestAssertVecInDelta(t *testing.T) {
	t.Parallel()

	v := mat.NewVecDense(3, []float64{1, 2, 3.0005})
	AssertVecInDelta(t, v, []float64{1, 2, 3}, 1e-3)
}

func TestNewTestRequest(t *testing.T) {
	t.Parallel()

	req := NewTestRequest(http.MethodGet, "/debug/")
	if req.Method != http.MethodGet {
		t.Errorf("method = %s, want GET", req.Method)
	}
	if req.URL.Path != "/debug/" {
		t.Errorf("path = %s, want /debug/", req.URL.Path)
	}

	rec := NewTestRecorder()
	if rec.Code != http.StatusOK {
		t.Errorf("recorder default code = %d, want 200", rec.Code)
	}
}
