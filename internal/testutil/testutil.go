// Package testutil provides assertions shared by the filter, store and
// debug route tests.
package testutil

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertPositiveSemiDefinite fails the test if any eigenvalue of m is below
// -tol, or if m holds a non-finite entry.
func AssertPositiveSemiDefinite(t *testing.T, m mat.Symmetric, tol float64) {
	t.Helper()
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("covariance[%d,%d] is not finite: %v", i, j, v)
			}
		}
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(m, false); !ok {
		t.Fatal("eigen decomposition failed")
	}
	for i, v := range eig.Values(nil) {
		if v < -tol {
			t.Errorf("eigenvalue %d = %g, want >= %g", i, v, -tol)
		}
	}
}

// AssertVecInDelta compares a vector against expected values element-wise.
func AssertVecInDelta(t *testing.T, got mat.Vector, want []float64, delta float64) {
	t.Helper()
	if got.Len() != len(want) {
		t.Fatalf("vector length = %d, want %d", got.Len(), len(want))
	}
	for i, w := range want {
		if g := got.AtVec(i); math.Abs(g-w) > delta {
			t.Errorf("vec[%d] = %g, want %g (±%g)", i, g, w, delta)
		}
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
