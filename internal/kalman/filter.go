package kalman

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidModel is returned when a filter is constructed from an
	// unusable model or confidence level.
	ErrInvalidModel = errors.New("kalman: invalid model")
	// ErrNotPositiveDefinite is returned when the projected covariance
	// cannot be Cholesky-factorised.
	ErrNotPositiveDefinite = errors.New("kalman: projected covariance is not positive definite")
	// ErrDimension is returned when a measurement does not match the model.
	ErrDimension = errors.New("kalman: measurement dimension mismatch")
)

// Default noise weights, relative to the model scale.
const (
	DefaultStdWeightPosition = 1.0 / 20
	DefaultStdWeightVelocity = 1.0 / 160
)

// positionDims is the size of the sub-vector used for position-only gating.
const positionDims = 2

// Model describes the measurement space of a filter.
type Model struct {
	// NDim is the number of measured components. The internal state carries
	// one velocity per component, so the state has 2*NDim entries.
	NDim int

	// StdWeightPosition and StdWeightVelocity scale the position and
	// velocity standard deviations used for initial, process and
	// measurement noise.
	StdWeightPosition float64
	StdWeightVelocity float64

	// ScaleIndex selects the measurement component (for example a box
	// height) that noise is proportional to. A negative index means a
	// constant scale of 1, which suits coordinates already normalised to
	// the image size.
	ScaleIndex int
}

// FixedScaleModel returns a model with ndim components, default noise
// weights and a constant scale.
func FixedScaleModel(ndim int) Model {
	return Model{
		NDim:              ndim,
		StdWeightPosition: DefaultStdWeightPosition,
		StdWeightVelocity: DefaultStdWeightVelocity,
		ScaleIndex:        -1,
	}
}

func (m Model) validate() error {
	if m.NDim < 1 {
		return fmt.Errorf("%w: ndim must be positive, got %d", ErrInvalidModel, m.NDim)
	}
	if m.StdWeightPosition <= 0 || m.StdWeightVelocity <= 0 {
		return fmt.Errorf("%w: noise weights must be positive (pos=%g vel=%g)",
			ErrInvalidModel, m.StdWeightPosition, m.StdWeightVelocity)
	}
	if m.ScaleIndex >= m.NDim {
		return fmt.Errorf("%w: scale index %d outside measurement of size %d", ErrInvalidModel, m.ScaleIndex, m.NDim)
	}
	return nil
}

// State is a Gaussian belief over the filter state.
type State struct {
	Mean       *mat.VecDense
	Covariance *mat.SymDense
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	n, _ := s.Covariance.Dims()
	cov := mat.NewSymDense(n, nil)
	cov.CopySym(s.Covariance)
	return State{Mean: mat.VecDenseCopyOf(s.Mean), Covariance: cov}
}

// Position returns a copy of the position half of the mean.
func (s State) Position() []float64 {
	n := s.Mean.Len() / 2
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Mean.AtVec(i)
	}
	return out
}

// Filter is a constant-velocity Kalman filter over a Model. A Filter is
// immutable after construction and may be shared by any number of states.
type Filter struct {
	model   Model
	chiSq   float64
	motion  *mat.Dense
	observe *mat.Dense

	// thresholds caches Quantile(chiSq, dof) for the dofs the trackers use.
	thresholds map[int]float64
}

// NewFilter builds a filter for model with gating confidence chiSq, which
// must lie in (0, 1).
func NewFilter(model Model, chiSq float64) (*Filter, error) {
	if err := model.validate(); err != nil {
		return nil, err
	}
	n := model.NDim
	f := &Filter{
		model:      model,
		chiSq:      chiSq,
		motion:     mat.NewDense(2*n, 2*n, nil),
		observe:    mat.NewDense(n, 2*n, nil),
		thresholds: make(map[int]float64),
	}
	for i := 0; i < 2*n; i++ {
		f.motion.Set(i, i, 1)
	}
	for i := 0; i < n; i++ {
		f.motion.Set(i, n+i, 1)
		f.observe.Set(i, i, 1)
	}

	dofs := []int{n}
	if n > positionDims {
		dofs = append(dofs, positionDims)
	}
	for _, dof := range dofs {
		q, err := Quantile(chiSq, dof)
		if err != nil {
			return nil, err
		}
		f.thresholds[dof] = q
	}
	return f, nil
}

// ChiSq returns the gating confidence level.
func (f *Filter) ChiSq() float64 { return f.chiSq }

// Threshold returns the chi-square gate for dof degrees of freedom at the
// filter's confidence level. Gates for 2 and 4 are cached at construction.
func (f *Filter) Threshold(dof int) (float64, error) {
	if q, ok := f.thresholds[dof]; ok {
		return q, nil
	}
	return Quantile(f.chiSq, dof)
}

// scale returns the noise scale read from v, which holds at least NDim
// position entries.
func (f *Filter) scale(v mat.Vector) float64 {
	if f.model.ScaleIndex < 0 {
		return 1
	}
	return v.AtVec(f.model.ScaleIndex)
}

// Initiate creates a state from a single unassociated measurement.
// Velocities start at zero with a wide spread.
func (f *Filter) Initiate(measurement []float64) (State, error) {
	n := f.model.NDim
	if len(measurement) != n {
		return State{}, fmt.Errorf("%w: got %d values, want %d", ErrDimension, len(measurement), n)
	}
	mean := mat.NewVecDense(2*n, nil)
	for i, v := range measurement {
		mean.SetVec(i, v)
	}

	s := f.scale(mean)
	posStd := 2 * f.model.StdWeightPosition * s
	velStd := 10 * f.model.StdWeightVelocity * s
	cov := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, posStd*posStd)
		cov.SetSym(n+i, n+i, velStd*velStd)
	}
	return State{Mean: mean, Covariance: cov}, nil
}

// Predict runs one prediction step: x' = F x, P' = F P Fᵀ + Q.
func (f *Filter) Predict(st State) State {
	n := f.model.NDim
	s := f.scale(st.Mean)
	posStd := f.model.StdWeightPosition * s
	velStd := f.model.StdWeightVelocity * s

	mean := mat.NewVecDense(2*n, nil)
	mean.MulVec(f.motion, st.Mean)

	var fp, fpf mat.Dense
	fp.Mul(f.motion, st.Covariance)
	fpf.Mul(&fp, f.motion.T())
	cov := symmetrize(&fpf)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, cov.At(i, i)+posStd*posStd)
		cov.SetSym(n+i, n+i, cov.At(n+i, n+i)+velStd*velStd)
	}
	return State{Mean: mean, Covariance: cov}
}

// Project maps st into measurement space, adding measurement noise.
func (f *Filter) Project(st State) (*mat.VecDense, *mat.SymDense) {
	n := f.model.NDim
	s := f.scale(st.Mean)
	std := f.model.StdWeightPosition * s

	mean := mat.NewVecDense(n, nil)
	mean.MulVec(f.observe, st.Mean)

	var hp, hph mat.Dense
	hp.Mul(f.observe, st.Covariance)
	hph.Mul(&hp, f.observe.T())
	cov := symmetrize(&hph)
	for i := 0; i < n; i++ {
		cov.SetSym(i, i, cov.At(i, i)+std*std)
	}
	return mean, cov
}

// Update corrects st with measurement and returns the posterior.
func (f *Filter) Update(st State, measurement []float64) (State, error) {
	n := f.model.NDim
	if len(measurement) != n {
		return State{}, fmt.Errorf("%w: got %d values, want %d", ErrDimension, len(measurement), n)
	}
	projMean, projCov := f.Project(st)

	var chol mat.Cholesky
	if ok := chol.Factorize(projCov); !ok {
		return State{}, ErrNotPositiveDefinite
	}

	// Kᵀ = S⁻¹ H P, solved against the Cholesky factor.
	var hp, gainT mat.Dense
	hp.Mul(f.observe, st.Covariance)
	if err := chol.SolveTo(&gainT, &hp); err != nil {
		return State{}, fmt.Errorf("kalman: solve gain: %w", err)
	}

	innovation := mat.NewVecDense(n, nil)
	for i, v := range measurement {
		innovation.SetVec(i, v-projMean.AtVec(i))
	}

	correction := mat.NewVecDense(2*n, nil)
	correction.MulVec(gainT.T(), innovation)
	mean := mat.NewVecDense(2*n, nil)
	mean.AddVec(st.Mean, correction)

	// P' = P - K S Kᵀ
	var ks, ksk, diff mat.Dense
	ks.Mul(gainT.T(), projCov)
	ksk.Mul(&ks, &gainT)
	diff.Sub(st.Covariance, &ksk)
	return State{Mean: mean, Covariance: symmetrize(&diff)}, nil
}

// GatingDistance returns the squared Mahalanobis distance between the
// projected state and each measurement. With onlyPosition set, only the
// first two measurement components take part.
func (f *Filter) GatingDistance(st State, measurements [][]float64, onlyPosition bool) ([]float64, error) {
	projMean, projCov := f.Project(st)
	dim := f.model.NDim
	if onlyPosition && dim > positionDims {
		dim = positionDims
	}

	cov := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			cov.SetSym(i, j, projCov.At(i, j))
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, ErrNotPositiveDefinite
	}

	out := make([]float64, len(measurements))
	d := mat.NewVecDense(dim, nil)
	var z mat.VecDense
	for k, m := range measurements {
		if len(m) < dim {
			return nil, fmt.Errorf("%w: got %d values, want at least %d", ErrDimension, len(m), dim)
		}
		for i := 0; i < dim; i++ {
			d.SetVec(i, m[i]-projMean.AtVec(i))
		}
		if err := chol.SolveVecTo(&z, d); err != nil {
			return nil, fmt.Errorf("kalman: solve distance: %w", err)
		}
		out[k] = mat.Dot(d, &z)
	}
	return out, nil
}

// Distance is GatingDistance for a single measurement.
func (f *Filter) Distance(st State, measurement []float64, onlyPosition bool) (float64, error) {
	d, err := f.GatingDistance(st, [][]float64{measurement}, onlyPosition)
	if err != nil {
		return 0, err
	}
	return d[0], nil
}

// symmetrize returns (m + mᵀ)/2 as a SymDense, removing the drift that
// repeated products leave between the two triangles.
func symmetrize(m mat.Matrix) *mat.SymDense {
	r, _ := m.Dims()
	out := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			out.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return out
}
