// Package kalman implements the linear-Gaussian filter shared by the hand
// and finger tracks.
//
// Responsibilities: constant-velocity state propagation, projection into
// measurement space, Kalman correction, and chi-square gating.
// Key types: Filter, Model, State.
//
// The state vector is laid out as [p0..pN-1, v0..vN-1]: one position term
// per measured component followed by its velocity. All covariance algebra
// goes through a Cholesky factorisation of the projected covariance; the
// package never forms an explicit matrix inverse.
package kalman
