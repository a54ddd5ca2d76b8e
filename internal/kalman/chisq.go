package kalman

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// Quantile returns the chi-square inverse CDF at the given confidence for
// dof degrees of freedom. A squared Mahalanobis distance above this value
// lies outside the confidence region of the predicted measurement.
func Quantile(confidence float64, dof int) (float64, error) {
	if confidence <= 0 || confidence >= 1 {
		return 0, fmt.Errorf("%w: confidence must be in (0, 1), got %g", ErrInvalidModel, confidence)
	}
	if dof < 1 {
		return 0, fmt.Errorf("%w: degrees of freedom must be positive, got %d", ErrInvalidModel, dof)
	}
	return distuv.ChiSquared{K: float64(dof)}.Quantile(confidence), nil
}
