// Package decomposition computes first-order mineralization of labile
// organic material. Refractory material does not decompose.
package decomposition

import "math"

// Decompose returns the labile mass lost over dt years at decay constant k,
// labile*(1-exp(-k*dt)). The exact exponential form is used so that
// splitting a timestep into sub-timesteps gives the same loss.
func Decompose(labile, k, dt float64) float64 {
	if labile <= 0 || k <= 0 || dt <= 0 {
		return 0
	}
	return labile * -math.Expm1(-k*dt)
}
