package l2predicates

import "math"

// Point is anything with a position in detector coordinates.
type Point interface {
	Position() (x, y, z float64)
}

// SlopeLimits bounds |dx/dz| and |dy/dz| for a seed pair.
type SlopeLimits struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ToleranceLimits bounds the residuals of a third hit against the line
// through the first two, and the scatter angle proxy.
type ToleranceLimits struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Scatter float64 `json:"scatter"`
}

// Defaults used when no tuning file is supplied.
var (
	DefaultSlopeLimits     = SlopeLimits{X: 0.7, Y: 0.7}
	DefaultToleranceLimits = ToleranceLimits{X: 0.4, Y: 0.4, Scatter: 0.4}
)

// AreCompatible reports whether h0 and h1 could belong to the same
// straight track given the slope limits. The test only uses absolute
// differences so argument order does not matter. Two hits on the same z
// are never compatible because the bound collapses to zero.
func AreCompatible(h0, h1 Point, lim SlopeLimits) bool {
	x0, y0, z0 := h0.Position()
	x1, y1, z1 := h1.Position()

	dz := math.Abs(z1 - z0)
	return math.Abs(x1-x0) < lim.X*dz && math.Abs(y1-y0) < lim.Y*dz
}

// CheckTolerance extrapolates the line through h0 and h1 to the z of h2
// and accepts h2 when both residuals and the scatter metric
// (dx²+dy²)/(z2−z1)² are under their limits.
//
// If h0 and h1, or h1 and h2, share a z the local model is undefined and
// the hit is rejected, as is any non-finite intermediate value.
func CheckTolerance(h0, h1, h2 Point, lim ToleranceLimits) bool {
	x0, y0, z0 := h0.Position()
	x1, y1, z1 := h1.Position()
	x2, y2, z2 := h2.Position()

	if z1 == z0 || z2 == z1 {
		return false
	}

	td := 1.0 / (z1 - z0)
	tx := (x1 - x0) * td
	ty := (y1 - y0) * td

	dz := z2 - z0
	dx := math.Abs(x0 + tx*dz - x2)
	dy := math.Abs(y0 + ty*dz - y2)

	sd := 1.0 / (z2 - z1)
	scatter := (dx*dx + dy*dy) * sd * sd

	// NaN fails every comparison below, Inf fails the strict bounds.
	return dx < lim.X && dy < lim.Y && scatter < lim.Scatter
}
