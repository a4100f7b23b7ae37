package l1hits

import (
	"fmt"
	"strconv"
)

// Hit is one 3-D measurement. It is a value copied out of the Store and
// carries no mutable state.
type Hit struct {
	ID      int64
	X, Y, Z float64
}

// Position returns the hit coordinates. It satisfies l2predicates.Point.
func (h Hit) Position() (x, y, z float64) { return h.X, h.Y, h.Z }

// String formats the hit as "#id {x, y, z}".
func (h Hit) String() string {
	return fmt.Sprintf("#%d {%s, %s, %s}", h.ID, formatCoord(h.X), formatCoord(h.Y), formatCoord(h.Z))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
