package arith

import (
	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/node-benchmark/pkg/math/curve"
)

// NewModInt returns v mod q as a scalar of group.
//
// Negative values wrap around, so NewModInt(group, -1) is q-1.
func NewModInt(group curve.Curve, v int64) curve.Scalar {
	abs := uint64(v)
	if v < 0 {
		abs = uint64(-v)
	}
	s := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(abs))
	if v < 0 {
		s.Negate()
	}
	return s
}
