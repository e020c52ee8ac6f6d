package curve

import (
	"encoding"

	"github.com/cronokirby/saferith"
)

// Curve represents the group over which the voting cryptosystem operates.
type Curve interface {
	// NewPoint returns the identity element of the group.
	NewPoint() Point
	// NewBasePoint returns the standard generator G.
	NewBasePoint() Point
	// NewScalar returns 0.
	NewScalar() Scalar
	// Name returns the name of this group.
	Name() string
	// ScalarBits returns the number of significant bits in a scalar.
	ScalarBits() int
	// SafeScalarBytes returns the number of random bytes to sample a scalar with negligible bias.
	SafeScalarBytes() int
	// Order returns the order of this group.
	Order() *saferith.Modulus
}

// Scalar represents an element of the field ℤ/qℤ, with q the order of the group.
//
// Arithmetic methods modify the receiver and return it, so calls can be chained.
type Scalar interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	Curve() Curve
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Negate() Scalar
	Mul(Scalar) Scalar
	Invert() Scalar
	Equal(Scalar) bool
	IsZero() bool
	Set(Scalar) Scalar
	SetNat(*saferith.Nat) Scalar
	// Act returns s⋅P.
	Act(Point) Point
	// ActOnBase returns s⋅G.
	ActOnBase() Point
}

// Point represents an element of the group.
//
// Unlike Scalar, arithmetic on points returns a new value.
type Point interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	Curve() Curve
	Add(Point) Point
	Sub(Point) Point
	Negate() Point
	Set(Point) Point
	Equal(Point) bool
	IsIdentity() bool
}

// FromHash converts a hash value to a Scalar.
//
// The hash is truncated to the bit-length of the group order, and excess bits
// are right shifted, following what crypto/ecdsa does.
func FromHash(group Curve, h []byte) Scalar {
	order := group.Order()
	orderBits := order.BitLen()
	orderBytes := (orderBits + 7) / 8
	if len(h) > orderBytes {
		h = h[:orderBytes]
	}
	s := new(saferith.Nat).SetBytes(h)
	excess := len(h)*8 - orderBits
	if excess > 0 {
		s.Rsh(s, uint(excess), -1)
	}
	return group.NewScalar().SetNat(s)
}
