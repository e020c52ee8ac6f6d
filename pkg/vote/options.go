// Package vote holds the ordered set of plaintext values a ballot may encrypt.
package vote

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/node-benchmark/pkg/math/arith"
	"github.com/taurusgroup/node-benchmark/pkg/math/curve"
)

var (
	// ErrUnknownOption is returned when a value is not part of the option set.
	ErrUnknownOption = errors.New("vote: value is not a voting option")
	// ErrNoOptions is returned when an option set would be empty.
	ErrNoOptions = errors.New("vote: no voting options")
)

// Options is an ordered set of allowed vote values.
//
// The position of a value in the set is the index proofs refer to.
type Options struct {
	group   curve.Curve
	values  []int64
	scalars []curve.Scalar
}

// NewOptions creates an option set for the given values, in order.
// Duplicate values are rejected.
func NewOptions(group curve.Curve, values ...int64) (*Options, error) {
	if len(values) == 0 {
		return nil, ErrNoOptions
	}
	o := &Options{
		group:   group,
		values:  make([]int64, 0, len(values)),
		scalars: make([]curve.Scalar, 0, len(values)),
	}
	for _, v := range values {
		if _, err := o.Position(v); err == nil {
			return nil, fmt.Errorf("vote: duplicate option %d", v)
		}
		o.values = append(o.values, v)
		o.scalars = append(o.scalars, arith.NewModInt(group, v))
	}
	return o, nil
}

// Position returns the index of value within the set.
func (o *Options) Position(value int64) (int, error) {
	for i, v := range o.values {
		if v == value {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %d", ErrUnknownOption, value)
}

// Scalar returns the i-th option as a group scalar.
func (o *Options) Scalar(i int) curve.Scalar {
	return o.group.NewScalar().Set(o.scalars[i])
}

// Point returns vᵢ⋅G.
func (o *Options) Point(i int) curve.Point {
	return o.scalars[i].ActOnBase()
}

// Values returns a copy of the option values.
func (o *Options) Values() []int64 {
	return append([]int64(nil), o.values...)
}

func (o *Options) Len() int {
	return len(o.values)
}

func (o *Options) Group() curve.Curve {
	return o.group
}
