// Package uciv generates the per-voter anonymity set used by cast-as-intended proofs.
//
// Every voter owns one secret pre-image xⱼ per voting option; the matching
// images Yⱼ = xⱼ⋅G are public and registered in the genesis configuration.
package uciv

import (
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/node-benchmark/internal/elgamal"
	"github.com/taurusgroup/node-benchmark/pkg/math/curve"
	"github.com/taurusgroup/node-benchmark/pkg/math/sample"
	"github.com/taurusgroup/node-benchmark/pkg/pool"
)

var ErrVoterOutOfRange = errors.New("uciv: voter index out of range")

// PreImageSet holds the secret pre-images of a single voter, one per voting option.
type PreImageSet []curve.Scalar

// ImageSet holds the public images of a single voter, one per voting option.
type ImageSet []curve.Point

// UCIV is the anonymity set of a whole voter population.
//
// Public[i] and Private[i] always belong to the same voter.
type UCIV struct {
	Public  []ImageSet
	Private []PreImageSet
}

// Generate samples an anonymity set for numberVoters voters with numberOptions options each.
//
// The public key fixes the group the set lives in.
// Voters are generated on pl when it is not nil, in which case rand must be safe for concurrent use.
func Generate(rand io.Reader, numberVoters, numberOptions int, public elgamal.PublicKey, pl *pool.Pool) (*UCIV, error) {
	if numberVoters <= 0 {
		return nil, fmt.Errorf("uciv: number of voters must be positive, got %d", numberVoters)
	}
	if numberOptions <= 0 {
		return nil, fmt.Errorf("uciv: number of voting options must be positive, got %d", numberOptions)
	}
	if public == nil {
		return nil, errors.New("uciv: nil public key")
	}
	group := public.Curve()

	type entry struct {
		pre PreImageSet
		img ImageSet
	}
	entries := pl.Parallelize(numberVoters, func(int) interface{} {
		e := entry{
			pre: make(PreImageSet, numberOptions),
			img: make(ImageSet, numberOptions),
		}
		for j := 0; j < numberOptions; j++ {
			e.pre[j], e.img[j] = sample.ScalarPointPair(rand, group)
		}
		return e
	})

	u := &UCIV{
		Public:  make([]ImageSet, numberVoters),
		Private: make([]PreImageSet, numberVoters),
	}
	for i, e := range entries {
		e := e.(entry)
		u.Private[i], u.Public[i] = e.pre, e.img
	}
	return u, nil
}

// Len returns the number of voters.
func (u *UCIV) Len() int {
	return len(u.Public)
}

// Voter returns the paired entries of voter idx.
func (u *UCIV) Voter(idx int) (PreImageSet, ImageSet, error) {
	if idx < 0 || idx >= len(u.Public) || idx >= len(u.Private) {
		return nil, nil, fmt.Errorf("%w: %d not in [0, %d)", ErrVoterOutOfRange, idx, len(u.Public))
	}
	return u.Private[idx], u.Public[idx], nil
}

// Matches reports whether every image is the image of the corresponding pre-image.
func (s ImageSet) Matches(pre PreImageSet) bool {
	if len(s) != len(pre) {
		return false
	}
	for j := range s {
		if !pre[j].ActOnBase().Equal(s[j]) {
			return false
		}
	}
	return true
}
