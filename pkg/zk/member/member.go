// Package zkmember proves that an ElGamal ciphertext encrypts one of a fixed set of values,
// without revealing which one.
//
// This is a disjunction of Chaum-Pedersen proofs: the branch of the actual
// value is proven honestly, every other branch is simulated, and the
// challenges of all branches must sum to the Fiat-Shamir challenge.
package zkmember

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/taurusgroup/node-benchmark/internal/elgamal"
	"github.com/taurusgroup/node-benchmark/internal/hash"
	"github.com/taurusgroup/node-benchmark/pkg/math/curve"
	"github.com/taurusgroup/node-benchmark/pkg/math/sample"
	"github.com/taurusgroup/node-benchmark/pkg/vote"
)

type Public struct {
	// C = (L=r⋅G, M=vₖ⋅G+r⋅X)
	Ciphertext *elgamal.Ciphertext

	// PublicKey = X
	PublicKey elgamal.PublicKey

	// Options = {v₀, …, vₙ₋₁}
	Options *vote.Options
}

type Private struct {
	// Index = k, the position of the encrypted value in Options
	Index int

	// Nonce = r
	Nonce elgamal.Nonce
}

type Commitment struct {
	// A = w⋅G
	A curve.Point

	// B = w⋅X
	B curve.Point
}

type Response struct {
	// C is the challenge share of this branch
	C curve.Scalar

	// Z = w+c⋅r (mod q)
	Z curve.Scalar
}

type Proof struct {
	Commitments []Commitment
	Responses   []Response
}

// IsValid checks the shape of the proof against the public statement.
func (p *Proof) IsValid(public Public) bool {
	if p == nil || public.Options == nil {
		return false
	}
	n := public.Options.Len()
	if len(p.Commitments) != n || len(p.Responses) != n {
		return false
	}
	for j := 0; j < n; j++ {
		if p.Commitments[j].A == nil || p.Commitments[j].B == nil ||
			p.Responses[j].C == nil || p.Responses[j].Z == nil {
			return false
		}
		if p.Commitments[j].A.IsIdentity() || p.Commitments[j].B.IsIdentity() {
			return false
		}
	}
	return true
}

// NewProof proves that public.Ciphertext encrypts public.Options[private.Index].
func NewProof(hash *hash.Hash, public Public, private Private) (*Proof, error) {
	if !public.Ciphertext.Valid() {
		return nil, errors.New("zkmember: invalid ciphertext")
	}
	if public.Options == nil {
		return nil, errors.New("zkmember: nil options")
	}
	n := public.Options.Len()
	k := private.Index
	if k < 0 || k >= n {
		return nil, fmt.Errorf("zkmember: option index %d not in [0, %d)", k, n)
	}
	group := public.PublicKey.Curve()

	commitments := make([]Commitment, n)
	responses := make([]Response, n)

	// simulate every branch but the real one
	sum := group.NewScalar()
	for j := 0; j < n; j++ {
		if j == k {
			continue
		}
		c := sample.Scalar(rand.Reader, group)
		z := sample.Scalar(rand.Reader, group)
		shifted := public.Ciphertext.Shift(public.Options.Point(j))
		commitments[j] = Commitment{
			A: z.ActOnBase().Sub(c.Act(shifted.L)),          // A = z⋅G-c⋅L
			B: z.Act(public.PublicKey).Sub(c.Act(shifted.M)), // B = z⋅X-c⋅(M-vⱼ⋅G)
		}
		responses[j] = Response{C: c, Z: z}
		sum.Add(c)
	}

	w := sample.Scalar(rand.Reader, group)
	commitments[k] = Commitment{
		A: w.ActOnBase(),           // A = w⋅G
		B: w.Act(public.PublicKey), // B = w⋅X
	}

	e, err := challenge(hash, group, public, commitments)
	if err != nil {
		return nil, fmt.Errorf("zkmember: %w", err)
	}
	ck := group.NewScalar().Set(e).Sub(sum)
	responses[k] = Response{
		C: ck,
		Z: group.NewScalar().Set(ck).Mul(private.Nonce).Add(w), // Z = w+c⋅r (mod q)
	}

	return &Proof{
		Commitments: commitments,
		Responses:   responses,
	}, nil
}

func (p *Proof) Verify(hash *hash.Hash, public Public) bool {
	if !p.IsValid(public) || !public.Ciphertext.Valid() || public.PublicKey == nil {
		return false
	}
	group := public.PublicKey.Curve()

	e, err := challenge(hash, group, public, p.Commitments)
	if err != nil {
		return false
	}

	sum := group.NewScalar()
	for j := range p.Commitments {
		c, z := p.Responses[j].C, p.Responses[j].Z
		shifted := public.Ciphertext.Shift(public.Options.Point(j))
		{
			lhs := z.ActOnBase()                            // lhs = z⋅G
			rhs := c.Act(shifted.L).Add(p.Commitments[j].A) // rhs = A+c⋅L
			if !lhs.Equal(rhs) {
				return false
			}
		}
		{
			lhs := z.Act(public.PublicKey)                  // lhs = z⋅X
			rhs := c.Act(shifted.M).Add(p.Commitments[j].B) // rhs = B+c⋅(M-vⱼ⋅G)
			if !lhs.Equal(rhs) {
				return false
			}
		}
		sum.Add(c)
	}
	return sum.Equal(e)
}

func challenge(hash *hash.Hash, group curve.Curve, public Public, commitments []Commitment) (e curve.Scalar, err error) {
	if err = hash.WriteAny(public.Ciphertext, public.PublicKey); err != nil {
		return
	}
	for j, c := range commitments {
		if err = hash.WriteAny(public.Options.Point(j), c.A, c.B); err != nil {
			return
		}
	}
	e = sample.Scalar(hash.Digest(), group)
	return
}
