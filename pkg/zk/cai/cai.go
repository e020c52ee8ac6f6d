// Package zkcai implements the cast-as-intended proof tying a ballot to a voter's anonymity set entry.
//
// For every voting option j, the prover shows
//
//	(C encrypts vⱼ) ∨ (the prover knows xⱼ such that Yⱼ = xⱼ⋅G)
//
// with Y the voter's image set. The chosen option is proven through the
// encryption nonce, every other option through its pre-image. All branches of
// an option share the Fiat-Shamir challenge e, split as e = cᴱ + cᴾ.
package zkcai

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/taurusgroup/node-benchmark/internal/elgamal"
	"github.com/taurusgroup/node-benchmark/internal/hash"
	"github.com/taurusgroup/node-benchmark/pkg/math/curve"
	"github.com/taurusgroup/node-benchmark/pkg/math/sample"
	"github.com/taurusgroup/node-benchmark/pkg/uciv"
	"github.com/taurusgroup/node-benchmark/pkg/vote"
)

type Public struct {
	// C = (L=r⋅G, M=vₖ⋅G+r⋅X)
	Ciphertext *elgamal.Ciphertext

	// PublicKey = X
	PublicKey elgamal.PublicKey

	// Options = {v₀, …, vₙ₋₁}
	Options *vote.Options

	// Images = {Y₀, …, Yₙ₋₁}
	Images uciv.ImageSet
}

type Private struct {
	// Index = k
	Index int

	// Nonce = r
	Nonce elgamal.Nonce

	// PreImages = {x₀, …, xₙ₋₁}
	PreImages uciv.PreImageSet
}

type Commitment struct {
	// A = w⋅G
	A curve.Point

	// B = w⋅X
	B curve.Point

	// T = u⋅G
	T curve.Point
}

type Response struct {
	// CE is the challenge share of the encryption branch, CP = e - CE
	CE curve.Scalar

	// Z = w+cᴱ⋅r (mod q)
	Z curve.Scalar

	// S = u+cᴾ⋅xⱼ (mod q)
	S curve.Scalar
}

type Proof struct {
	Commitments []Commitment
	Responses   []Response
}

func (p *Proof) IsValid(public Public) bool {
	if p == nil || public.Options == nil {
		return false
	}
	n := public.Options.Len()
	if len(p.Commitments) != n || len(p.Responses) != n || len(public.Images) != n {
		return false
	}
	for j := 0; j < n; j++ {
		c, r := p.Commitments[j], p.Responses[j]
		if c.A == nil || c.B == nil || c.T == nil || r.CE == nil || r.Z == nil || r.S == nil {
			return false
		}
		if c.A.IsIdentity() || c.B.IsIdentity() || c.T.IsIdentity() {
			return false
		}
	}
	return true
}

// NewProof creates a proof that public.Ciphertext encrypts option private.Index,
// on behalf of the owner of public.Images.
func NewProof(hash *hash.Hash, public Public, private Private) (*Proof, error) {
	if !public.Ciphertext.Valid() {
		return nil, errors.New("zkcai: invalid ciphertext")
	}
	if public.Options == nil {
		return nil, errors.New("zkcai: nil options")
	}
	n := public.Options.Len()
	k := private.Index
	if k < 0 || k >= n {
		return nil, fmt.Errorf("zkcai: option index %d not in [0, %d)", k, n)
	}
	if len(public.Images) != n || len(private.PreImages) != n {
		return nil, fmt.Errorf("zkcai: anonymity set entry has %d images and %d pre-images, expected %d",
			len(public.Images), len(private.PreImages), n)
	}
	group := public.PublicKey.Curve()

	commitments := make([]Commitment, n)
	responses := make([]Response, n)
	// simulated challenge share of every option
	simulated := make([]curve.Scalar, n)
	// nonces of the honest branches
	nonces := make([]curve.Scalar, n)

	for j := 0; j < n; j++ {
		c := sample.Scalar(rand.Reader, group)
		nonce := sample.Scalar(rand.Reader, group)
		simulated[j], nonces[j] = c, nonce
		if j == k {
			// honest encryption branch, simulated pre-image branch
			s := sample.Scalar(rand.Reader, group)
			commitments[j] = Commitment{
				A: nonce.ActOnBase(),                          // A = w⋅G
				B: nonce.Act(public.PublicKey),                // B = w⋅X
				T: s.ActOnBase().Sub(c.Act(public.Images[j])), // T = s⋅G-cᴾ⋅Yⱼ
			}
			responses[j] = Response{S: s}
		} else {
			// simulated encryption branch, honest pre-image branch
			z := sample.Scalar(rand.Reader, group)
			shifted := public.Ciphertext.Shift(public.Options.Point(j))
			commitments[j] = Commitment{
				A: z.ActOnBase().Sub(c.Act(shifted.L)),           // A = z⋅G-cᴱ⋅L
				B: z.Act(public.PublicKey).Sub(c.Act(shifted.M)), // B = z⋅X-cᴱ⋅(M-vⱼ⋅G)
				T: nonce.ActOnBase(),                             // T = u⋅G
			}
			responses[j] = Response{CE: c, Z: z}
		}
	}

	e, err := challenge(hash, group, public, commitments)
	if err != nil {
		return nil, fmt.Errorf("zkcai: %w", err)
	}

	for j := 0; j < n; j++ {
		// the honest branch takes whatever is left of e
		honest := group.NewScalar().Set(e).Sub(simulated[j])
		if j == k {
			responses[j].CE = honest
			responses[j].Z = group.NewScalar().Set(honest).Mul(private.Nonce).Add(nonces[j]) // Z = w+cᴱ⋅r
		} else {
			responses[j].S = group.NewScalar().Set(honest).Mul(private.PreImages[j]).Add(nonces[j]) // S = u+cᴾ⋅xⱼ
		}
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

	for j := range p.Commitments {
		com, res := p.Commitments[j], p.Responses[j]
		cE := res.CE
		cP := group.NewScalar().Set(e).Sub(cE)
		shifted := public.Ciphertext.Shift(public.Options.Point(j))
		{
			lhs := res.Z.ActOnBase()            // lhs = z⋅G
			rhs := cE.Act(shifted.L).Add(com.A) // rhs = A+cᴱ⋅L
			if !lhs.Equal(rhs) {
				return false
			}
		}
		{
			lhs := res.Z.Act(public.PublicKey)  // lhs = z⋅X
			rhs := cE.Act(shifted.M).Add(com.B) // rhs = B+cᴱ⋅(M-vⱼ⋅G)
			if !lhs.Equal(rhs) {
				return false
			}
		}
		{
			lhs := res.S.ActOnBase()                   // lhs = s⋅G
			rhs := cP.Act(public.Images[j]).Add(com.T) // rhs = T+cᴾ⋅Yⱼ
			if !lhs.Equal(rhs) {
				return false
			}
		}
	}
	return true
}

func challenge(hash *hash.Hash, group curve.Curve, public Public, commitments []Commitment) (e curve.Scalar, err error) {
	if err = hash.WriteAny(public.Ciphertext, public.PublicKey); err != nil {
		return
	}
	for j, c := range commitments {
		if err = hash.WriteAny(public.Options.Point(j), public.Images[j], c.A, c.B, c.T); err != nil {
			return
		}
	}
	e = sample.Scalar(hash.Digest(), group)
	return
}
