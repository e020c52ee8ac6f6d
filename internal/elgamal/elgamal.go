package elgamal

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/taurusgroup/node-benchmark/pkg/math/curve"
	"github.com/taurusgroup/node-benchmark/pkg/math/sample"
)

type (
	PublicKey = curve.Point
	Nonce     = curve.Scalar
)

// SecretKey is the private half of an ElGamal key pair.
type SecretKey struct {
	x curve.Scalar
}

// GenerateKey samples a fresh key pair (x, X = x⋅G).
func GenerateKey(rand io.Reader, group curve.Curve) (*SecretKey, PublicKey) {
	x, X := sample.ScalarPointPair(rand, group)
	return &SecretKey{x: x}, X
}

// Public returns X = x⋅G.
func (sk *SecretKey) Public() PublicKey {
	return sk.x.ActOnBase()
}

// Decrypt returns message⋅G.
//
// Recovering the message itself requires a discrete log, which is only
// feasible for the small vote values used here, so the point is returned as is.
func (sk *SecretKey) Decrypt(c *Ciphertext) curve.Point {
	// M - x⋅L = m⋅G + r⋅X - x⋅r⋅G
	return c.M.Sub(sk.x.Act(c.L))
}

type Ciphertext struct {
	// L = nonce⋅G
	L curve.Point
	// M = message⋅G + nonce⋅public
	M curve.Point
}

// Empty returns a ciphertext with both components set to the identity, ready for unmarshalling.
func Empty(group curve.Curve) *Ciphertext {
	return &Ciphertext{
		L: group.NewPoint(),
		M: group.NewPoint(),
	}
}

// Encrypt returns the encryption of `message` as (L=nonce⋅G, M=message⋅G + nonce⋅public), as well as the `nonce`.
func Encrypt(public PublicKey, message curve.Scalar) (*Ciphertext, Nonce) {
	return EncryptWithReader(rand.Reader, public, message)
}

// EncryptWithReader is Encrypt with the nonce sampled from rand.
func EncryptWithReader(rand io.Reader, public PublicKey, message curve.Scalar) (*Ciphertext, Nonce) {
	group := public.Curve()
	nonce := sample.Scalar(rand, group)
	L := nonce.ActOnBase()
	M := message.ActOnBase().Add(nonce.Act(public))
	return &Ciphertext{
		L: L,
		M: M,
	}, nonce
}

// Shift returns (L, M - p).
//
// If c encrypts m and p = m⋅G, the result is an encryption of 0, i.e. M - p = nonce⋅public.
func (c *Ciphertext) Shift(p curve.Point) *Ciphertext {
	return &Ciphertext{
		L: c.L,
		M: c.M.Sub(p),
	}
}

func (c *Ciphertext) Valid() bool {
	if c == nil || c.L == nil || c.L.IsIdentity() ||
		c.M == nil || c.M.IsIdentity() {
		return false
	}
	return true
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (c *Ciphertext) WriteTo(w io.Writer) (int64, error) {
	if c == nil || c.L == nil || c.M == nil {
		return 0, errors.New("elgamal: nil ciphertext")
	}
	var (
		total int64
		n     int
	)

	buf, err := c.L.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err = w.Write(buf)
	total += int64(n)
	if err != nil {
		return total, err
	}

	buf, err = c.M.MarshalBinary()
	if err != nil {
		return total, err
	}
	n, err = w.Write(buf)
	total += int64(n)
	if err != nil {
		return total, err
	}

	return total, nil
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (*Ciphertext) Domain() string {
	return "ElGamal Ciphertext"
}
