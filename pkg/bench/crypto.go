package bench

import (
	"io"

	"github.com/taurusgroup/node-benchmark/internal/elgamal"
	"github.com/taurusgroup/node-benchmark/internal/hash"
	"github.com/taurusgroup/node-benchmark/pkg/clique"
	"github.com/taurusgroup/node-benchmark/pkg/math/curve"
	"github.com/taurusgroup/node-benchmark/pkg/pool"
	"github.com/taurusgroup/node-benchmark/pkg/uciv"
	zkcai "github.com/taurusgroup/node-benchmark/pkg/zk/cai"
	zkmember "github.com/taurusgroup/node-benchmark/pkg/zk/member"
)

// Ledger is the protocol state ballots are submitted to.
type Ledger interface {
	Handle(msg clique.Message) error
	// MarshalBinary returns the canonical encoding of the whole state.
	MarshalBinary() ([]byte, error)
}

// VotingCrypto builds the keys, anonymity set, ballots and proofs of a run.
type VotingCrypto interface {
	GenerateKeys() (*KeyPair, error)
	GenerateUCIV(numberVoters, numberOptions int, public elgamal.PublicKey) (*uciv.UCIV, error)
	Encrypt(public elgamal.PublicKey, message curve.Scalar) (*elgamal.Ciphertext, elgamal.Nonce, error)
	ProveMembership(public zkmember.Public, private zkmember.Private) (*zkmember.Proof, error)
	ProveCai(public zkcai.Public, private zkcai.Private) (*zkcai.Proof, error)
}

// KeyPair is the election encryption key.
type KeyPair struct {
	Secret *elgamal.SecretKey
	Public elgamal.PublicKey
}

// Crypto implements VotingCrypto with ElGamal over group and Fiat-Shamir proofs.
type Crypto struct {
	group curve.Curve
	rand  io.Reader
	pl    *pool.Pool
}

// NewCrypto returns a VotingCrypto sampling its randomness from rand.
// The anonymity set is generated on pl, which may be nil.
func NewCrypto(group curve.Curve, rand io.Reader, pl *pool.Pool) *Crypto {
	return &Crypto{
		group: group,
		rand:  pool.NewLockedReader(rand),
		pl:    pl,
	}
}

func (c *Crypto) GenerateKeys() (*KeyPair, error) {
	secret, public := elgamal.GenerateKey(c.rand, c.group)
	return &KeyPair{Secret: secret, Public: public}, nil
}

func (c *Crypto) GenerateUCIV(numberVoters, numberOptions int, public elgamal.PublicKey) (*uciv.UCIV, error) {
	return uciv.Generate(c.rand, numberVoters, numberOptions, public, c.pl)
}

func (c *Crypto) Encrypt(public elgamal.PublicKey, message curve.Scalar) (*elgamal.Ciphertext, elgamal.Nonce, error) {
	ct, nonce := elgamal.EncryptWithReader(c.rand, public, message)
	return ct, nonce, nil
}

func (c *Crypto) ProveMembership(public zkmember.Public, private zkmember.Private) (*zkmember.Proof, error) {
	return zkmember.NewProof(hash.New(), public, private)
}

func (c *Crypto) ProveCai(public zkcai.Public, private zkcai.Private) (*zkcai.Proof, error) {
	return zkcai.NewProof(hash.New(), public, private)
}
