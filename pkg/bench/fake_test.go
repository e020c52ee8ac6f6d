package bench

import (
	"errors"
	"sync/atomic"

	"github.com/taurusgroup/node-benchmark/internal/elgamal"
	"github.com/taurusgroup/node-benchmark/pkg/clique"
	"github.com/taurusgroup/node-benchmark/pkg/math/arith"
	"github.com/taurusgroup/node-benchmark/pkg/math/curve"
	"github.com/taurusgroup/node-benchmark/pkg/uciv"
	zkcai "github.com/taurusgroup/node-benchmark/pkg/zk/cai"
	zkmember "github.com/taurusgroup/node-benchmark/pkg/zk/member"
)

var errFake = errors.New("fake failure")

// fakeCrypto returns small deterministic values instead of running any proof.
type fakeCrypto struct {
	group    curve.Curve
	encrypts int64
	proofs   int64
	// short drops the last option of every voter in the anonymity set.
	short bool
}

func newFakeCrypto() *fakeCrypto {
	return &fakeCrypto{group: curve.Secp256k1{}}
}

func (c *fakeCrypto) GenerateKeys() (*KeyPair, error) {
	return &KeyPair{Public: c.group.NewBasePoint()}, nil
}

func (c *fakeCrypto) GenerateUCIV(numberVoters, numberOptions int, _ elgamal.PublicKey) (*uciv.UCIV, error) {
	if c.short {
		numberOptions--
	}
	u := &uciv.UCIV{
		Public:  make([]uciv.ImageSet, numberVoters),
		Private: make([]uciv.PreImageSet, numberVoters),
	}
	for i := range u.Public {
		for j := 0; j < numberOptions; j++ {
			x := arith.NewModInt(c.group, int64(i*numberOptions+j+1))
			u.Private[i] = append(u.Private[i], x)
			u.Public[i] = append(u.Public[i], x.ActOnBase())
		}
	}
	return u, nil
}

func (c *fakeCrypto) Encrypt(public elgamal.PublicKey, message curve.Scalar) (*elgamal.Ciphertext, elgamal.Nonce, error) {
	atomic.AddInt64(&c.encrypts, 1)
	nonce := arith.NewModInt(c.group, 1)
	return &elgamal.Ciphertext{
		L: nonce.ActOnBase(),
		M: message.ActOnBase().Add(public),
	}, nonce, nil
}

func (c *fakeCrypto) ProveMembership(zkmember.Public, zkmember.Private) (*zkmember.Proof, error) {
	atomic.AddInt64(&c.proofs, 1)
	return &zkmember.Proof{}, nil
}

func (c *fakeCrypto) ProveCai(zkcai.Public, zkcai.Private) (*zkcai.Proof, error) {
	atomic.AddInt64(&c.proofs, 1)
	return &zkcai.Proof{}, nil
}

// fakeLedger grows by a fixed amount per transaction and records what it sees.
type fakeLedger struct {
	voters []uint64
	sizes  []int
	// failAt makes the failAt-th submission fail, when positive.
	failAt        int
	failSerialize bool
}

const (
	fakeBase  = 100
	fakePerTx = 7
)

func (l *fakeLedger) Handle(msg clique.Message) error {
	if msg.Type != clique.MessageTransaction {
		return errFake
	}
	if l.failAt > 0 && len(l.voters)+1 == l.failAt {
		return errFake
	}
	l.voters = append(l.voters, msg.Transaction.VoterIdx)
	return nil
}

func (l *fakeLedger) MarshalBinary() ([]byte, error) {
	if l.failSerialize && len(l.voters) > 0 {
		return nil, errFake
	}
	// voter indices make the size depend on the content, not only the count
	size := fakeBase + fakePerTx*len(l.voters)
	for _, v := range l.voters {
		size += int(v % 3)
	}
	l.sizes = append(l.sizes, size)
	return make([]byte, size), nil
}
