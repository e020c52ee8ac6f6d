package bench

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/node-benchmark/internal/elgamal"
	"github.com/taurusgroup/node-benchmark/pkg/clique"
	"github.com/taurusgroup/node-benchmark/pkg/uciv"
	"github.com/taurusgroup/node-benchmark/pkg/vote"
	zkcai "github.com/taurusgroup/node-benchmark/pkg/zk/cai"
	zkmember "github.com/taurusgroup/node-benchmark/pkg/zk/member"
)

// ErrOptionMismatch is returned when a voter's anonymity set entry does not cover every option.
var ErrOptionMismatch = errors.New("bench: anonymity set does not match the voting options")

// Ballot is an encrypted vote together with its proofs.
type Ballot struct {
	VoterIdx   int
	Ciphertext *elgamal.Ciphertext
	Membership *zkmember.Proof
	Cai        *zkcai.Proof
}

// Transaction assembles the ballot into a transaction.
func (b *Ballot) Transaction() *clique.Transaction {
	return clique.NewTransaction(uint64(b.VoterIdx), b.Ciphertext, b.Membership, b.Cai)
}

// Synthesizer builds ballots for the voters of an anonymity set.
//
// Synthesize may be called concurrently as long as Crypto allows it.
type Synthesizer struct {
	Crypto    VotingCrypto
	PublicKey elgamal.PublicKey
	Options   *vote.Options
	UCIV      *uciv.UCIV
}

// Synthesize encrypts value for voter voterIdx and proves the ballot.
//
// An unknown value or voter is rejected before any encryption happens.
func (s *Synthesizer) Synthesize(voterIdx int, value int64) (*Ballot, error) {
	k, err := s.Options.Position(value)
	if err != nil {
		return nil, fmt.Errorf("bench: voter %d: %w", voterIdx, err)
	}
	pre, img, err := s.UCIV.Voter(voterIdx)
	if err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}
	if len(img) != s.Options.Len() || len(pre) != s.Options.Len() {
		return nil, fmt.Errorf("%w: voter %d has %d entries for %d options", ErrOptionMismatch, voterIdx, len(img), s.Options.Len())
	}

	ct, nonce, err := s.Crypto.Encrypt(s.PublicKey, s.Options.Scalar(k))
	if err != nil {
		return nil, fmt.Errorf("bench: voter %d: encrypt: %w", voterIdx, err)
	}
	membership, err := s.Crypto.ProveMembership(
		zkmember.Public{Ciphertext: ct, PublicKey: s.PublicKey, Options: s.Options},
		zkmember.Private{Index: k, Nonce: nonce},
	)
	if err != nil {
		return nil, fmt.Errorf("bench: voter %d: membership proof: %w", voterIdx, err)
	}
	cai, err := s.Crypto.ProveCai(
		zkcai.Public{Ciphertext: ct, PublicKey: s.PublicKey, Options: s.Options, Images: img},
		zkcai.Private{Index: k, Nonce: nonce, PreImages: pre},
	)
	if err != nil {
		return nil, fmt.Errorf("bench: voter %d: cai proof: %w", voterIdx, err)
	}
	return &Ballot{
		VoterIdx:   voterIdx,
		Ciphertext: ct,
		Membership: membership,
		Cai:        cai,
	}, nil
}
