package clique

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/taurusgroup/node-benchmark/internal/elgamal"
	zkcai "github.com/taurusgroup/node-benchmark/pkg/zk/cai"
	zkmember "github.com/taurusgroup/node-benchmark/pkg/zk/member"
	"golang.org/x/crypto/sha3"
)

// Transaction is a single anonymous ballot.
//
// VoterIdx is the position of the voter's entry in the genesis anonymity set,
// not an identity.
type Transaction struct {
	VoterIdx        uint64
	CipherText      *elgamal.Ciphertext
	MembershipProof *zkmember.Proof
	CaiProof        *zkcai.Proof
}

// NewTransaction bundles a ballot and its proofs.
func NewTransaction(voterIdx uint64, ct *elgamal.Ciphertext, membership *zkmember.Proof, cai *zkcai.Proof) *Transaction {
	return &Transaction{
		VoterIdx:        voterIdx,
		CipherText:      ct,
		MembershipProof: membership,
		CaiProof:        cai,
	}
}

// Valid checks that all parts of the transaction are present.
// Proofs are not verified.
func (tx *Transaction) Valid() bool {
	return tx != nil && tx.CipherText.Valid() && tx.MembershipProof != nil && tx.CaiProof != nil
}

// transactionMarshal has the fields of Transaction without its MarshalBinary method.
type transactionMarshal Transaction

// MarshalBinary returns the canonical encoding of tx.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	return encMode.Marshal((*transactionMarshal)(tx))
}

// Hash returns the SHA3-256 digest of the canonical encoding of tx.
func (tx *Transaction) Hash() (common.Hash, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("clique: transaction %d: %w", tx.VoterIdx, err)
	}
	return sha3.Sum256(data), nil
}
