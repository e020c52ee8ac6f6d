package clique

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Header is the signed part of a block.
type Header struct {
	Number     uint64
	ParentHash common.Hash
	Time       uint64
	Sealer     common.Address
	// TxRoot commits to the transactions of the block, in order.
	TxRoot common.Hash
}

// Hash returns the keccak256 digest of the canonical encoding of h.
func (h *Header) Hash() (common.Hash, error) {
	data, err := encMode.Marshal(h)
	if err != nil {
		return common.Hash{}, fmt.Errorf("clique: header %d: %w", h.Number, err)
	}
	return crypto.Keccak256Hash(data), nil
}

// Block is a sealed batch of transactions.
type Block struct {
	Header       Header
	Signature    []byte
	Transactions []*Transaction
}

// txRoot hashes the transaction hashes of txs in order.
func txRoot(txs []*Transaction) (common.Hash, error) {
	hashes := make([][]byte, 0, len(txs))
	for _, tx := range txs {
		h, err := tx.Hash()
		if err != nil {
			return common.Hash{}, err
		}
		hashes = append(hashes, h.Bytes())
	}
	return crypto.Keccak256Hash(hashes...), nil
}

// sign sets the header sealer and signature using key.
func (b *Block) sign(key *ecdsa.PrivateKey) error {
	b.Header.Sealer = crypto.PubkeyToAddress(key.PublicKey)
	h, err := b.Header.Hash()
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(h.Bytes(), key)
	if err != nil {
		return fmt.Errorf("clique: sign block %d: %w", b.Header.Number, err)
	}
	b.Signature = sig
	return nil
}

// Signer recovers the address that signed the block.
func (b *Block) Signer() (common.Address, error) {
	if len(b.Signature) != crypto.SignatureLength {
		return common.Address{}, errors.New("clique: missing block signature")
	}
	h, err := b.Header.Hash()
	if err != nil {
		return common.Address{}, err
	}
	pub, err := crypto.SigToPub(h.Bytes(), b.Signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("clique: recover block %d signer: %w", b.Header.Number, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
