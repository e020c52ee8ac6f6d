// Package clique implements the state of a single clique proof-of-authority node
// receiving anonymous ballots.
//
// Transactions are kept in a pending pool until an authorized sealer packs
// them into a signed block. The protocol never talks to the network; peers
// and local clients hand it messages through Handle.
package clique

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidTransaction = errors.New("clique: invalid transaction")
	ErrUnknownVoter       = errors.New("clique: voter index not in anonymity set")
	ErrDuplicateVoter     = errors.New("clique: voter already cast a ballot")
	ErrNotSealer          = errors.New("clique: not an authorized sealer")
	ErrRecentlySealed     = errors.New("clique: sealer signed recently")
	ErrBlockPeriod        = errors.New("clique: block period not elapsed")
	ErrNoPending          = errors.New("clique: no pending transactions to seal")
	ErrUnknownMessage     = errors.New("clique: unknown message type")
	ErrInvalidBlock       = errors.New("clique: invalid block")
)

// Identity is the identity of the local node.
type Identity struct {
	Key *ecdsa.PrivateKey
	// Endpoint is the network address peers reach the node at.
	Endpoint string
}

// NewIdentity generates a fresh node key.
func NewIdentity(endpoint string) (Identity, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return Identity{}, fmt.Errorf("clique: generate node key: %w", err)
	}
	return Identity{Key: key, Endpoint: endpoint}, nil
}

// Address returns the sealer address of the node.
func (id Identity) Address() common.Address {
	if id.Key == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(id.Key.PublicKey)
}

// Protocol is the state of a clique node.
type Protocol struct {
	mtx     sync.Mutex
	self    Identity
	genesis *Genesis
	chain   []*Block
	pending []*Transaction
	// voters contains every voter index that is pending or sealed.
	voters map[uint64]struct{}

	Log zerolog.Logger
}

// New creates the protocol state of node self, starting from genesis.
func New(self Identity, genesis *Genesis) (*Protocol, error) {
	if err := genesis.Validate(); err != nil {
		return nil, err
	}
	if self.Key == nil {
		return nil, errors.New("clique: node identity has no key")
	}
	p := &Protocol{
		self:    self,
		genesis: genesis,
		voters:  make(map[uint64]struct{}),
		Log:     zerolog.Nop(),
	}
	g, err := genesisBlock(genesis)
	if err != nil {
		return nil, err
	}
	p.chain = []*Block{g}
	return p, nil
}

// genesisBlock derives block 0 from the genesis configuration.
// It is deterministic, so two nodes with the same genesis agree on it.
func genesisBlock(genesis *Genesis) (*Block, error) {
	data, err := encMode.Marshal(genesis)
	if err != nil {
		return nil, fmt.Errorf("clique: encode genesis: %w", err)
	}
	return &Block{
		Header: Header{
			Number: 0,
			TxRoot: crypto.Keccak256Hash(data),
		},
	}, nil
}

// Handle applies a message to the state.
func (p *Protocol) Handle(msg Message) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	var err error
	switch msg.Type {
	case MessageTransaction:
		err = p.handleTransaction(msg.Transaction)
	case MessageBlock:
		err = p.handleBlock(msg.Block)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownMessage, msg.Type)
	}
	if err != nil {
		p.Log.Warn().Err(err).Stringer("msg", msg).Msg("failed to handle")
	}
	return err
}

func (p *Protocol) handleTransaction(tx *Transaction) error {
	if err := p.checkTransaction(tx); err != nil {
		return err
	}
	p.pending = append(p.pending, tx)
	p.voters[tx.VoterIdx] = struct{}{}
	return nil
}

func (p *Protocol) checkTransaction(tx *Transaction) error {
	if !tx.Valid() {
		return ErrInvalidTransaction
	}
	if tx.VoterIdx >= uint64(len(p.genesis.PublicUCIV)) {
		return fmt.Errorf("%w: %d", ErrUnknownVoter, tx.VoterIdx)
	}
	if _, ok := p.voters[tx.VoterIdx]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateVoter, tx.VoterIdx)
	}
	return nil
}

func (p *Protocol) handleBlock(b *Block) error {
	if b == nil {
		return fmt.Errorf("%w: nil block", ErrInvalidBlock)
	}
	head := p.chain[len(p.chain)-1]
	if b.Header.Number != head.Header.Number+1 {
		return fmt.Errorf("%w: number %d does not follow head %d", ErrInvalidBlock, b.Header.Number, head.Header.Number)
	}
	headHash, err := head.Header.Hash()
	if err != nil {
		return err
	}
	if b.Header.ParentHash != headHash {
		return fmt.Errorf("%w: unknown parent %s", ErrInvalidBlock, b.Header.ParentHash)
	}
	signer, err := b.Signer()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
	if signer != b.Header.Sealer {
		return fmt.Errorf("%w: signed by %s, sealer is %s", ErrInvalidBlock, signer, b.Header.Sealer)
	}
	if !p.genesis.IsSealer(signer) {
		return fmt.Errorf("%w: %s", ErrNotSealer, signer)
	}
	if p.sealedRecently(signer) {
		return fmt.Errorf("%w: %s", ErrRecentlySealed, signer)
	}
	root, err := txRoot(b.Transactions)
	if err != nil {
		return err
	}
	if root != b.Header.TxRoot {
		return fmt.Errorf("%w: transaction root mismatch", ErrInvalidBlock)
	}

	included := make(map[uint64]struct{}, len(b.Transactions))
	for _, tx := range b.Transactions {
		if !tx.Valid() {
			return ErrInvalidTransaction
		}
		if tx.VoterIdx >= uint64(len(p.genesis.PublicUCIV)) {
			return fmt.Errorf("%w: %d", ErrUnknownVoter, tx.VoterIdx)
		}
		if _, ok := included[tx.VoterIdx]; ok || p.isSealed(tx.VoterIdx) {
			return fmt.Errorf("%w: %d", ErrDuplicateVoter, tx.VoterIdx)
		}
		included[tx.VoterIdx] = struct{}{}
	}

	p.chain = append(p.chain, b)
	remaining := p.pending[:0]
	for _, tx := range p.pending {
		if _, ok := included[tx.VoterIdx]; !ok {
			remaining = append(remaining, tx)
		}
	}
	p.pending = remaining
	for idx := range included {
		p.voters[idx] = struct{}{}
	}
	p.Log.Debug().
		Uint64("number", b.Header.Number).
		Str("sealer", signer.Hex()).
		Int("transactions", len(b.Transactions)).
		Msg("imported block")
	return nil
}

// isSealed returns true if a sealed block already contains a ballot of voter idx.
func (p *Protocol) isSealed(idx uint64) bool {
	for _, b := range p.chain[1:] {
		for _, tx := range b.Transactions {
			if tx.VoterIdx == idx {
				return true
			}
		}
	}
	return false
}

// sealedRecently returns true if signer sealed one of the last SignerLimit blocks.
func (p *Protocol) sealedRecently(signer common.Address) bool {
	limit := p.genesis.Clique.SignerLimit
	for i := len(p.chain) - 1; i > 0 && limit > 0; i, limit = i-1, limit-1 {
		if p.chain[i].Header.Sealer == signer {
			return true
		}
	}
	return false
}

// Seal packs all pending transactions into a new block signed by this node, and applies it.
func (p *Protocol) Seal(now time.Time) (*Block, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	self := p.self.Address()
	if !p.genesis.IsSealer(self) {
		return nil, fmt.Errorf("%w: %s", ErrNotSealer, self)
	}
	if len(p.pending) == 0 {
		return nil, ErrNoPending
	}
	head := p.chain[len(p.chain)-1]
	ts := uint64(now.Unix())
	if head.Header.Number > 0 && ts < head.Header.Time+p.genesis.Clique.BlockPeriod {
		return nil, fmt.Errorf("%w: next block at %d", ErrBlockPeriod, head.Header.Time+p.genesis.Clique.BlockPeriod)
	}
	parent, err := head.Header.Hash()
	if err != nil {
		return nil, err
	}
	txs := append([]*Transaction(nil), p.pending...)
	root, err := txRoot(txs)
	if err != nil {
		return nil, err
	}
	b := &Block{
		Header: Header{
			Number:     head.Header.Number + 1,
			ParentHash: parent,
			Time:       ts,
			TxRoot:     root,
		},
		Transactions: txs,
	}
	if err = b.sign(p.self.Key); err != nil {
		return nil, err
	}
	if err = p.handleBlock(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Head returns the most recent block.
func (p *Protocol) Head() *Block {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.chain[len(p.chain)-1]
}

// Pending returns the transactions waiting to be sealed.
func (p *Protocol) Pending() []*Transaction {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return append([]*Transaction(nil), p.pending...)
}

// Genesis returns the configuration the chain was started from.
func (p *Protocol) Genesis() *Genesis {
	return p.genesis
}

// Len returns the number of blocks, genesis included.
func (p *Protocol) Len() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.chain)
}
