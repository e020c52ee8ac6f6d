package clique

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/taurusgroup/node-benchmark/internal/elgamal"
	"github.com/taurusgroup/node-benchmark/pkg/uciv"
)

// Config holds the clique consensus parameters.
type Config struct {
	// BlockPeriod is the minimum number of seconds between two blocks.
	BlockPeriod uint64
	// SignerLimit is the number of most recent blocks a sealer has to wait for
	// before sealing again. 0 disables the limit.
	SignerLimit uint64
}

// Genesis is the configuration a chain starts from.
type Genesis struct {
	Version    string
	Clique     Config
	Sealers    []common.Address
	PublicKey  elgamal.PublicKey
	PublicUCIV []uciv.ImageSet
}

// Validate checks that the genesis can be used to start a chain.
func (g *Genesis) Validate() error {
	if g == nil {
		return errors.New("clique: nil genesis")
	}
	if g.Version == "" {
		return errors.New("clique: genesis: empty version")
	}
	if len(g.Sealers) == 0 {
		return errors.New("clique: genesis: no sealers")
	}
	seen := make(map[common.Address]struct{}, len(g.Sealers))
	for _, s := range g.Sealers {
		if _, ok := seen[s]; ok {
			return fmt.Errorf("clique: genesis: duplicate sealer %s", s)
		}
		seen[s] = struct{}{}
	}
	if g.PublicKey == nil || g.PublicKey.IsIdentity() {
		return errors.New("clique: genesis: invalid public key")
	}
	if len(g.PublicUCIV) == 0 {
		return errors.New("clique: genesis: empty anonymity set")
	}
	return nil
}

// IsSealer returns true if addr is allowed to seal blocks.
func (g *Genesis) IsSealer(addr common.Address) bool {
	for _, s := range g.Sealers {
		if s == addr {
			return true
		}
	}
	return false
}
