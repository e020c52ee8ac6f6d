// Package bench measures how the serialized state of a clique node grows under ballot load.
package bench

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/node-benchmark/pkg/clique"
	"github.com/taurusgroup/node-benchmark/pkg/math/curve"
	"github.com/taurusgroup/node-benchmark/pkg/pool"
	"github.com/taurusgroup/node-benchmark/pkg/vote"
)

// Run provisions a population, starts a single sealer node, and feeds it one ballot per voter.
func Run(ctx context.Context, cfg Config, log zerolog.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.With().
		Str("run", uuid.NewString()).
		Str("protocol", cfg.Version).
		Logger()

	group := curve.Secp256k1{}
	options, err := vote.NewOptions(group, cfg.VoteOptions...)
	if err != nil {
		return nil, fmt.Errorf("bench: %w", err)
	}

	var pl *pool.Pool
	if cfg.Workers > 0 {
		pl = pool.NewPool(cfg.Workers)
		defer pl.TearDown()
	}
	crypto := NewCrypto(group, rand.Reader, pl)

	log.Debug().Int("voters", cfg.NumberVoters).Int("workers", pl.Workers()).Msg("generating anonymity set")
	keys, set, err := Provision(crypto, cfg.NumberVoters, cfg.NumberOptions)
	if err != nil {
		return nil, err
	}
	log.Debug().Msg("anonymity set generated")

	self, err := clique.NewIdentity(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	sealers := withSealer(cfg.Sealers, self.Address())
	node, err := clique.New(self, &clique.Genesis{
		Version: cfg.Version,
		Clique: clique.Config{
			BlockPeriod: cfg.BlockPeriod,
			SignerLimit: cfg.SignerLimit,
		},
		Sealers:    sealers,
		PublicKey:  keys.Public,
		PublicUCIV: set.Public,
	})
	if err != nil {
		return nil, err
	}
	node.Log = log.With().Str("node", self.Address().Hex()).Str("endpoint", self.Endpoint).Logger()

	synth := &Synthesizer{
		Crypto:    crypto,
		PublicKey: keys.Public,
		Options:   options,
		UCIV:      set,
	}
	var source Source
	if cfg.Workers > 0 {
		source = NewPipelineSource(ctx, synth, Constant(cfg.Vote), cfg.NumberVoters, cfg.Workers)
	} else {
		source = NewSequentialSource(synth, Constant(cfg.Vote), cfg.NumberVoters)
	}
	defer source.Close()

	feeder := &Feeder{
		Ledger:      node,
		Checkpoints: cfg.Checkpoints,
		Compress:    cfg.Compress,
		Log:         log,
	}
	if cfg.Progress {
		feeder.Progress = os.Stderr
	}
	return feeder.Run(ctx, source)
}

// withSealer returns sealers with self appended, unless it is already part of them.
func withSealer(sealers []common.Address, self common.Address) []common.Address {
	for _, s := range sealers {
		if s == self {
			return sealers
		}
	}
	return append(append([]common.Address(nil), sealers...), self)
}
