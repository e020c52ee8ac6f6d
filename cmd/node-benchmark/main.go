// Command node-benchmark measures how the serialized state of a clique node
// grows while it receives one anonymous ballot per voter.
//
// The run either completes and logs the running total at every checkpoint,
// or exits with a non-zero status without a final report.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"github.com/taurusgroup/node-benchmark/pkg/bench"
)

func main() {
	cfg := bench.DefaultConfig()
	var (
		sealers []string
		options []int
	)

	flag.IntVarP(&cfg.NumberVoters, "voters", "n", cfg.NumberVoters, "number of voters, one ballot each")
	flag.IntSliceVar(&options, "options", []int{1, 0}, "ordered set of allowed vote values")
	flag.Int64Var(&cfg.Vote, "vote", cfg.Vote, "value every voter votes for")
	flag.Uint64Var(&cfg.BlockPeriod, "block-period", cfg.BlockPeriod, "clique block period in seconds")
	flag.Uint64Var(&cfg.SignerLimit, "signer-limit", cfg.SignerLimit, "number of recent blocks a sealer must wait before sealing again")
	flag.StringSliceVar(&sealers, "sealer", nil, "additional sealer address, repeatable (the local node always seals)")
	flag.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "endpoint of the local node")
	flag.StringVar(&cfg.Version, "protocol-version", cfg.Version, "protocol version written to the genesis")
	flag.IntSliceVar(&cfg.Checkpoints, "checkpoints", cfg.Checkpoints, "submission counts at which the running total is reported")
	flag.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "goroutines synthesizing ballots ahead of submission, 0 synthesizes sequentially")
	flag.BoolVar(&cfg.Progress, "progress", false, "show a progress bar")
	flag.BoolVar(&cfg.Compress, "compress", false, "also report the zstd compressed state size")
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(*level)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	log = log.Level(lvl)

	cfg.VoteOptions = cfg.VoteOptions[:0]
	for _, v := range options {
		cfg.VoteOptions = append(cfg.VoteOptions, int64(v))
	}
	cfg.NumberOptions = len(cfg.VoteOptions)
	for _, s := range sealers {
		if !common.IsHexAddress(s) {
			log.Fatal().Str("sealer", s).Msg("invalid sealer address")
		}
		cfg.Sealers = append(cfg.Sealers, common.HexToAddress(s))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err = bench.Run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("benchmark aborted")
	}
}
