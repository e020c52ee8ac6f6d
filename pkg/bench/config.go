package bench

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds the parameters of a benchmark run.
type Config struct {
	NumberVoters  int
	NumberOptions int
	// VoteOptions is the ordered set of values a ballot may encrypt.
	VoteOptions []int64
	// Vote is the value every synthesized ballot encrypts.
	Vote int64

	BlockPeriod uint64
	SignerLimit uint64
	// Sealers are the addresses allowed to seal blocks, in addition to the local node.
	Sealers  []common.Address
	Endpoint string
	Version  string

	// Checkpoints are the 1-based submission counts at which a sample is reported.
	Checkpoints []int
	// Workers is the number of goroutines synthesizing ballots ahead of submission.
	// 0 synthesizes each ballot right before it is submitted.
	Workers int

	Progress bool
	Compress bool
}

// DefaultConfig returns the reference scenario: 10000 voters all voting 1 out of {1, 0}.
func DefaultConfig() Config {
	return Config{
		NumberVoters:  10000,
		NumberOptions: 2,
		VoteOptions:   []int64{1, 0},
		Vote:          1,
		BlockPeriod:   15,
		SignerLimit:   0,
		Endpoint:      "127.0.0.1:9123",
		Version:       "0.0.0",
		Checkpoints:   []int{10, 100, 1000, 10000},
	}
}

// Validate returns an error describing the first inconsistent parameter.
func (c Config) Validate() error {
	if c.NumberVoters <= 0 {
		return fmt.Errorf("bench: config: number of voters must be positive, got %d", c.NumberVoters)
	}
	if c.NumberOptions <= 0 {
		return fmt.Errorf("bench: config: number of options must be positive, got %d", c.NumberOptions)
	}
	if len(c.VoteOptions) != c.NumberOptions {
		return fmt.Errorf("bench: config: %d vote options for %d voting options", len(c.VoteOptions), c.NumberOptions)
	}
	found := false
	for _, v := range c.VoteOptions {
		found = found || v == c.Vote
	}
	if !found {
		return fmt.Errorf("bench: config: vote %d is not one of %v", c.Vote, c.VoteOptions)
	}
	for _, cp := range c.Checkpoints {
		if cp <= 0 {
			return fmt.Errorf("bench: config: checkpoint must be positive, got %d", cp)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("bench: config: negative number of workers %d", c.Workers)
	}
	if c.Version == "" {
		return errors.New("bench: config: empty protocol version")
	}
	return nil
}
