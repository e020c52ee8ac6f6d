package bench

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/node-benchmark/internal/hash"
	"github.com/taurusgroup/node-benchmark/pkg/clique"
	"github.com/taurusgroup/node-benchmark/pkg/math/curve"
	"github.com/taurusgroup/node-benchmark/pkg/uciv"
	"github.com/taurusgroup/node-benchmark/pkg/vote"
	zkcai "github.com/taurusgroup/node-benchmark/pkg/zk/cai"
	zkmember "github.com/taurusgroup/node-benchmark/pkg/zk/member"
)

func fakeSynthesizer(t *testing.T, crypto VotingCrypto, voters int) *Synthesizer {
	options, err := vote.NewOptions(curve.Secp256k1{}, 1, 0)
	require.NoError(t, err)
	keys, set, err := Provision(crypto, voters, options.Len())
	require.NoError(t, err)
	return &Synthesizer{Crypto: crypto, PublicKey: keys.Public, Options: options, UCIV: set}
}

func TestStep(t *testing.T) {
	synth := fakeSynthesizer(t, newFakeCrypto(), 2)
	l := &fakeLedger{}

	b, err := synth.Synthesize(1, 1)
	require.NoError(t, err)
	total, data, err := Step(l, 40, b.Transaction())
	require.NoError(t, err)
	assert.Equal(t, uint64(40+len(data)), total)
	assert.Equal(t, []uint64{1}, l.voters)

	l.failAt = 2
	total, _, err = Step(l, total, b.Transaction())
	assert.ErrorIs(t, err, errFake)
	assert.Equal(t, uint64(40+len(data)), total, "a failed step leaves the total unchanged")
}

func TestFeederOrderAndSums(t *testing.T) {
	const n = 25
	synth := fakeSynthesizer(t, newFakeCrypto(), n)
	l := &fakeLedger{}
	f := &Feeder{Ledger: l, Checkpoints: []int{1, 10, 25, 30}, Log: zerolog.Nop()}

	report, err := f.Run(context.Background(), NewSequentialSource(synth, Constant(1), n))
	require.NoError(t, err)

	require.Len(t, l.voters, n)
	for i, v := range l.voters {
		assert.Equal(t, uint64(i), v, "voters must be submitted in ascending order")
	}

	require.Len(t, l.sizes, n+1)
	assert.Equal(t, 0, report.Initial.Count)
	assert.Equal(t, l.sizes[0], report.Initial.Current)
	assert.Equal(t, uint64(0), report.Initial.Bytes)

	sum := func(count int) uint64 {
		var s uint64
		for _, size := range l.sizes[1 : count+1] {
			s += uint64(size)
		}
		return s
	}
	require.Len(t, report.Checkpoints, 3, "checkpoint 30 is never reached")
	for i, want := range []int{1, 10, 25} {
		s := report.Checkpoints[i]
		assert.Equal(t, want, s.Count)
		assert.Equal(t, sum(want), s.Bytes)
		assert.Equal(t, s.Bytes/1000, s.KBytes)
		assert.Equal(t, l.sizes[want], s.Current)
		assert.Zero(t, s.Compressed)
	}
	assert.Equal(t, n, report.Final.Count)
	assert.Equal(t, sum(n), report.Final.Bytes)
}

func TestFeederMonotonic(t *testing.T) {
	const n = 12
	synth := fakeSynthesizer(t, newFakeCrypto(), n)
	checkpoints := make([]int, n)
	for i := range checkpoints {
		checkpoints[i] = i + 1
	}
	f := &Feeder{Ledger: &fakeLedger{}, Checkpoints: checkpoints, Log: zerolog.Nop()}
	report, err := f.Run(context.Background(), NewSequentialSource(synth, Constant(0), n))
	require.NoError(t, err)
	require.Len(t, report.Checkpoints, n)
	for i := 1; i < n; i++ {
		assert.GreaterOrEqual(t, report.Checkpoints[i].Bytes, report.Checkpoints[i-1].Bytes)
	}
}

func TestFeederSingleVoter(t *testing.T) {
	synth := fakeSynthesizer(t, newFakeCrypto(), 1)
	l := &fakeLedger{}
	var progress bytes.Buffer
	f := &Feeder{Ledger: l, Checkpoints: []int{1}, Compress: true, Progress: &progress, Log: zerolog.Nop()}

	report, err := f.Run(context.Background(), NewSequentialSource(synth, Constant(1), 1))
	require.NoError(t, err)
	require.Len(t, report.Checkpoints, 1)
	assert.Equal(t, report.Checkpoints[0].Bytes, report.Final.Bytes)
	assert.Equal(t, uint64(l.sizes[1]), report.Final.Bytes)
	assert.Positive(t, report.Final.Compressed)
	assert.Less(t, report.Final.Compressed, report.Final.Current, "zeroed state compresses well")
	assert.NotZero(t, progress.Len())
}

func TestFeederAbort(t *testing.T) {
	synth := fakeSynthesizer(t, newFakeCrypto(), 5)

	f := &Feeder{Ledger: &fakeLedger{failAt: 3}, Checkpoints: []int{1, 2, 5}, Log: zerolog.Nop()}
	report, err := f.Run(context.Background(), NewSequentialSource(synth, Constant(1), 5))
	assert.Nil(t, report)
	var benchErr *Error
	require.True(t, errors.As(err, &benchErr))
	assert.Equal(t, 3, benchErr.Count)
	assert.ErrorIs(t, err, errFake)

	f = &Feeder{Ledger: &fakeLedger{failSerialize: true}, Log: zerolog.Nop()}
	report, err = f.Run(context.Background(), NewSequentialSource(synth, Constant(1), 5))
	assert.Nil(t, report)
	require.True(t, errors.As(err, &benchErr))
	assert.Equal(t, 1, benchErr.Count)
}

func TestFeederUnknownVote(t *testing.T) {
	crypto := newFakeCrypto()
	synth := fakeSynthesizer(t, crypto, 4)
	l := &fakeLedger{}
	votes := func(idx int) int64 {
		if idx == 2 {
			return 5
		}
		return 1
	}
	f := &Feeder{Ledger: l, Checkpoints: []int{1}, Log: zerolog.Nop()}
	report, err := f.Run(context.Background(), NewSequentialSource(synth, votes, 4))
	assert.Nil(t, report)
	assert.ErrorIs(t, err, vote.ErrUnknownOption)
	assert.Len(t, l.voters, 2)
	assert.EqualValues(t, 2, crypto.encrypts)
}

func TestSynthesizeFailFast(t *testing.T) {
	crypto := newFakeCrypto()
	synth := fakeSynthesizer(t, crypto, 2)

	_, err := synth.Synthesize(0, 2)
	assert.ErrorIs(t, err, vote.ErrUnknownOption)
	_, err = synth.Synthesize(2, 1)
	assert.ErrorIs(t, err, uciv.ErrVoterOutOfRange)
	_, err = synth.Synthesize(-1, 1)
	assert.ErrorIs(t, err, uciv.ErrVoterOutOfRange)

	assert.Zero(t, crypto.encrypts, "no encryption may happen for rejected inputs")
	assert.Zero(t, crypto.proofs)
}

func TestSynthesizeOptionMismatch(t *testing.T) {
	crypto := newFakeCrypto()
	options, err := vote.NewOptions(curve.Secp256k1{}, 1, 0)
	require.NoError(t, err)
	keys, _ := crypto.GenerateKeys()
	crypto.short = true
	set, err := crypto.GenerateUCIV(2, options.Len(), keys.Public)
	require.NoError(t, err)

	synth := &Synthesizer{Crypto: crypto, PublicKey: keys.Public, Options: options, UCIV: set}
	_, err = synth.Synthesize(0, 1)
	assert.ErrorIs(t, err, ErrOptionMismatch)
	assert.Zero(t, crypto.encrypts)
}

func TestProvision(t *testing.T) {
	crypto := newFakeCrypto()
	keys, set, err := Provision(crypto, 3, 2)
	require.NoError(t, err)
	assert.NotNil(t, keys.Public)
	assert.Equal(t, 3, set.Len())

	_, _, err = Provision(crypto, 0, 2)
	assert.Error(t, err)
	_, _, err = Provision(crypto, 3, 0)
	assert.Error(t, err)

	crypto.short = true
	keys, set, err = Provision(crypto, 3, 2)
	assert.Error(t, err)
	assert.Nil(t, keys)
	assert.Nil(t, set)
}

func TestPipelineSourceOrder(t *testing.T) {
	const n = 60
	synth := fakeSynthesizer(t, newFakeCrypto(), n)
	for _, workers := range []int{0, 1, 4} {
		source := NewPipelineSource(context.Background(), synth, Constant(0), n, workers)
		for i := 0; i < n; i++ {
			tx, err := source.Next(context.Background())
			require.NoError(t, err)
			assert.Equal(t, uint64(i), tx.VoterIdx)
		}
		_, err := source.Next(context.Background())
		assert.ErrorIs(t, err, io.EOF)
		require.NoError(t, source.Close())
	}
}

func TestPipelineSourceError(t *testing.T) {
	const n = 40
	synth := fakeSynthesizer(t, newFakeCrypto(), n)
	votes := func(idx int) int64 {
		if idx == 7 {
			return -1
		}
		return 1
	}
	source := NewPipelineSource(context.Background(), synth, votes, n, 4)
	defer source.Close()

	for i := 0; i < 7; i++ {
		tx, err := source.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, uint64(i), tx.VoterIdx)
	}
	_, err := source.Next(context.Background())
	assert.ErrorIs(t, err, vote.ErrUnknownOption)
}

func TestPipelineSourceCancel(t *testing.T) {
	synth := fakeSynthesizer(t, newFakeCrypto(), 10)
	ctx, cancel := context.WithCancel(context.Background())
	source := NewPipelineSource(ctx, synth, Constant(1), 10, 2)
	cancel()

	var err error
	for err == nil {
		_, err = source.Next(context.Background())
	}
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, source.Close())
}

func TestFeederPipeline(t *testing.T) {
	const n = 30
	synth := fakeSynthesizer(t, newFakeCrypto(), n)
	sequential, pipelined := &fakeLedger{}, &fakeLedger{}

	f := &Feeder{Ledger: sequential, Checkpoints: []int{10, 30}, Log: zerolog.Nop()}
	want, err := f.Run(context.Background(), NewSequentialSource(synth, Constant(1), n))
	require.NoError(t, err)

	source := NewPipelineSource(context.Background(), synth, Constant(1), n, 3)
	defer source.Close()
	f = &Feeder{Ledger: pipelined, Checkpoints: []int{10, 30}, Log: zerolog.Nop()}
	got, err := f.Run(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, sequential.voters, pipelined.voters)
}

func TestSynthesizeValidProofs(t *testing.T) {
	crypto := NewCrypto(curve.Secp256k1{}, rand.Reader, nil)
	options, err := vote.NewOptions(curve.Secp256k1{}, 1, 0)
	require.NoError(t, err)
	keys, set, err := Provision(crypto, 3, options.Len())
	require.NoError(t, err)
	synth := &Synthesizer{Crypto: crypto, PublicKey: keys.Public, Options: options, UCIV: set}

	for voter := 0; voter < 3; voter++ {
		for _, value := range []int64{1, 0} {
			k, _ := options.Position(value)
			// two syntheses of the same ballot differ but both verify
			for round := 0; round < 2; round++ {
				b, err := synth.Synthesize(voter, value)
				require.NoError(t, err)
				assert.True(t, keys.Secret.Decrypt(b.Ciphertext).Equal(options.Point(k)))

				assert.True(t, b.Membership.Verify(hash.New(), zkmember.Public{
					Ciphertext: b.Ciphertext,
					PublicKey:  keys.Public,
					Options:    options,
				}))
				_, img, err := set.Voter(voter)
				require.NoError(t, err)
				assert.True(t, b.Cai.Verify(hash.New(), zkcai.Public{
					Ciphertext: b.Ciphertext,
					PublicKey:  keys.Public,
					Options:    options,
					Images:     img,
				}))
				assert.True(t, b.Transaction().Valid())
			}
		}
	}
}

// recordingLedger measures every serialization of the wrapped ledger.
type recordingLedger struct {
	Ledger
	sizes []int
}

func (l *recordingLedger) MarshalBinary() ([]byte, error) {
	data, err := l.Ledger.MarshalBinary()
	l.sizes = append(l.sizes, len(data))
	return data, err
}

func TestTenVotersAllVotingOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumberVoters = 10

	crypto := NewCrypto(curve.Secp256k1{}, rand.Reader, nil)
	options, err := vote.NewOptions(curve.Secp256k1{}, cfg.VoteOptions...)
	require.NoError(t, err)
	keys, set, err := Provision(crypto, cfg.NumberVoters, cfg.NumberOptions)
	require.NoError(t, err)
	self, err := clique.NewIdentity(cfg.Endpoint)
	require.NoError(t, err)
	genesis := &clique.Genesis{
		Version:    cfg.Version,
		Clique:     clique.Config{BlockPeriod: cfg.BlockPeriod, SignerLimit: cfg.SignerLimit},
		Sealers:    []common.Address{self.Address()},
		PublicKey:  keys.Public,
		PublicUCIV: set.Public,
	}
	node, err := clique.New(self, genesis)
	require.NoError(t, err)
	ledger := &recordingLedger{Ledger: node}

	synth := &Synthesizer{Crypto: crypto, PublicKey: keys.Public, Options: options, UCIV: set}
	f := &Feeder{Ledger: ledger, Checkpoints: cfg.Checkpoints, Log: zerolog.Nop()}
	report, err := f.Run(context.Background(), NewSequentialSource(synth, Constant(1), cfg.NumberVoters))
	require.NoError(t, err)

	require.Len(t, report.Checkpoints, 1)
	s := report.Checkpoints[0]
	assert.Equal(t, 10, s.Count)
	assert.Positive(t, s.Bytes)
	assert.Equal(t, s.Bytes/1000, s.KBytes)

	var sum uint64
	for _, size := range ledger.sizes[1:] {
		sum += uint64(size)
	}
	assert.Equal(t, sum, s.Bytes)
	assert.Equal(t, s, report.Final)
	assert.Len(t, node.Pending(), 10)

	// the empty state only depends on the genesis and the node identity
	empty, err := clique.New(self, genesis)
	require.NoError(t, err)
	data, err := empty.MarshalBinary()
	require.NoError(t, err)
	assert.Positive(t, report.Initial.Current)
	assert.Equal(t, len(data), report.Initial.Current)
}

func TestRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumberVoters = 6
	cfg.Checkpoints = []int{2, 6}
	cfg.Workers = 2
	cfg.Compress = true

	var logs bytes.Buffer
	report, err := Run(context.Background(), cfg, zerolog.New(&logs))
	require.NoError(t, err)
	require.Len(t, report.Checkpoints, 2)
	assert.Equal(t, 6, report.Final.Count)
	assert.Equal(t, report.Checkpoints[1], report.Final)
	assert.Positive(t, report.Final.Compressed)
	assert.Contains(t, logs.String(), `"run":`)
	assert.Contains(t, logs.String(), `"kbytes":`)
}

func TestRunWorkersMatchSequential(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumberVoters = 8
	cfg.Checkpoints = []int{3, 8}

	sequential, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	cfg.Workers = 4
	pipelined, err := Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	// keys and ballots are fresh on each run, but every encoded field has a fixed size
	assert.Equal(t, sequential.Initial.Current, pipelined.Initial.Current)
	assert.Equal(t, sequential.Checkpoints, pipelined.Checkpoints)
	assert.Equal(t, sequential.Final, pipelined.Final)
}

func TestWithSealer(t *testing.T) {
	self := common.HexToAddress("0x01")
	other := common.HexToAddress("0x02")

	assert.Equal(t, []common.Address{self}, withSealer(nil, self))
	assert.Equal(t, []common.Address{other, self}, withSealer([]common.Address{other}, self))
	assert.Equal(t, []common.Address{self, other}, withSealer([]common.Address{self, other}, self))

	configured := []common.Address{other}
	withSealer(configured, self)
	assert.Equal(t, []common.Address{other}, configured, "the configured list is left untouched")
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vote = 3
	_, err := Run(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
