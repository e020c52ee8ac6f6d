package bench

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/taurusgroup/node-benchmark/pkg/clique"
	"golang.org/x/sync/errgroup"
)

// Source delivers the transactions of voters 0..Len()-1, in order.
// Next returns io.EOF once every transaction has been delivered.
type Source interface {
	Next(ctx context.Context) (*clique.Transaction, error)
	Len() int
	Close() error
}

// VoteFunc returns the value voter idx votes for.
type VoteFunc func(idx int) int64

// Constant makes every voter vote for value.
func Constant(value int64) VoteFunc {
	return func(int) int64 { return value }
}

// SequentialSource synthesizes each ballot when it is requested.
type SequentialSource struct {
	synth *Synthesizer
	votes VoteFunc
	n     int
	next  int
}

func NewSequentialSource(synth *Synthesizer, votes VoteFunc, n int) *SequentialSource {
	return &SequentialSource{synth: synth, votes: votes, n: n}
}

func (s *SequentialSource) Next(ctx context.Context) (*clique.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= s.n {
		return nil, io.EOF
	}
	b, err := s.synth.Synthesize(s.next, s.votes(s.next))
	if err != nil {
		return nil, err
	}
	s.next++
	return b.Transaction(), nil
}

func (s *SequentialSource) Len() int { return s.n }

func (s *SequentialSource) Close() error { return nil }

type synthResult struct {
	ballot *Ballot
	err    error
}

// PipelineSource synthesizes ballots on several goroutines ahead of delivery.
//
// Ballots are still delivered in voter order. At most 2*workers ballots are
// waiting to be delivered at any time.
type PipelineSource struct {
	n         int
	delivered int
	cancel    context.CancelFunc
	slots     chan chan synthResult
	done      chan struct{}
}

// NewPipelineSource starts synthesizing the ballots of n voters on workers goroutines.
// If workers <= 0, the number of available CPUs is used.
// Close must be called to release the goroutines.
func NewPipelineSource(ctx context.Context, synth *Synthesizer, votes VoteFunc, n, workers int) *PipelineSource {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	s := &PipelineSource{
		n:      n,
		cancel: cancel,
		slots:  make(chan chan synthResult, 2*workers),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.slots)
	dispatch:
		for i := 0; i < n && gctx.Err() == nil; i++ {
			// a slot is reserved before synthesis starts, which fixes the delivery order
			slot := make(chan synthResult, 1)
			select {
			case s.slots <- slot:
			case <-gctx.Done():
				break dispatch
			}
			idx := i
			g.Go(func() error {
				b, err := synth.Synthesize(idx, votes(idx))
				slot <- synthResult{ballot: b, err: err}
				return err
			})
		}
		_ = g.Wait()
	}()
	return s
}

func (s *PipelineSource) Next(ctx context.Context) (*clique.Transaction, error) {
	var (
		slot chan synthResult
		ok   bool
	)
	select {
	case slot, ok = <-s.slots:
		if !ok {
			if s.delivered < s.n {
				return nil, fmt.Errorf("bench: pipeline stopped after %d of %d ballots: %w", s.delivered, s.n, context.Canceled)
			}
			return nil, io.EOF
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-slot:
		if r.err != nil {
			return nil, r.err
		}
		s.delivered++
		return r.ballot.Transaction(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *PipelineSource) Len() int { return s.n }

// Close stops synthesis and waits for the workers to return.
func (s *PipelineSource) Close() error {
	s.cancel()
	for range s.slots {
	}
	<-s.done
	return nil
}
