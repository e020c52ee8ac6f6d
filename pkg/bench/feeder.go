package bench

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/taurusgroup/node-benchmark/pkg/clique"
)

// Error aborts a run. Count is the 1-based submission the run failed at, 0 before the first one.
type Error struct {
	Count int
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bench: submission %d: %v", e.Count, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Sample is a size measurement of the ledger state.
type Sample struct {
	// Count is the number of submitted transactions.
	Count int
	// Bytes is the sum of the serialized state lengths measured after each of the Count submissions.
	Bytes uint64
	// KBytes is Bytes/1000.
	KBytes uint64
	// Current is the serialized state length after the last submission.
	Current int
	// Compressed is the zstd size of the last serialization, 0 unless compression is enabled.
	Compressed int
}

// Report holds the samples of a complete run.
type Report struct {
	Initial     Sample
	Checkpoints []Sample
	Final       Sample
}

// Step submits tx to ledger and returns the running total incremented by the
// length of the serialized state, together with that serialization.
func Step(ledger Ledger, total uint64, tx *clique.Transaction) (uint64, []byte, error) {
	if err := ledger.Handle(clique.TransactionPayload(tx)); err != nil {
		return total, nil, fmt.Errorf("submit: %w", err)
	}
	data, err := ledger.MarshalBinary()
	if err != nil {
		return total, nil, fmt.Errorf("serialize: %w", err)
	}
	return total + uint64(len(data)), data, nil
}

// Feeder submits transactions to a ledger and measures its growth.
type Feeder struct {
	Ledger      Ledger
	Checkpoints []int
	// Compress enables the Compressed column of the samples.
	Compress bool
	// Progress receives a progress bar when not nil.
	Progress io.Writer

	Log zerolog.Logger
}

// Run submits every transaction of source, in order.
// A report is returned only if all of them have been submitted and measured.
func (f *Feeder) Run(ctx context.Context, source Source) (*Report, error) {
	var enc *zstd.Encoder
	if f.Compress {
		var err error
		if enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest)); err != nil {
			return nil, &Error{Err: fmt.Errorf("zstd: %w", err)}
		}
		defer enc.Close()
	}
	sample := func(count int, total uint64, data []byte) Sample {
		s := Sample{Count: count, Bytes: total, KBytes: total / 1000, Current: len(data)}
		if enc != nil {
			s.Compressed = len(enc.EncodeAll(data, nil))
		}
		return s
	}

	data, err := f.Ledger.MarshalBinary()
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("serialize empty state: %w", err)}
	}
	report := &Report{Initial: sample(0, 0, data)}
	f.Log.Info().Int("bytes", len(data)).Msgf("Size of protocol state before adding: %d", len(data))

	checkpoints := make(map[int]struct{}, len(f.Checkpoints))
	for _, c := range f.Checkpoints {
		checkpoints[c] = struct{}{}
	}

	var bar *progressbar.ProgressBar
	if f.Progress != nil {
		bar = progressbar.NewOptions(source.Len(),
			progressbar.OptionSetWriter(f.Progress),
			progressbar.OptionSetDescription("submitting"),
			progressbar.OptionShowCount(),
		)
	}

	var (
		total uint64
		count int
	)
	for {
		tx, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &Error{Count: count + 1, Err: err}
		}
		if total, data, err = Step(f.Ledger, total, tx); err != nil {
			return nil, &Error{Count: count + 1, Err: err}
		}
		count++
		if bar != nil {
			_ = bar.Add(1)
		}
		if _, ok := checkpoints[count]; ok {
			s := sample(count, total, data)
			report.Checkpoints = append(report.Checkpoints, s)
			logSample(f.Log, s).Msgf("Current memory usage for protocol state containing %d transactions is: %d bytes / %d KBytes", s.Count, s.Bytes, s.KBytes)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if count != source.Len() {
		return nil, &Error{Count: count, Err: fmt.Errorf("source ended after %d of %d transactions", count, source.Len())}
	}

	report.Final = sample(count, total, data)
	logSample(f.Log, report.Final).Msgf("Total memory usage for protocol state containing %d transactions is: %d bytes / %d KBytes", count, total, total/1000)
	return report, nil
}

func logSample(log zerolog.Logger, s Sample) *zerolog.Event {
	e := log.Info().
		Int("count", s.Count).
		Uint64("bytes", s.Bytes).
		Uint64("kbytes", s.KBytes).
		Int("current", s.Current)
	if s.Compressed > 0 {
		e = e.Int("compressed", s.Compressed)
	}
	return e
}
