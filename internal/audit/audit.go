// Package audit replays recorded order payloads through the validation
// pipeline and summarizes the outcomes.
//
// Input files hold one JSON payload per line. Files ending in .gz are
// decompressed on the fly.
package audit

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/order-intake/internal/domain/order"
)

const (
	defaultExpectedOrders = 1_000_000
	bloomFPR              = 0.001
	progressEvery         = 1_000_000
	maxLineBytes          = 1 << 20
)

// Evaluator runs the order pipeline over a raw payload.
type Evaluator interface {
	Evaluate(data []byte) (order.Outcome, error)
}

// Config tunes an Auditor.
type Config struct {
	// Workers bounds the number of files processed at once. Zero or less
	// means one worker per file.
	Workers int
	// ExpectedOrders sizes the duplicate filter.
	ExpectedOrders uint
}

// Report summarizes an audit run.
type Report struct {
	Lines    int64
	Accepted int64
	Rejected map[order.Kind]int64
	// Duplicates counts accepted orders whose canonical form was already
	// seen. The count is probabilistic and may slightly overestimate.
	Duplicates int64
}

// RejectedTotal sums rejections of every kind.
func (r Report) RejectedTotal() int64 {
	var n int64
	for _, c := range r.Rejected {
		n += c
	}
	return n
}

// Auditor processes order files concurrently. An Auditor is single-use:
// duplicates are tracked across every file passed to Run.
type Auditor struct {
	orders  Evaluator
	workers int
	lg      *slog.Logger

	mu     sync.Mutex
	seen   *bloom.BloomFilter
	report Report
}

// New creates an Auditor.
func New(orders Evaluator, cfg Config, lg *slog.Logger) *Auditor {
	expected := cfg.ExpectedOrders
	if expected == 0 {
		expected = defaultExpectedOrders
	}
	return &Auditor{
		orders:  orders,
		workers: cfg.Workers,
		lg:      lg,
		seen:    bloom.NewWithEstimates(expected, bloomFPR),
		report:  Report{Rejected: make(map[order.Kind]int64)},
	}
}

// Run audits files and returns the combined report.
func (a *Auditor) Run(ctx context.Context, files []string) (Report, error) {
	g, ctx := errgroup.WithContext(ctx)
	if a.workers > 0 {
		g.SetLimit(a.workers)
	}
	for _, path := range files {
		g.Go(func() error {
			return a.auditFile(ctx, path)
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.report, nil
}

type fileStats struct {
	lines    int64
	accepted int64
	rejected map[order.Kind]int64
}

func (a *Auditor) auditFile(ctx context.Context, path string) error {
	stats := fileStats{rejected: make(map[order.Kind]int64)}
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	if err := streamFile(ctx, path, func(line []byte) error {
		stats.lines++
		if stats.lines%progressEvery == 0 {
			a.lg.Info("audit progress", slog.String("file", path), slog.Int64("lines", stats.lines))
		}

		out, err := a.orders.Evaluate(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", stats.lines)
		}
		if !out.Accepted() {
			stats.rejected[out.Rejection.Kind()]++
			return nil
		}

		stats.accepted++
		e.Reset()
		out.Order.Encode(e)
		a.markSeen(e.Bytes())
		return nil
	}); err != nil {
		return errors.Wrapf(err, "audit %s", path)
	}

	a.lg.Info("file audited",
		slog.String("file", path),
		slog.Int64("lines", stats.lines),
		slog.Int64("accepted", stats.accepted),
	)
	a.merge(stats)
	return nil
}

func (a *Auditor) markSeen(canonical []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seen.TestOrAdd(canonical) {
		a.report.Duplicates++
	}
}

func (a *Auditor) merge(s fileStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.report.Lines += s.lines
	a.report.Accepted += s.accepted
	for kind, n := range s.rejected {
		a.report.Rejected[kind] += n
	}
}

// streamFile calls fn for each non-blank line of path.
func streamFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "scan")
	}
	return nil
}
