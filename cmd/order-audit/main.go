// Command order-audit replays recorded order payloads through the validation
// pipeline and reports accepted, rejected and duplicate orders.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/order-intake/internal/audit"
	"github.com/xenking/order-intake/internal/domain/order"
)

func main() {
	var (
		currencies string
		maxPrice   string
		workers    int
		expected   uint
	)

	flag.StringVar(&currencies, "currencies", "TWD:0,USD:2", "allowed currencies as CODE:decimal_places, comma separated")
	flag.StringVar(&maxPrice, "max-price", "2000", "inclusive upper bound for order prices")
	flag.IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "files processed concurrently")
	flag.UintVar(&expected, "expected-orders", 1_000_000, "expected number of orders, sizes the duplicate filter")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] files...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg := audit.Config{Workers: workers, ExpectedOrders: expected}
	if err := run(ctx, currencies, maxPrice, cfg, flag.Args()); err != nil {
		slog.Error("order audit failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, currencies, maxPrice string, cfg audit.Config, files []string) error {
	rules, err := order.ParseRules(strings.Split(currencies, ","))
	if err != nil {
		return errors.Wrap(err, "parse currencies")
	}
	limit, err := decimal.NewFromString(maxPrice)
	if err != nil {
		return errors.Wrap(err, "parse max price")
	}
	pipeline, err := order.NewPipeline(order.Config{Rules: rules, MaxPrice: limit})
	if err != nil {
		return errors.Wrap(err, "create pipeline")
	}

	slog.Info("auditing orders",
		slog.Int("files", len(files)),
		slog.Any("currencies", rules.Codes()),
		slog.String("max_price", limit.String()),
	)

	start := time.Now()
	report, err := audit.New(pipeline, cfg, slog.Default()).Run(ctx, files)
	if err != nil {
		return err
	}

	attrs := []any{
		slog.Int64("lines", report.Lines),
		slog.Int64("accepted", report.Accepted),
		slog.Int64("rejected", report.RejectedTotal()),
		slog.Int64("duplicates", report.Duplicates),
		slog.Duration("elapsed", time.Since(start)),
	}
	for kind, n := range report.Rejected {
		attrs = append(attrs, slog.Int64("rejected_"+string(kind), n))
	}
	slog.Info("audit complete", attrs...)
	return nil
}
