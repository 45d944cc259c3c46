package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/order-intake/internal/domain/order"
)

// DefaultMaxBodyBytes bounds the request body when HandlerConfig leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// Evaluator runs the order pipeline over a raw payload.
type Evaluator interface {
	Evaluate(data []byte) (order.Outcome, error)
}

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// MaxBodyBytes limits the accepted request body size. Zero means
	// DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Handler serves the order intake API, delegating validation to the order
// pipeline and mapping outcomes to HTTP responses.
type Handler struct {
	orders    Evaluator
	maxBody   int64
	processed metric.Int64Counter
}

// NewHandler constructs a Handler. Outcome counters are registered on meter.
func NewHandler(cfg HandlerConfig, orders Evaluator, meter metric.Meter) (*Handler, error) {
	processed, err := meter.Int64Counter("order.processed",
		metric.WithDescription("Order payloads processed, by outcome and rejection kind"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create order.processed counter")
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Handler{
		orders:    orders,
		maxBody:   maxBody,
		processed: processed,
	}, nil
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.PlaceOrder)
}

func (h *Handler) count(ctx context.Context, outcome string, kind order.Kind) {
	h.processed.Add(ctx, 1, metric.WithAttributes(
		outcomeKey.String(outcome),
		kindKey.String(string(kind)),
	))
}
