package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/order-intake/internal/domain/order"
)

const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

var (
	outcomeKey = attribute.Key("order.outcome")
	kindKey    = attribute.Key("order.rejection_kind")
)

// PlaceOrder reads the raw order payload, runs it through the pipeline and
// writes either the canonical order (200) or a rejection (400).
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx)
	span := trace.SpanFromContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			lg.Info("Order rejected",
				zap.String("kind", string(order.KindStructure)),
				zap.String("reason", "request body too large"),
				zap.Int64("limit", tooLarge.Limit),
			)
			h.reject(ctx, span, order.KindStructure)
			writeError(w, http.StatusRequestEntityTooLarge, order.KindStructure, "request body too large")
			return
		}
		lg.Warn("Read request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, order.KindStructure, "cannot read request body")
		return
	}

	out, err := h.orders.Evaluate(body)
	if err != nil {
		lg.Error("Process order", zap.Error(err))
		span.SetAttributes(outcomeKey.String(outcomeFailed))
		h.count(ctx, outcomeFailed, "")
		writeError(w, http.StatusInternalServerError, "", "internal error")
		return
	}

	if !out.Accepted() {
		rej := out.Rejection
		lg.Info("Order rejected",
			zap.String("kind", string(rej.Kind())),
			zap.String("reason", rej.Message()),
		)
		h.reject(ctx, span, rej.Kind())
		writeError(w, http.StatusBadRequest, rej.Kind(), rej.Message())
		return
	}

	o := out.Order
	lg.Debug("Order accepted",
		zap.String("currency", o.Currency.Code),
		zap.String("price", o.PriceString()),
	)
	span.SetAttributes(outcomeKey.String(outcomeAccepted))
	h.count(ctx, outcomeAccepted, "")
	writeJSON(w, http.StatusOK, o.Encode)
}

// reject records a rejection on both the span and the outcome counter.
func (h *Handler) reject(ctx context.Context, span trace.Span, kind order.Kind) {
	span.SetAttributes(outcomeKey.String(outcomeRejected), kindKey.String(string(kind)))
	h.count(ctx, outcomeRejected, kind)
}

// writeError writes {"code":..,"kind":..,"message":..}; kind is omitted when empty.
func writeError(w http.ResponseWriter, status int, kind order.Kind, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			if kind != "" {
				e.Field("kind", func(e *jx.Encoder) { e.Str(string(kind)) })
			}
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already sent; a write error means the client went away.
	_, _ = w.Write(e.Bytes())
}
