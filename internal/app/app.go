package app

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/order-intake/internal/domain/order"
	"github.com/xenking/order-intake/internal/handler"
	"github.com/xenking/order-intake/pkg/health"
	"github.com/xenking/order-intake/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	httpHandler, healthSvc, err := newServerHandler(ctx, lg, m.TracerProvider(), m.MeterProvider(), cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           httpHandler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newServerHandler builds the order pipeline, health endpoints and the
// middleware-wrapped mux served by Run.
func newServerHandler(
	ctx context.Context,
	lg *zap.Logger,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	cfg *Config,
) (http.Handler, *health.Health, error) {
	pipelineCfg, err := cfg.Pipeline.Order()
	if err != nil {
		return nil, nil, errors.Wrap(err, "pipeline config")
	}
	pipeline, err := order.NewPipeline(pipelineCfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create pipeline")
	}
	lg.Info("Order pipeline ready",
		zap.Strings("stages", pipeline.Stages()),
		zap.Strings("currencies", pipelineCfg.Rules.Codes()),
		zap.String("max_price", pipelineCfg.MaxPrice.String()),
	)

	// Readiness is the drain flag alone; the pipeline has nothing external to check.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000, runtime.NumGoroutine))
	healthSvc.SetReady(true)

	h, err := handler.NewHandler(
		handler.HandlerConfig{MaxBodyBytes: cfg.MaxBodyBytes},
		pipeline,
		mp.Meter("github.com/xenking/order-intake/internal/handler"),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create handler")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	middlewares := []httpmiddleware.Middleware{
		httpmiddleware.RequestID(httpmiddleware.RequestIDConfig{}),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.Instrument("order-api", tp, mp),
		httpmiddleware.LogRequests(),
	}
	if cfg.RateLimit.Max > 0 {
		middlewares = append(middlewares, httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}))
	}

	return httpmiddleware.Wrap(mux, middlewares...), healthSvc, nil
}
