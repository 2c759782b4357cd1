// Package app собирает сервис оформления заказов: конфигурация, зависимости,
// HTTP-сервер и сервер метрик, graceful shutdown.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
	"github.com/vladislavdragonenkov/checkout/internal/service/settlement"
	transport "github.com/vladislavdragonenkov/checkout/internal/transport/http"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run запускает сервис и блокируется до отмены контекста или фатальной ошибки.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Close ждёт остановки воркеров, поэтому контекст отменяется
	// на любом пути выхода, включая фатальную ошибку сервера.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	deps.StartNotifier(ctx)

	adapter := settlement.NewAdapter(
		logger.WithField("component", "settlement"),
		settlement.WithConfirmLatency(cfg.ConfirmLatency),
	)
	orchestrator := checkout.NewOrchestrator(
		deps.Ledger,
		adapter,
		deps.Notifier,
		logger.WithField("component", "checkout"),
	)

	healthHandler := health.NewHandler(version.String())
	if deps.Store != nil {
		healthHandler.RegisterChecker("postgres", health.NewPingChecker("postgres", deps.Store.Ping))
	}
	if deps.Redis != nil {
		redisClient := deps.Redis
		healthHandler.RegisterChecker("redis", health.NewPingChecker("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}

	handler := transport.NewHandler(orchestrator, deps.Ledger, deps.Catalog, log.StandardLogger())
	router := transport.NewRouter(handler, healthHandler)

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP сервер слушает %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(srv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer поднимает отдельный HTTP-сервер с /metrics и health-пробами.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *health.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("сервер метрик завершился с ошибкой")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("shutdown завершился с ошибкой")
	}
}
