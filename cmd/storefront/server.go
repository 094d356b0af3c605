package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Abh1nav004/Really/cartstore"
	"github.com/Abh1nav004/Really/catalog"
	"github.com/Abh1nav004/Really/checkout"
	"github.com/Abh1nav004/Really/clock"
	"github.com/Abh1nav004/Really/config"
	"github.com/Abh1nav004/Really/historystore"
	"github.com/Abh1nav004/Really/pricing"
	"github.com/Abh1nav004/Really/services"
	"github.com/Abh1nav004/Really/telemetry"
)

// newHistoryStore picks redis when an address is configured.
func newHistoryStore(cfg *config.Config, log logrus.FieldLogger) (historystore.Store, func() error, error) {
	if cfg.Redis.Addr == "" {
		log.Info("Using LocalHistoryStore")
		return historystore.NewLocalHistoryStore(log), func() error { return nil }, nil
	}
	log.WithField("redis", cfg.Redis.Addr).Info("Using RedisHistoryStore")
	s, err := historystore.NewRedisHistoryStore(cfg.Redis.Addr, log)
	if err != nil {
		return nil, nil, err
	}
	s.SetExpiry(cfg.GetSessionIdleTimeout())
	return s, s.Close, nil
}

// app is everything run serves, built from config.
type app struct {
	cart     *cartstore.LocalCartStore
	history  historystore.Store
	manager  *checkout.Manager
	sessions *services.SessionTracker
	server   *services.Server
	close    func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	cart := cartstore.NewLocalCartStore(log)
	if err := cart.Initialize(ctx); err != nil {
		return nil, errors.Wrap(err, "initialize cart store")
	}

	history, closeHistory, err := newHistoryStore(cfg, log)
	if err != nil {
		return nil, errors.Wrap(err, "create history store")
	}
	if err := history.Initialize(ctx); err != nil {
		_ = closeHistory()
		return nil, errors.Wrap(err, "initialize history store")
	}

	pricer, err := pricing.NewPricer(cfg.GetShipping(), cfg.GetTaxRate())
	if err != nil {
		_ = closeHistory()
		return nil, err
	}

	manager := checkout.NewManager(cart, pricer,
		checkout.WithClock(clock.Real{}),
		checkout.WithDelay(cfg.GetCheckoutDelay()),
		checkout.WithLogger(log),
	)
	cart.Subscribe(manager)

	// redis ages histories out through key expiry instead
	forget := []services.Forgetter{cart, manager}
	if f, ok := history.(services.Forgetter); ok {
		forget = append(forget, f)
	}
	sessions := services.NewSessionTracker(clock.Real{}, cfg.GetSessionIdleTimeout(), log, forget...)

	srv, err := services.NewServer(services.Deps{
		Catalog:  catalog.Default(),
		Cart:     cart,
		Checkout: manager,
		History:  historystore.NewRecorder(history, cfg.Search.HistoryLimit),
		Pricer:   pricer,
		Studio:   services.NewDesignStudio(clock.Real{}, cfg.GetStudioDelay(), log),
		Log:      log,
		Sessions: sessions,
	})
	if err != nil {
		_ = closeHistory()
		return nil, err
	}

	return &app{
		cart:     cart,
		history:  history,
		manager:  manager,
		sessions: sessions,
		server:   srv,
		close:    closeHistory,
	}, nil
}

// closeApp releases what newApp acquired. Failures are logged since run is
// already returning.
func closeApp(a *app, log logrus.FieldLogger) {
	a.sessions.Stop()
	if err := a.close(); err != nil {
		log.WithError(err).Warn("history store close")
	}
}

// run serves HTTP and gRPC until ctx ends or either server fails.
func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	providers, err := telemetry.Setup(ctx, telemetry.Settings{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
	})
	if err != nil {
		return errors.Wrap(err, "initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("telemetry shutdown")
		}
	}()
	log.WithField("enabled", cfg.Telemetry.Enabled).Info("telemetry initialized")

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeApp(a, log)
	a.sessions.Start(cfg.GetSessionSweepInterval())

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return errors.Wrapf(err, "listen on :%s", cfg.Server.GRPCPort)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(grpcServer, services.NewHealthCheckService(log, a.cart, a.history))
	reflection.Register(grpcServer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", httpSrv.Addr).Info("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "serve http")
		}
		return nil
	})
	g.Go(func() error {
		log.WithField("addr", lis.Addr().String()).Info("gRPC health server listening")
		return errors.Wrap(grpcServer.Serve(lis), "serve grpc")
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Received shutdown signal, initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		grpcServer.GracefulStop()
		return errors.Wrap(httpSrv.Shutdown(shutdownCtx), "shutdown http")
	})
	return g.Wait()
}
