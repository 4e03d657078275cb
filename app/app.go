// ABOUTME: Application container wiring config, logging, gateway and stores
// ABOUTME: Each front end builds one App and shares its session and record stores
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/harperreed/ancora/config"
	"github.com/harperreed/ancora/gateway"
	"github.com/harperreed/ancora/kvstore"
	"github.com/harperreed/ancora/logging"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/session"
	"github.com/harperreed/ancora/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the long-lived components. Nothing here is global; tests
// build as many isolated instances as they need.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Gateway  gateway.Gateway
	Session  *session.Store
	Guard    *session.Guard
	Records  *store.Store

	// Local is the embedded backend, nil on REST. Operator commands such
	// as confirming an email only exist there.
	Local *gateway.Local

	kv      *kvstore.Client
	closers []func() error

	mu      sync.Mutex
	metrics *http.Server
}

// Option adjusts construction.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	navigator session.Navigator
}

// WithLogger replaces the logger built from the config.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithNavigator receives guard navigation, such as the redirect to login
// after sign-out.
func WithNavigator(nav session.Navigator) Option {
	return func(o *options) { o.navigator = nav }
}

// New builds the gateway selected by cfg and the stores on top of it.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return nil, err
		}
	}
	for _, w := range cfg.Warnings() {
		logger.Warn("configuration", zap.String("problem", w))
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector())

	kv, err := kvstore.Open(kvstore.Config{
		Host:     cfg.CharmHost,
		AutoSync: cfg.CharmHost != "",
		Dir:      cfg.KVPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open kv store: %w", err)
	}
	a.kv = kv
	a.closers = append(a.closers, kv.Close)

	gw, err := a.openGateway(kvstore.NewEntry[gateway.Session](kv, kvstore.KeyGatewaySession))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Gateway = gateway.NewInstrumented(gw, gateway.NewMetrics(a.Registry))

	a.Session = session.NewStore(a.Gateway, a.Gateway,
		kvstore.NewEntry[models.Profile](kv, kvstore.KeySessionUser), logger.Named("session"))
	a.Guard = session.NewGuard(a.Session, a.Gateway, o.navigator, logger.Named("guard"))
	a.Records = store.New(a.Gateway, logger.Named("store"))

	logger.Debug("application ready", zap.String("backend", cfg.Backend))
	return a, nil
}

func (a *App) openGateway(cache gateway.SessionCache) (gateway.Gateway, error) {
	switch a.Config.Backend {
	case config.BackendREST:
		return gateway.NewREST(a.Config.SupabaseURL, a.Config.SupabaseAnonKey, a.Logger.Named("rest"),
			gateway.WithSessionCache(cache)), nil
	case config.BackendLocal:
		local, err := gateway.OpenLocal(a.Config.DBPath, a.Logger.Named("local"),
			gateway.WithLocalSessionCache(cache),
			gateway.WithEmailConfirmation(a.Config.ConfirmEmail))
		if err != nil {
			return nil, fmt.Errorf("failed to open local backend: %w", err)
		}
		a.closers = append(a.closers, local.Close)
		a.Local = local
		return local, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", a.Config.Backend)
	}
}

// Bootstrap restores the persisted user, resolves the session within
// timeout and starts reacting to auth events. It reports whether the
// session resolved before the timer.
func (a *App) Bootstrap(ctx context.Context, timeout time.Duration) bool {
	a.Session.Hydrate()
	ready := a.Guard.Initialize(ctx, timeout)
	a.Guard.Start(ctx)
	return ready
}

// SyncState pushes and pulls the persisted session keys through charm when
// a host is configured, then reports how many keys are stored. Without a
// host the badger store is only counted.
func (a *App) SyncState() (int, error) {
	if err := a.kv.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync kv store: %w", err)
	}
	keys, err := a.kv.Keys()
	if err != nil {
		return 0, fmt.Errorf("failed to list kv keys: %w", err)
	}
	a.Logger.Debug("kv synced", zap.Bool("remote", a.Config.CharmHost != ""), zap.Int("keys", len(keys)))
	return len(keys), nil
}

// MetricsHandler serves the app registry.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
}

// ServeMetrics starts the /metrics listener when an address is configured.
func (a *App) ServeMetrics() {
	if a.Config.MetricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.MetricsHandler())
	srv := &http.Server{
		Addr:              a.Config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.mu.Lock()
	a.metrics = srv
	a.mu.Unlock()

	go func() {
		a.Logger.Info("serving metrics", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
}

// Close stops the metrics listener and releases storage.
func (a *App) Close() error {
	a.mu.Lock()
	srv := a.metrics
	a.metrics = nil
	a.mu.Unlock()

	var errs []error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		errs = append(errs, srv.Shutdown(ctx))
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
