package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/aretw0/sitenav"
	httpAdapter "github.com/aretw0/sitenav/pkg/adapters/http"
	"github.com/aretw0/sitenav/pkg/adapters/memory"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/observability"
	"github.com/aretw0/sitenav/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// PrimarySession is the history session of the server's shared router.
const PrimarySession = "primary"

// ServeOptions tunes RunServer beyond the configuration.
type ServeOptions struct {
	// Listener overrides cfg.Server.Addr; used by tests to bind an ephemeral port.
	Listener net.Listener
	// Ready is called with the bound address once the server accepts connections.
	Ready func(addr string)
}

// RunServer serves the navigation over HTTP until ctx is done.
// The shared router restores its history from the configured store; websocket
// clients get a router of their own bound to the remote browser.
func RunServer(ctx context.Context, cfg Config, logger *slog.Logger, out io.Writer, opts ServeOptions) error {
	root, closeNav, err := OpenNavigation(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeNav()

	store, closeStore, err := NewHistoryStore(cfg.History, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("Failed to close history store", "error", err)
		}
	}()

	var hooks []domain.LifecycleHooks
	var metricsHandler http.Handler
	if cfg.Server.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		metrics := observability.NewMetrics(reg)
		hooks = append(hooks, metrics.Hooks())
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	routerOpts := RouterOptions(cfg, logger, hooks...)

	browser := memory.NewBrowser(
		memory.WithStore(store, PrimarySession),
		memory.WithBrowserLogger(logger),
	)
	if _, err := store.LoadOrStart(ctx, PrimarySession, browser.ParseURL()); err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if err := browser.Restore(ctx); err != nil {
		return err
	}

	router, err := sitenav.New(root, append(routerOpts, sitenav.WithBrowserClient(browser))...)
	if err != nil {
		return err
	}
	defer router.Close()

	handler, stop := httpAdapter.NewHandler(router,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetricsHandler(metricsHandler),
		httpAdapter.WithOriginPatterns(cfg.Server.OriginPatterns...),
		httpAdapter.WithSessions(func(client ports.BrowserClient) (httpAdapter.Navigator, error) {
			return sitenav.New(root, append(routerOpts, sitenav.WithBrowserClient(client))...)
		}),
	)
	defer stop()

	ln := opts.Listener
	if ln == nil {
		ln, err = net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
		}
	}
	srv := &http.Server{Handler: handler}

	printSystemMessage(out, "Serving %s on %s", cfg.Source, ln.Addr())
	logger.Info("Server starting", "addr", ln.Addr().String(), "source", cfg.Source)
	if opts.Ready != nil {
		opts.Ready(ln.Addr().String())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "error", err)
			return srv.Close()
		}
		return nil
	})

	err = g.Wait()
	printSystemMessage(out, "Server stopped")
	return err
}
