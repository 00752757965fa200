package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/sitenav"
	"github.com/aretw0/sitenav/internal/logging"
	"github.com/aretw0/sitenav/pkg/adapters/file"
	"github.com/aretw0/sitenav/pkg/adapters/memory"
	"github.com/aretw0/sitenav/pkg/adapters/redis"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/observability"
	"github.com/aretw0/sitenav/pkg/persistence/middleware"
	"github.com/aretw0/sitenav/pkg/ports"
	"github.com/aretw0/sitenav/pkg/session"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger configures the application logger.
// In debug mode, it writes to Stderr (to separate from Stdout output).
func NewLogger(debug bool) *slog.Logger {
	return ConfigureLogger(Config{Debug: debug})
}

// ConfigureLogger builds the logger described by cfg.
func ConfigureLogger(cfg Config) *slog.Logger {
	if !cfg.Debug {
		return logging.NewNop()
	}
	return logging.New(slog.LevelDebug, logging.WithFormat(cfg.LogFormat))
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// RouterOptions translates the configuration into router options.
// Extra hooks are combined with the debug logging hooks.
func RouterOptions(cfg Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) []sitenav.Option {
	opts := []sitenav.Option{
		sitenav.WithLogger(logger),
		sitenav.WithScrollingDebounce(cfg.Router.ScrollDebounce),
		sitenav.WithRetryPeriod(cfg.Router.RetryPeriod),
	}
	if len(cfg.Router.IgnoredPaths) > 0 {
		opts = append(opts, sitenav.WithIgnoredPaths(cfg.Router.IgnoredPaths...))
	}
	if len(cfg.Router.Aliases) > 0 {
		opts = append(opts, sitenav.WithPathAliases(cfg.Router.Aliases))
	}

	if cfg.Debug {
		hooks = append([]domain.LifecycleHooks{observability.LoggingHooks(logger)}, hooks...)
	}
	if len(hooks) > 0 {
		opts = append(opts, sitenav.WithLifecycleHooks(observability.Combine(hooks...)))
	}
	return opts
}

// NewHistoryStore returns the session manager browser histories are persisted through.
// Redis is used when configured, then a history directory; otherwise histories live
// in memory. Sensitive parameters are masked, and histories encrypted when a key is
// configured.
func NewHistoryStore(cfg HistoryConfig, logger *slog.Logger) (*session.Manager, func() error, error) {
	var mws []middleware.Middleware
	if len(cfg.MaskParameters) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.MaskParameters))
	}
	if cfg.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil || len(key) != 32 {
			return nil, nil, errors.New("history encryption key must be 32 base64-encoded bytes")
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	if cfg.RedisAddr == "" {
		var store ports.HistoryStore = memory.NewStore()
		if cfg.Dir != "" {
			store = file.NewHistoryStore(cfg.Dir)
		}
		return session.NewManager(middleware.Chain(store, mws...), session.WithLogger(logger)), func() error { return nil }, nil
	}

	store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
		redis.WithPrefix(cfg.Prefix),
		redis.WithTTL(cfg.TTL),
	)
	return session.NewManager(middleware.Chain(store, mws...), session.WithLogger(logger)), store.Close, nil
}

// InterruptibleReader wraps an io.Reader (like os.Stdin) and checks for a cancellation signal.
type InterruptibleReader struct {
	base   io.Reader
	cancel <-chan struct{}
}

func NewInterruptibleReader(base io.Reader, cancel <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{
		base:   base,
		cancel: cancel,
	}
}

var errInterrupted = errors.New("interrupted")

func (r *InterruptibleReader) Read(p []byte) (n int, err error) {
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}

	n, err = r.base.Read(p)

	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}
	return n, err
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, errInterrupted) ||
		errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
