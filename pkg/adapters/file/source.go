package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/sitenav/internal/logging"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/stream"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups the bursts of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// Source implements ports.NavigationSource for a YAML, TOML or JSON file.
type Source struct {
	path     string
	format   string
	debounce time.Duration
	logger   *slog.Logger
}

// Option configures the Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// WithDebounce sets the quiet period before a changed file is reloaded.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) {
		s.debounce = d
	}
}

// New creates a Source for the navigation file at path.
func New(path string, opts ...Option) (*Source, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	s := &Source{
		path:     abs,
		format:   format,
		debounce: DefaultDebounce,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the absolute path of the navigation file.
func (s *Source) Path() string {
	return s.path
}

// Load reads and decodes the navigation file.
func (s *Source) Load(ctx context.Context) (*domain.Node, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read navigation: %w", err)
	}
	root, err := Decode(data, s.format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return root, nil
}

// Watch loads the navigation and returns a root whose children follow the file:
// every change is re-decoded and emitted to the routers using it. Invalid edits are
// logged and skipped. Watching stops when ctx is done.
func (s *Source) Watch(ctx context.Context) (*domain.Node, error) {
	root, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Editors replace files on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.path, err)
	}

	routes := stream.NewBehaviorSubject(root.Routes)
	reload := stream.NewDebouncer(s.debounce, func(op fsnotify.Op) {
		next, err := s.Load(ctx)
		if err != nil {
			s.logger.Warn("ignoring invalid navigation change", "path", s.path, "op", op.String(), "error", err)
			return
		}
		s.logger.Info("navigation file changed", "path", s.path)
		routes.Next(next.Routes)
	})

	go func() {
		defer watcher.Close()
		defer routes.Close()
		defer reload.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					reload.Push(event.Op)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error("navigation watcher error", "error", err)
			}
		}
	}()

	return &domain.Node{
		Name:   root.Name,
		Header: root.Header,
		Layout: root.Layout,
		Leaf:   root.Leaf,
		Routes: domain.Reactive(routes),
	}, nil
}
