package loam

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/loam"
	"github.com/aretw0/sitenav/internal/logging"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/stream"
)

// WatchPattern selects the documents that make up the navigation.
const WatchPattern = "**/*.md"

// pageExt is the extension Loam stores markdown documents under.
const pageExt = ".md"

// Source builds a navigation from a Loam repository of markdown pages.
//
// "guide/install.md" becomes the page /guide/install and "guide/index.md" describes
// /guide itself. The root page's children are a reactive provider: Watch re-emits
// them whenever a document changes, so routers pick up edits without restarting.
type Source struct {
	Repo   *loam.TypedRepository[PageMetadata]
	logger *slog.Logger

	mu     sync.Mutex
	routes *stream.Subject[domain.Routes]
	root   *domain.Node
}

// Option configures the Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// New creates a Loam navigation source.
func New(repo *loam.TypedRepository[PageMetadata], opts ...Option) *Source {
	s := &Source{
		Repo:   repo,
		logger: logging.NewNop(),
		routes: stream.NewSubject[domain.Routes](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the repository and returns the navigation root.
// Later calls return the same root; use Reload to pick up changes.
func (s *Source) Load(ctx context.Context) (*domain.Node, error) {
	s.mu.Lock()
	root := s.root
	s.mu.Unlock()
	if root != nil {
		return root, nil
	}

	tree, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root == nil {
		s.routes.Next(tree.Routes)
		s.root = &domain.Node{
			Name:   tree.Name,
			Header: tree.Header,
			Layout: tree.Layout,
			Routes: domain.Reactive(s.routes),
		}
	}
	return s.root, nil
}

// Reload rebuilds the navigation and emits the new root children.
func (s *Source) Reload(ctx context.Context) error {
	tree, err := s.build(ctx)
	if err != nil {
		return err
	}
	s.routes.Next(tree.Routes)
	return nil
}

// Watch reloads the navigation on every document change until ctx is done.
func (s *Source) Watch(ctx context.Context) error {
	events, err := s.Repo.Watch(ctx, WatchPattern)
	if err != nil {
		return fmt.Errorf("failed to start loam watcher: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				s.logger.Info("document changed, reloading navigation", "id", evt.ID)
				if err := s.Reload(ctx); err != nil {
					s.logger.Error("failed to reload navigation", "error", err)
				}
			}
		}
	}()
	return nil
}

// Close completes the routes stream.
func (s *Source) Close() {
	s.routes.Close()
}

type page struct {
	segment string
	meta    PageMetadata
	node    *domain.Node
	hasMeta bool
	kids    map[string]*page
}

func newPage(segment string) *page {
	return &page{segment: segment, node: &domain.Node{}, kids: make(map[string]*page)}
}

func (p *page) child(segment string) *page {
	c, ok := p.kids[segment]
	if !ok {
		c = newPage(segment)
		p.kids[segment] = c
	}
	return c
}

// build lists the repository and assembles a static tree. Listed documents carry no
// content, so each page is read back from its markdown file; other documents are skipped.
func (s *Source) build(ctx context.Context) (*domain.Node, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	root := newPage("")
	seen := make(map[string]string)
	pages := 0
	for _, listed := range docs {
		file := filepath.ToSlash(listed.ID)
		if path.Ext(file) != pageExt {
			file += pageExt
		}
		doc, err := s.Repo.Get(ctx, file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Debug("skipping non-markdown document", "id", listed.ID)
				continue
			}
			return nil, fmt.Errorf("loam get failed for %s: %w", file, err)
		}
		segments := pageSegments(file)

		key := "/" + strings.Join(segments, "/")
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("collision detected: page %q is defined in both %q and %q", key, prev, file)
		}
		seen[key] = file

		p := root
		for _, seg := range segments {
			p = p.child(seg)
		}
		p.meta = doc.Data
		p.hasMeta = true
		p.node.Layout = Page{Template: doc.Data.Layout, File: file, Markdown: doc.Content}
		pages++
	}

	s.logger.Debug("navigation built", "documents", len(docs), "pages", pages)
	return finish(root, "Home"), nil
}

func finish(p *page, fallback string) *domain.Node {
	n := p.node
	n.Name = p.meta.Title
	if n.Name == "" {
		n.Name = fallback
	}
	if len(p.meta.Header) > 0 {
		n.Header = p.meta.Header
	}
	n.Leaf = p.meta.Leaf

	kids := make([]*page, 0, len(p.kids))
	for _, c := range p.kids {
		if !c.meta.Hidden {
			kids = append(kids, c)
		}
	}
	sort.Slice(kids, func(i, j int) bool {
		oi, oj := kids[i].meta.order(), kids[j].meta.order()
		if oi != oj {
			return oi < oj
		}
		return kids[i].segment < kids[j].segment
	})

	if len(kids) > 0 {
		routes := make([]domain.Route, 0, len(kids))
		for _, c := range kids {
			routes = append(routes, domain.Route{Segment: "/" + c.segment, Node: finish(c, c.segment)})
		}
		n.Routes = domain.Static(routes...)
	}
	return n
}

// pageSegments maps a document ID to path segments: "Guide/Install Steps.md" gives
// ["guide", "install-steps"], and index documents describe their directory.
func pageSegments(id string) []string {
	id = strings.TrimSuffix(id, path.Ext(id))
	var out []string
	for _, part := range strings.Split(id, "/") {
		if part == "" {
			continue
		}
		out = append(out, slug(part))
	}
	if len(out) > 0 && (out[len(out)-1] == "index" || out[len(out)-1] == "readme") {
		out = out[:len(out)-1]
	}
	return out
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
