package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/sitenav"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func route(segment string, n *domain.Node) domain.Route {
	return domain.Route{Segment: segment, Node: n}
}

func newRouter(t *testing.T, nav *domain.Node, opts ...sitenav.Option) *sitenav.Router {
	t.Helper()
	opts = append([]sitenav.Option{
		sitenav.WithInitialNavigation(false),
		sitenav.WithRetryPeriod(0),
		sitenav.WithScrollingDebounce(0),
	}, opts...)
	r, err := sitenav.New(nav, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestValidateNavigation(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		// / -> /guide -> /guide/install, /faq; links point inside the tree
		nav := &domain.Node{Name: "Home", Layout: "Start with @nav/guide.", Routes: domain.Static(
			route("/guide", &domain.Node{Name: "Guide", Header: map[string]any{"order": 1}, Routes: domain.Static(
				route("/install", &domain.Node{Name: "Install", Layout: "Then read [usage](@nav[faq])."}),
			)}),
			route("/faq", &domain.Node{Name: "FAQ"}),
		)}
		r := newRouter(t, nav, sitenav.WithPathAliases(map[string]string{
			"faq":  "@nav/faq",
			"repo": "https://example.com/repo",
		}))

		require.NoError(t, ValidateNavigation(ctx, r))
		children, ok := r.Explorer().Children("/guide")
		require.True(t, ok)
		assert.Len(t, children, 1)
	})

	t.Run("BrokenLinks", func(t *testing.T) {
		nav := &domain.Node{Name: "Home", Layout: map[string]any{
			"markdown": "See @nav/ghost and @nav[nobody]/x and @nav[repo].",
		}, Routes: domain.Static(
			route("/faq", &domain.Node{Name: "FAQ"}),
		)}
		r := newRouter(t, nav, sitenav.WithPathAliases(map[string]string{"repo": "https://example.com/repo"}))

		err := ValidateNavigation(ctx, r)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "found 2 errors")
		assert.Contains(t, err.Error(), "Page '/': broken link '@nav/ghost'")
		assert.Contains(t, err.Error(), "unknown alias in link '@nav[nobody]/x'")
	})

	t.Run("FailingBranch", func(t *testing.T) {
		nav := &domain.Node{Name: "Home", Routes: domain.Static(
			route("/api", &domain.Node{Name: "API", Routes: domain.Sync(func(domain.RouteContext) (domain.Mapping, error) {
				return nil, errors.New("boom")
			})}),
		)}
		r := newRouter(t, nav)

		err := ValidateNavigation(ctx, r)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Branch '/api' failed to expand")
	})

	t.Run("Headers", func(t *testing.T) {
		nav := &domain.Node{Name: "Home", Header: map[string]any{"order": 0}, Routes: domain.Static(
			route("/a", &domain.Node{Name: "A", Header: map[string]any{"order": "first"}}),
			route("/b", &domain.Node{Name: "B"}),
		)}
		r := newRouter(t, nav)

		s := schema.Schema{"order": schema.Required(schema.Int())}
		err := ValidateNavigation(ctx, r, WithHeaderSchema(s))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "found 2 errors")
		assert.Contains(t, err.Error(), `Page '/a': header "order": expected int, got string`)
		assert.Contains(t, err.Error(), `Page '/b': header "order": required`)
	})

	t.Run("MaxDepth", func(t *testing.T) {
		nav := &domain.Node{Name: "Home", Routes: domain.Static(
			route("/guide", &domain.Node{Name: "Guide", Routes: domain.Static(
				route("/api", &domain.Node{Name: "API", Routes: domain.Sync(func(domain.RouteContext) (domain.Mapping, error) {
					return nil, errors.New("boom")
				})}),
			)}),
		)}
		r := newRouter(t, nav)

		assert.NoError(t, ValidateNavigation(ctx, r, WithMaxDepth(1)))
		assert.Error(t, ValidateNavigation(ctx, r))
	})

	t.Run("Cancelled", func(t *testing.T) {
		r := newRouter(t, &domain.Node{Name: "Home"})
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, ValidateNavigation(cctx, r), context.Canceled)
	})
}

func TestLinks(t *testing.T) {
	text := "Read @nav/guide/install.setup, then [faq](@nav[faq]/q). Not nav/x or @navigate.\n@nav[faq]"
	assert.Equal(t, []string{"@nav/guide/install.setup", "@nav[faq]/q", "@nav[faq]"}, Links(text))
}
