package resolver_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/sitenav/internal/resolver"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(name string) *domain.Node {
	return &domain.Node{Name: name}
}

func route(segment string, n *domain.Node) domain.Route {
	return domain.Route{Segment: segment, Node: n}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	require.NotNil(t, ch)
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pending resolution")
	}
}

func TestResolve_Static(t *testing.T) {
	root := &domain.Node{Name: "Home", Routes: domain.Static(
		route("/static", &domain.Node{Name: "Static", Routes: domain.Static(
			route("/foo", page("Foo")),
		)}),
		route("/about", page("About")),
	)}
	r := resolver.New(root)
	defer r.Close()

	t.Run("Root", func(t *testing.T) {
		res := r.Resolve("/")
		require.Equal(t, domain.TargetResolved, res.Kind)
		assert.Equal(t, "Home", res.Node.Name)
		assert.False(t, res.Node.Leaf)
	})

	t.Run("Nested", func(t *testing.T) {
		res := r.Resolve("/static/foo")
		require.Equal(t, domain.TargetResolved, res.Kind)
		assert.Equal(t, "Foo", res.Node.Name)
		assert.Equal(t, "/static/foo", res.Node.Path)
		assert.True(t, res.Node.Leaf)
	})

	t.Run("Deterministic", func(t *testing.T) {
		a := r.Resolve("/static/foo")
		b := r.Resolve("//static/foo/")
		assert.Same(t, a.Node, b.Node)
	})

	t.Run("UnknownSegment", func(t *testing.T) {
		res := r.Resolve("/static/baz")
		assert.Equal(t, domain.TargetNotFound, res.Kind)
		assert.ErrorIs(t, res.Err, domain.ErrNotFound)
	})

	t.Run("BelowLeaf", func(t *testing.T) {
		res := r.Resolve("/about/more")
		assert.Equal(t, domain.TargetNotFound, res.Kind)
	})

	t.Run("Children", func(t *testing.T) {
		kids, ok := r.Children("/")
		require.True(t, ok)
		require.Len(t, kids, 2)
		assert.Equal(t, "/static", kids[0].Path)
		assert.Equal(t, "/about", kids[1].Path)

		_, ok = r.Children("/about")
		assert.False(t, ok)
	})
}

func TestResolve_ExplicitLeaf(t *testing.T) {
	root := &domain.Node{Name: "Home", Routes: domain.Sync(func(domain.RouteContext) (domain.Mapping, error) {
		return domain.Mapping{
			route("/leaf", &domain.Node{Name: "Leaf", Leaf: domain.Bool(true)}),
			route("/dir", page("Dir")),
		}, nil
	})}
	r := resolver.New(root)
	defer r.Close()

	leaf := r.Resolve("/leaf")
	require.Equal(t, domain.TargetResolved, leaf.Kind)
	assert.True(t, leaf.Node.Leaf)
	assert.Equal(t, domain.TargetNotFound, r.Resolve("/leaf/x").Kind)

	dir := r.Resolve("/dir")
	require.Equal(t, domain.TargetResolved, dir.Kind)
	assert.False(t, dir.Node.Leaf, "children of a catch-all provider may have children")
}

func TestResolve_SyncCatchAll(t *testing.T) {
	var mu sync.Mutex
	var calls []domain.RouteContext
	catchAll := domain.Sync(func(ctx domain.RouteContext) (domain.Mapping, error) {
		mu.Lock()
		calls = append(calls, ctx)
		mu.Unlock()
		switch ctx.Path {
		case "/":
			return domain.Mapping{route("/foo", page("foo"))}, nil
		case "/foo":
			return domain.Mapping{route("/bar", page("bar"))}, nil
		}
		return nil, nil
	})
	root := &domain.Node{Name: "Home", Routes: domain.Static(
		route("/dynamic", &domain.Node{Name: "Dynamic", Routes: catchAll}),
	)}
	r := resolver.New(root)
	defer r.Close()

	res := r.Resolve("/dynamic/foo/bar")
	require.Equal(t, domain.TargetResolved, res.Kind)
	assert.Equal(t, "bar", res.Node.Name)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 2)
	assert.Equal(t, "/", calls[0].Path)
	assert.Equal(t, "/dynamic", calls[0].Base)
	assert.Equal(t, "/foo", calls[1].Path)

	// Cached: no further calls.
	r.Resolve("/dynamic/foo/bar")
	assert.Len(t, calls, 2)
}

func TestResolve_SyncFailures(t *testing.T) {
	root := &domain.Node{Name: "Home", Routes: domain.Static(
		route("/err", &domain.Node{Name: "Err", Routes: domain.Sync(func(domain.RouteContext) (domain.Mapping, error) {
			return nil, errors.New("boom")
		})}),
		route("/panic", &domain.Node{Name: "Panic", Routes: domain.Sync(func(domain.RouteContext) (domain.Mapping, error) {
			panic("kaboom")
		})}),
		route("/invalid", &domain.Node{Name: "Invalid", Routes: domain.Sync(func(domain.RouteContext) (domain.Mapping, error) {
			return domain.Mapping{route("no-slash", page("x"))}, nil
		})}),
	)}
	r := resolver.New(root)
	defer r.Close()

	for _, p := range []string{"/err/x", "/panic/x", "/invalid/x"} {
		res := r.Resolve(p)
		assert.Equal(t, domain.TargetNotFound, res.Kind, p)
		assert.ErrorIs(t, res.Err, domain.ErrNotFound, p)
	}
}

func TestResolve_Async(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	launches := 0
	fail := false
	root := &domain.Node{Name: "Home", Routes: domain.Static(
		route("/async", &domain.Node{Name: "Async", Routes: domain.Async(func(ctx context.Context, _ domain.RouteContext) (domain.Mapping, error) {
			mu.Lock()
			launches++
			shouldFail := fail
			mu.Unlock()
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if shouldFail {
				return nil, errors.New("unavailable")
			}
			return domain.Mapping{route("/foo", page("foo"))}, nil
		})}),
	)}
	r := resolver.New(root)
	defer r.Close()

	first := r.Resolve("/async/foo")
	require.Equal(t, domain.TargetPending, first.Kind)
	second := r.Resolve("/async/foo")
	require.Equal(t, domain.TargetPending, second.Kind)

	close(release)
	waitFor(t, first.Wait)

	res := r.Resolve("/async/foo")
	require.Equal(t, domain.TargetResolved, res.Kind)
	assert.Equal(t, "foo", res.Node.Name)

	mu.Lock()
	assert.Equal(t, 1, launches, "async provider launched once per node")
	fail = true
	mu.Unlock()

	r.Invalidate("/async")
	if retry := r.Resolve("/async/foo"); retry.Kind == domain.TargetPending {
		waitFor(t, retry.Wait)
	}

	failed := r.Resolve("/async/foo")
	assert.Equal(t, domain.TargetNotFound, failed.Kind)
	assert.Equal(t, domain.TargetNotFound, r.Resolve("/async/foo").Kind, "failures are cached")
}

func TestResolve_Reactive(t *testing.T) {
	subject := stream.NewSubject[domain.Routes]()
	var mu sync.Mutex
	var updates []string

	root := &domain.Node{Name: "Home", Routes: domain.Static(
		route("/dynamic", &domain.Node{Name: "Dynamic", Routes: domain.Reactive(subject)}),
	)}
	r := resolver.New(root, resolver.WithUpdateHandler(func(owner string) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, owner)
	}))
	defer r.Close()

	pending := r.Resolve("/dynamic/foo")
	require.Equal(t, domain.TargetPending, pending.Kind)
	assert.Equal(t, []string{"/dynamic"}, r.Subscriptions())

	subject.Next(domain.Static(route("/foo", page("foo"))))
	waitFor(t, pending.Wait)

	res := r.Resolve("/dynamic/foo")
	require.Equal(t, domain.TargetResolved, res.Kind)
	assert.Equal(t, "foo", res.Node.Name)

	subject.Next(domain.Static(route("/bar", page("bar"))))
	assert.Eventually(t, func() bool {
		return r.Resolve("/dynamic/bar").Kind == domain.TargetResolved
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.TargetNotFound, r.Resolve("/dynamic/foo").Kind)

	mu.Lock()
	assert.Equal(t, []string{"/dynamic"}, updates)
	mu.Unlock()
}

func TestResolve_ReactiveEndsWithoutValue(t *testing.T) {
	subject := stream.NewSubject[domain.Routes]()
	root := &domain.Node{Name: "Home", Routes: domain.Reactive(subject)}
	r := resolver.New(root)
	defer r.Close()

	pending := r.Resolve("/x")
	require.Equal(t, domain.TargetPending, pending.Kind)
	subject.Close()
	waitFor(t, pending.Wait)
	assert.Equal(t, domain.TargetNotFound, r.Resolve("/x").Kind)
}

func TestResolve_NestedSubscriptionsReleasedOnEmission(t *testing.T) {
	outer := stream.NewSubject[domain.Routes]()
	inner := stream.NewSubject[domain.Routes]()
	inner.Next(domain.Static(route("/leaf", page("leaf"))))

	outer.Next(domain.Static(route("/inner", &domain.Node{Name: "inner", Routes: domain.Reactive(inner)})))
	root := &domain.Node{Name: "Home", Routes: domain.Static(
		route("/outer", &domain.Node{Name: "outer", Routes: domain.Reactive(outer)}),
	)}
	r := resolver.New(root)
	defer r.Close()

	var res resolver.Result
	for i := 0; i < 3; i++ {
		res = r.Resolve("/outer/inner/leaf")
		if res.Kind != domain.TargetPending {
			break
		}
		waitFor(t, res.Wait)
	}
	require.Equal(t, domain.TargetResolved, res.Kind)
	assert.Equal(t, []string{"/outer", "/outer/inner"}, r.Subscriptions())
	assert.Equal(t, 1, inner.Subscribers())

	outer.Next(domain.Static(route("/other", page("other"))))
	assert.Eventually(t, func() bool {
		return inner.Subscribers() == 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"/outer"}, r.Subscriptions())
}

func TestRetainAndClose(t *testing.T) {
	a := stream.NewBehaviorSubject(domain.Static(route("/x", page("x"))))
	b := stream.NewBehaviorSubject(domain.Static(route("/y", page("y"))))
	root := &domain.Node{Name: "Home", Routes: domain.Static(
		route("/a", &domain.Node{Name: "A", Routes: domain.Reactive(a)}),
		route("/b", &domain.Node{Name: "B", Routes: domain.Reactive(b)}),
	)}
	r := resolver.New(root)

	for _, p := range []string{"/a/x", "/b/y"} {
		res := r.Resolve(p)
		if res.Kind == domain.TargetPending {
			waitFor(t, res.Wait)
			res = r.Resolve(p)
		}
		require.Equal(t, domain.TargetResolved, res.Kind, p)
	}
	require.Equal(t, []string{"/a", "/b"}, r.Subscriptions())

	r.Retain("/a/x")
	assert.Equal(t, []string{"/a"}, r.Subscriptions())
	assert.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 5*time.Millisecond)

	r.Close()
	assert.Empty(t, r.Subscriptions())
	assert.Equal(t, 0, a.Subscribers())
	assert.Equal(t, domain.TargetNotFound, r.Resolve("/a/x").Kind)
}

func TestVisitor(t *testing.T) {
	var mu sync.Mutex
	seen := map[string][]string{}
	root := &domain.Node{Name: "Home", Routes: domain.Static(
		route("/b", page("B")),
		route("/a", &domain.Node{Name: "A", Routes: domain.Static(route("/c", page("C")))}),
	)}
	r := resolver.New(root, resolver.WithVisitor(func(parent string, children []*domain.ResolvedNode) {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range children {
			seen[parent] = append(seen[parent], c.Path)
		}
	}))
	defer r.Close()

	require.Equal(t, domain.TargetResolved, r.Resolve("/a/c").Kind)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/b", "/a"}, seen["/"])
	assert.Equal(t, []string{"/a/c"}, seen["/a"])
}

func TestResolveChildren(t *testing.T) {
	release := make(chan struct{})
	root := &domain.Node{Name: "Home", Routes: domain.Static(
		route("/lazy", &domain.Node{Name: "Lazy", Routes: domain.Async(func(ctx context.Context, _ domain.RouteContext) (domain.Mapping, error) {
			<-release
			return domain.Mapping{route("/one", page("one")), route("/two", page("two"))}, nil
		})}),
		route("/leaf", page("Leaf")),
	)}
	r := resolver.New(root)
	defer r.Close()

	res := r.ResolveChildren("/lazy")
	require.Equal(t, domain.TargetPending, res.Kind)
	close(release)
	waitFor(t, res.Wait)

	res = r.ResolveChildren("/lazy")
	require.Equal(t, domain.TargetResolved, res.Kind)
	kids, ok := r.Children("/lazy")
	require.True(t, ok)
	require.Len(t, kids, 2)
	assert.Equal(t, "/lazy/two", kids[1].Path)

	leaf := r.ResolveChildren("/leaf")
	assert.Equal(t, domain.TargetResolved, leaf.Kind)
	_, ok = r.Children("/leaf")
	assert.False(t, ok)
}

func TestResolve_ReactiveEmissionDuringResolution(t *testing.T) {
	subject := stream.NewSubject[domain.Routes]()
	entered := make(chan struct{})
	unblock := make(chan struct{})
	updated := make(chan string, 1)

	var mu sync.Mutex
	calls := 0
	subject.Next(domain.Sync(func(domain.RouteContext) (domain.Mapping, error) {
		mu.Lock()
		calls++
		block := calls == 2
		mu.Unlock()
		if block {
			close(entered)
			<-unblock
		}
		return domain.Mapping{route("/old", page("old"))}, nil
	}))
	root := &domain.Node{Name: "Home", Routes: domain.Static(
		route("/r", &domain.Node{Name: "R", Routes: domain.Reactive(subject)}),
	)}
	r := resolver.New(root, resolver.WithUpdateHandler(func(owner string) {
		updated <- owner
	}))
	defer r.Close()

	res := r.Resolve("/r/old")
	for res.Kind == domain.TargetPending {
		waitFor(t, res.Wait)
		res = r.Resolve("/r/old")
	}
	require.Equal(t, domain.TargetResolved, res.Kind)

	// Evaluate the first emission again, and replace it while the provider runs.
	r.Invalidate("/r")
	stale := make(chan resolver.Result, 1)
	go func() { stale <- r.Resolve("/r/old") }()
	waitFor(t, entered)

	subject.Next(domain.Static(route("/new", page("new"))))
	select {
	case owner := <-updated:
		require.Equal(t, "/r", owner)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the emission")
	}
	close(unblock)

	res = <-stale
	assert.Equal(t, domain.TargetNotFound, res.Kind, "a mapping from a replaced emission is not recorded")

	fresh := r.Resolve("/r/new")
	require.Equal(t, domain.TargetResolved, fresh.Kind)
	assert.Equal(t, "new", fresh.Node.Name)
	assert.Equal(t, domain.TargetNotFound, r.Resolve("/r/old").Kind)

	kids, ok := r.Children("/r")
	require.True(t, ok)
	require.Len(t, kids, 1)
	assert.Equal(t, "/r/new", kids[0].Path)
}

func TestResolveChildren_ProviderFailure(t *testing.T) {
	root := &domain.Node{Name: "Home", Routes: domain.Static(
		route("/api", &domain.Node{Name: "API", Routes: domain.Async(func(context.Context, domain.RouteContext) (domain.Mapping, error) {
			return nil, errors.New("boom")
		})}),
	)}
	r := resolver.New(root)
	defer r.Close()

	res := r.ResolveChildren("/api")
	if res.Kind == domain.TargetPending {
		waitFor(t, res.Wait)
		res = r.ResolveChildren("/api")
	}
	assert.Equal(t, domain.TargetNotFound, res.Kind)
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)
	assert.ErrorContains(t, res.Err, "boom")

	node := r.Resolve("/api")
	require.Equal(t, domain.TargetResolved, node.Kind, "the branch itself stays reachable")
	assert.Equal(t, "API", node.Node.Name)
	_, ok := r.Children("/api")
	assert.False(t, ok)
}
