package loam

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/sitenav/internal/testutils"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource(t *testing.T, files map[string]string) (string, *Source) {
	t.Helper()
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteDocs(t, dir, files)
	src := New(loam.NewTypedRepository[PageMetadata](repo))
	t.Cleanup(src.Close)
	return dir, src
}

func latest(t *testing.T, root *domain.Node) domain.Mapping {
	t.Helper()
	require.Equal(t, domain.RoutesReactive, root.Routes.Kind)
	ch, cancel := root.Routes.Stream.Subscribe()
	defer cancel()
	select {
	case routes := <-ch:
		require.Equal(t, domain.RoutesStatic, routes.Kind)
		return routes.Static
	case <-time.After(time.Second):
		t.Fatal("no routes emitted")
		return nil
	}
}

func TestSource_Load(t *testing.T) {
	_, src := newSource(t, map[string]string{
		"index.md": "---\ntitle: Docs\n---\nWelcome",
		"guide/index.md": "---\ntitle: Guide\norder: 1\nheader:\n  icon: book\n---\nGuide intro",
		"guide/install.md": "---\ntitle: Installation\norder: 1\n---\n# Install",
		"guide/Usage Notes.md": "---\ntitle: Usage\norder: 2\n---\n# Usage",
		"faq.md": "---\ntitle: FAQ\norder: 2\nleaf: true\n---\nQuestions",
		"drafts/wip.md": "---\ntitle: WIP\nhidden: true\n---\nNot yet",
	})

	root, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Docs", root.Name)
	assert.Equal(t, "Welcome", root.Layout.(Page).Markdown)

	top := latest(t, root)
	assert.Equal(t, []string{"/drafts", "/guide", "/faq"}, top.Segments(), "pages without order sort first")

	guide, ok := top.Lookup("/guide")
	require.True(t, ok)
	assert.Equal(t, "Guide", guide.Name)
	assert.Equal(t, "book", guide.Header.(map[string]any)["icon"])
	assert.Equal(t, []string{"/install", "/usage-notes"}, guide.Routes.Static.Segments())

	install, _ := guide.Routes.Static.Lookup("/install")
	page := install.Layout.(Page)
	assert.Equal(t, "guide/install.md", page.File)
	assert.Contains(t, page.Markdown, "# Install")

	faq, _ := top.Lookup("/faq")
	require.NotNil(t, faq.Leaf)
	assert.True(t, *faq.Leaf)

	drafts, _ := top.Lookup("/drafts")
	assert.Equal(t, "drafts", drafts.Name)
	assert.Equal(t, domain.RoutesNone, drafts.Routes.Kind, "hidden pages are skipped")

	again, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, root, again)
}

func TestSource_Reload(t *testing.T) {
	dir, src := newSource(t, map[string]string{
		"index.md": "---\ntitle: Docs\n---\n",
		"a.md":     "---\ntitle: A\n---\n",
	})
	root, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/a"}, latest(t, root).Segments())

	testutils.WriteDocs(t, dir, map[string]string{"b.md": "---\ntitle: B\n---\n"})
	require.NoError(t, src.Reload(context.Background()))
	assert.Equal(t, []string{"/a", "/b"}, latest(t, root).Segments())
}

func TestSource_ReadsPageContent(t *testing.T) {
	_, src := newSource(t, map[string]string{
		"index.md":       "---\ntitle: Docs\n---\nSee @nav/api/intro",
		"api/intro.md":   "---\ntitle: Intro\n---\n# Intro\n\nBody text.",
		"api/specs.json": `{"title": "Specs"}`,
	})

	root, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "See @nav/api/intro", root.Layout.(Page).Markdown)
	assert.Equal(t, "index.md", root.Layout.(Page).File)

	api, ok := latest(t, root).Lookup("/api")
	require.True(t, ok)
	assert.Equal(t, []string{"/intro"}, api.Routes.Static.Segments(), "only markdown documents are pages")

	intro, _ := api.Routes.Static.Lookup("/intro")
	assert.Equal(t, "api/intro.md", intro.Layout.(Page).File)
	assert.Contains(t, intro.Layout.(Page).Markdown, "Body text.")
}

func TestPageSegments(t *testing.T) {
	assert.Equal(t, []string{"guide", "install-steps"}, pageSegments("Guide/Install Steps.md"))
	assert.Equal(t, []string{"guide"}, pageSegments("guide/index.md"))
	assert.Empty(t, pageSegments("README.md"))
	assert.Equal(t, []string{"api", "v2"}, pageSegments("api/v2"))
}
