package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/sitenav/pkg/adapters/file"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const navYAML = `
name: Home
header:
  icon: home
children:
  - segment: /guide
    name: Guide
    layout: chapter
    children:
      - segment: install
        name: Installation
      - segment: /usage
        name: Usage
        leaf: true
  - segment: /faq
    name: FAQ
`

const navTOML = `
name = "Home"

[[children]]
segment = "/guide"
name = "Guide"

  [[children.children]]
  segment = "/install"
  name = "Installation"

[[children]]
segment = "/faq"
name = "FAQ"
`

const navJSON = `{
  "name": "Home",
  "children": [
    {"segment": "/guide", "name": "Guide", "children": [{"segment": "/install", "name": "Installation"}]},
    {"segment": "/faq", "name": "FAQ"}
  ]
}`

func TestDecode_Formats(t *testing.T) {
	for _, tc := range []struct {
		format string
		data   string
	}{
		{file.FormatYAML, navYAML},
		{file.FormatTOML, navTOML},
		{file.FormatJSON, navJSON},
	} {
		t.Run(tc.format, func(t *testing.T) {
			root, err := file.Decode([]byte(tc.data), tc.format)
			require.NoError(t, err)
			assert.Equal(t, "Home", root.Name)
			assert.Equal(t, []string{"/guide", "/faq"}, root.Routes.Static.Segments())

			guide, ok := root.Routes.Static.Lookup("/guide")
			require.True(t, ok)
			install, ok := guide.Routes.Static.Lookup("/install")
			require.True(t, ok)
			assert.Equal(t, "Installation", install.Name)
		})
	}
}

func TestDecode_Fields(t *testing.T) {
	root, err := file.Decode([]byte(navYAML), file.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "home", root.Header.(map[string]any)["icon"])

	guide, _ := root.Routes.Static.Lookup("/guide")
	assert.Equal(t, "chapter", guide.Layout)
	usage, _ := guide.Routes.Static.Lookup("/usage")
	require.NotNil(t, usage.Leaf)
	assert.True(t, *usage.Leaf)
}

func TestDecode_Errors(t *testing.T) {
	_, err := file.Decode([]byte("name: [unclosed"), file.FormatYAML)
	assert.Error(t, err)

	_, err = file.Decode([]byte("name: Home\nunknown: 1\n"), file.FormatYAML)
	assert.ErrorContains(t, err, "unknown")

	_, err = file.Decode([]byte("name: Home\nchildren:\n  - segment: /a.b\n"), file.FormatYAML)
	assert.ErrorIs(t, err, domain.ErrInvalidSegment)

	_, err = file.Decode([]byte("name: Home\nchildren:\n  - segment: /a\n  - segment: /a\n"), file.FormatYAML)
	assert.Error(t, err)

	_, err = file.New("nav.ini")
	assert.Error(t, err)
}

func writeNav(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.toml")
	writeNav(t, path, navTOML)

	src, err := file.New(path)
	require.NoError(t, err)
	root, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Home", root.Name)
}

func TestSource_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.yaml")
	writeNav(t, path, "name: Home\nchildren:\n  - segment: /a\n    name: A\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src, err := file.New(path, file.WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	root, err := src.Watch(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.RoutesReactive, root.Routes.Kind)

	ch, unsubscribe := root.Routes.Stream.Subscribe()
	defer unsubscribe()
	first := <-ch
	assert.Equal(t, []string{"/a"}, first.Static.Segments())

	// Invalid edits are skipped.
	writeNav(t, path, "name: [")
	writeNav(t, path, "name: Home\nchildren:\n  - segment: /a\n    name: A\n  - segment: /b\n    name: B\n")

	assert.Eventually(t, func() bool {
		select {
		case routes := <-ch:
			return len(routes.Static) == 2
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
