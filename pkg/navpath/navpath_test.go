package navpath_test

import (
	"testing"

	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		path    string
		section string
	}{
		{"Root", "/", "/", ""},
		{"Empty", "", "/", ""},
		{"Simple", "/a/b", "/a/b", ""},
		{"NoLeadingSlash", "a/b", "/a/b", ""},
		{"DuplicateSlashes", "//a///b/", "/a/b", ""},
		{"Section", "/a/b.intro", "/a/b", "intro"},
		{"SectionWithDots", "/a/b.intro.sub", "/a/b", "intro.sub"},
		{"RootSection", "/.intro", "/", "intro"},
		{"TrailingSlashSection", "/a/.intro", "/a", "intro"},
		{"EmptySection", "/a.", "/", ""},
		{"DotInInnerSegment", "/a.b/c", "/", ""},
		{"ParentSegment", "/a/../b", "/", ""},
		{"Query", "/a?x=1", "/", ""},
		{"Control", "/a\x00b", "/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := navpath.Parse(tt.raw)
			assert.Equal(t, tt.path, got.Path)
			assert.Equal(t, tt.section, got.SectionID)
		})
	}
}

func TestParseURL(t *testing.T) {
	got := navpath.ParseURL("https://example.org/site/?nav=/docs/api.usage&theme=dark")
	assert.Equal(t, "/docs/api", got.Path)
	assert.Equal(t, "usage", got.SectionID)
	assert.Equal(t, map[string]string{"theme": "dark"}, got.Parameters)

	assert.Equal(t, "/", navpath.ParseURL("https://example.org/").Path)
	assert.Equal(t, "/x", navpath.ParseURL("?nav=/x").Path)
	assert.Equal(t, "/", navpath.ParseURL("%zz").Path)
}

func TestFormatAndHref(t *testing.T) {
	target := domain.UrlTarget{Path: "/a/b", SectionID: "intro"}
	assert.Equal(t, "/a/b.intro", navpath.Format(target))
	assert.Equal(t, "/", navpath.Format(domain.UrlTarget{}))

	back := navpath.ParseURL(navpath.Href(target))
	assert.Equal(t, target.Path, back.Path)
	assert.Equal(t, target.SectionID, back.SectionID)
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, []string{"/", "/a", "/a/b"}, navpath.PathIDs("/a/b"))
	assert.Equal(t, []string{"/"}, navpath.PathIDs("/"))
	assert.Equal(t, []string{"/a", "/b"}, navpath.Segments("/a/b"))
	assert.Empty(t, navpath.Segments("/"))
	assert.Equal(t, "/a", navpath.Parent("/a/b"))
	assert.Equal(t, "/", navpath.Parent("/a"))
	assert.Equal(t, "/", navpath.Parent("/"))
	assert.Equal(t, "/a/b", navpath.Join("/a", "/b"))
	assert.Equal(t, "/b", navpath.Join("/", "/b"))

	assert.True(t, navpath.IsWithin("/a/b", "/a"))
	assert.True(t, navpath.IsWithin("/a", "/a"))
	assert.True(t, navpath.IsWithin("/a", "/"))
	assert.False(t, navpath.IsWithin("/ab", "/a"))

	assert.Equal(t, "/", navpath.Relative("/a", "/a"))
	assert.Equal(t, "/b/c", navpath.Relative("/a/b/c", "/a"))
	assert.Equal(t, "/a", navpath.Relative("/a", "/"))
	assert.Equal(t, 2, navpath.Depth("/a/b"))
}

func TestResolveHRef(t *testing.T) {
	aliases := map[string]string{
		"api":  "@nav/api/v1",
		"repo": "https://github.com/aretw0/sitenav",
	}
	assert.Equal(t, "?nav=/x", navpath.ResolveHRef("@nav/x", aliases))
	assert.Equal(t, "?nav=/api/v1/formatting", navpath.ResolveHRef("@nav[api]/formatting", aliases))
	assert.Equal(t, "https://github.com/aretw0/sitenav", navpath.ResolveHRef("@nav[repo]", aliases))
	assert.Equal(t, "@nav[missing]/x", navpath.ResolveHRef("@nav[missing]/x", aliases))
	assert.Equal(t, "https://example.org", navpath.ResolveHRef("https://example.org", aliases))
}

func TestHeadingID(t *testing.T) {
	assert.Equal(t, "mk-head-intro", navpath.HeadingID("intro"))
	assert.Equal(t, "mk-head-_1-start", navpath.HeadingID("1-start"))
	assert.Equal(t, "mk-head-ab", navpath.HeadingID("a b"))
	assert.Equal(t, "mk-head-_", navpath.HeadingID(""))
}
