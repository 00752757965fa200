//go:build property

package navpath_test

import (
	"strings"
	"testing"

	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestNavpathProperties runs property-based checks on location parsing.
func TestNavpathProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("parse never yields a malformed path", prop.ForAll(
		func(raw string) bool {
			got := navpath.Parse(raw)
			if !strings.HasPrefix(got.Path, "/") {
				return false
			}
			if got.Path != "/" && strings.HasSuffix(got.Path, "/") {
				return false
			}
			return !strings.Contains(got.Path, "//") && !strings.Contains(got.Path, ".")
		},
		gen.AnyString(),
	))

	properties.Property("format then parse is identity on sanitized paths", prop.ForAll(
		func(parts []string, section string) bool {
			target := navpath.Parse("/" + strings.Join(parts, "/"))
			target.SectionID = section
			back := navpath.Parse(navpath.Format(target))
			return back.Path == target.Path && back.SectionID == target.SectionID
		},
		gen.SliceOf(gen.Identifier()),
		gen.Identifier(),
	))

	properties.Property("every path id is within the path", prop.ForAll(
		func(parts []string) bool {
			p := navpath.Sanitize(strings.Join(parts, "/"))
			ids := navpath.PathIDs(p)
			for _, id := range ids {
				if !navpath.IsWithin(p, id) {
					return false
				}
			}
			return ids[len(ids)-1] == p
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}
