// Package navpath parses and formats navigation locations.
//
// A location is written "<path>[.<sectionId>]": the path is a '/'-separated list of
// segments and the section id starts at the first '.' of the last segment. In a URL the
// location travels in the "nav" query parameter.
package navpath

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/aretw0/sitenav/pkg/domain"
)

// QueryKey is the URL query parameter carrying the navigation location.
const QueryKey = "nav"

// Root is the path of the navigation root.
const Root = "/"

// HeadingPrefix prefixes the DOM id of section headings.
const HeadingPrefix = "mk-head-"

// Parse parses "<path>[.<sectionId>]". It never fails: malformed input yields the root.
func Parse(raw string) domain.UrlTarget {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "?#\\") || strings.IndexFunc(raw, unicode.IsControl) >= 0 {
		return domain.UrlTarget{Path: Root}
	}

	parts := splitSegments(raw)
	if len(parts) == 0 {
		return domain.UrlTarget{Path: Root}
	}

	var section string
	last := parts[len(parts)-1]
	if i := strings.IndexByte(last, '.'); i >= 0 {
		section = last[i+1:]
		last = last[:i]
		if section == "" {
			return domain.UrlTarget{Path: Root}
		}
		if last == "" {
			// "/.intro" targets a section of the root; "/a/.intro" one of /a.
			parts = parts[:len(parts)-1]
		} else {
			parts[len(parts)-1] = last
		}
	}

	for _, p := range parts {
		if p == ".." || strings.ContainsRune(p, '.') {
			return domain.UrlTarget{Path: Root}
		}
	}

	return domain.UrlTarget{Path: "/" + strings.Join(parts, "/"), SectionID: section}
}

// ParseURL extracts the location carried by the "nav" query parameter of rawURL.
// rawURL may be a full URL, a path with a query, or a bare "?nav=..." query.
// Every other query parameter is kept in Parameters.
func ParseURL(rawURL string) domain.UrlTarget {
	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.UrlTarget{Path: Root}
	}
	q := u.Query()
	target := domain.UrlTarget{Path: Root}
	if v := q.Get(QueryKey); v != "" {
		target = Parse(v)
	}
	for k, vs := range q {
		if k == QueryKey || len(vs) == 0 {
			continue
		}
		if target.Parameters == nil {
			target.Parameters = make(map[string]string)
		}
		target.Parameters[k] = vs[0]
	}
	return target
}

// Format renders a target as "<path>[.<sectionId>]".
func Format(t domain.UrlTarget) string {
	p := Sanitize(t.Path)
	if t.SectionID == "" {
		return p
	}
	return p + "." + t.SectionID
}

// Href renders a target as a relative URL understood by ParseURL.
func Href(t domain.UrlTarget) string {
	q := url.Values{}
	q.Set(QueryKey, Format(t))
	for k, v := range t.Parameters {
		q.Set(k, v)
	}
	return "?" + q.Encode()
}

// Sanitize normalizes a path: one leading slash, no duplicate or trailing slashes.
func Sanitize(p string) string {
	parts := splitSegments(p)
	if len(parts) == 0 {
		return Root
	}
	return "/" + strings.Join(parts, "/")
}

// Segments splits a path into its segments, each with its leading '/'.
func Segments(p string) []string {
	parts := splitSegments(p)
	out := make([]string, len(parts))
	for i, s := range parts {
		out[i] = "/" + s
	}
	return out
}

// PathIDs returns every prefix of p, root first: "/a/b" gives ["/", "/a", "/a/b"].
func PathIDs(p string) []string {
	ids := []string{Root}
	cur := ""
	for _, s := range splitSegments(p) {
		cur += "/" + s
		ids = append(ids, cur)
	}
	return ids
}

// Join appends a segment to a path.
func Join(base, segment string) string {
	return Sanitize(base + "/" + segment)
}

// Parent returns the parent path; the root is its own parent.
func Parent(p string) string {
	parts := splitSegments(p)
	if len(parts) <= 1 {
		return Root
	}
	return "/" + strings.Join(parts[:len(parts)-1], "/")
}

// IsWithin reports whether p equals base or lies under it.
func IsWithin(p, base string) bool {
	p, base = Sanitize(p), Sanitize(base)
	if base == Root || p == base {
		return true
	}
	return strings.HasPrefix(p, base+"/")
}

// Relative returns p relative to base ("/" when equal). p must be within base.
func Relative(p, base string) string {
	p, base = Sanitize(p), Sanitize(base)
	if base == Root {
		return p
	}
	rel := strings.TrimPrefix(p, base)
	if rel == "" {
		return Root
	}
	return rel
}

// Depth returns the number of segments of p.
func Depth(p string) int {
	return len(splitSegments(p))
}

func splitSegments(p string) []string {
	raw := strings.Split(p, "/")
	out := raw[:0]
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

var aliasPattern = regexp.MustCompile(`^@nav\[([^\]]+)\]`)

// ResolveHRef rewrites "@nav" links into routable hrefs.
//
//   - "@nav/x" becomes "?nav=/x".
//   - "@nav[alias]/x" expands the alias; aliases are either "@nav/..." paths or external URLs,
//     in which case the alias value is returned as-is.
//   - Any other href, or an unknown alias, is returned unchanged.
func ResolveHRef(href string, aliases map[string]string) string {
	if !strings.HasPrefix(href, "@nav") {
		return href
	}
	if m := aliasPattern.FindStringSubmatch(href); m != nil {
		base, ok := aliases[m[1]]
		if !ok || base == "" {
			return href
		}
		if !strings.HasPrefix(base, "@nav") {
			return base
		}
		expanded := base + strings.TrimPrefix(href, m[0])
		return strings.Replace(expanded, "@nav", "?"+QueryKey+"=", 1)
	}
	return strings.Replace(href, "@nav", "?"+QueryKey+"=", 1)
}

var cssInvalid = regexp.MustCompile(`[^a-zA-Z0-9\-_.$]`)

// HeadingID returns the DOM id of the heading for a section id.
func HeadingID(id string) string {
	s := cssInvalid.ReplaceAllString(id, "")
	if s == "" || !startsIdentifier(s[0]) {
		s = "_" + s
	}
	return HeadingPrefix + s
}

func startsIdentifier(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
