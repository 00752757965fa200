package domain

// Issuer records who requested a navigation.
type Issuer string

const (
	IssuerBrowser    Issuer = "browser"
	IssuerNavigation Issuer = "navigation"
	IssuerLink       Issuer = "link"
	IssuerScroll     Issuer = "scroll"
)

// UrlTarget is a parsed location: "<path>[.<sectionId>]" plus query parameters.
type UrlTarget struct {
	Path        string            `json:"path"`
	SectionID   string            `json:"sectionId,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Issuer      Issuer            `json:"issuer,omitempty"`
	ForceReload bool              `json:"forceReload,omitempty"`
}

// SameLocation reports whether both targets point at the same path and section.
func (u UrlTarget) SameLocation(o UrlTarget) bool {
	return u.Path == o.Path && u.SectionID == o.SectionID
}

// ResolvedNode is the resolution result of one path.
// Pointers are stable: the same *ResolvedNode is returned until its branch is invalidated.
type ResolvedNode struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Header any    `json:"header,omitempty"`
	Layout any    `json:"layout,omitempty"`
	Leaf   bool   `json:"leaf"`
	Spec   *Node  `json:"-"`
}

// TargetKind is the outcome of a resolution.
type TargetKind string

const (
	TargetResolved TargetKind = "Resolved"
	TargetPending  TargetKind = "Pending"
	TargetNotFound TargetKind = "NotFound"
)

// Target is the router's answer for a UrlTarget.
type Target struct {
	Kind        TargetKind        `json:"kind"`
	Path        string            `json:"path"`
	SectionID   string            `json:"sectionId,omitempty"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Issuer      Issuer            `json:"issuer,omitempty"`
	Node        *ResolvedNode     `json:"node,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	ForceReload bool              `json:"forceReload,omitempty"`
	Generation  uint64            `json:"generation"`
}

// IsTerminal reports whether the target is Resolved or NotFound.
func (t Target) IsTerminal() bool {
	return t.Kind == TargetResolved || t.Kind == TargetNotFound
}

// URL returns the location the target was requested for.
func (t Target) URL() UrlTarget {
	return UrlTarget{Path: t.Path, SectionID: t.SectionID, Parameters: t.Parameters, Issuer: t.Issuer}
}

// RouteContext is handed to function providers.
type RouteContext struct {
	// Path is relative to the provider owner; "/" asks for the owner's direct children.
	Path string
	// Base is the absolute path of the node declaring the provider.
	Base string
	// Router gives access to the navigation state; nil when resolving outside a router.
	Router Navigator
}

// Navigator is the subset of the router exposed to providers.
type Navigator interface {
	Current() Target
	FireNavigateTo(target UrlTarget)
}

// History is a persisted browser history.
type History struct {
	Entries []UrlTarget `json:"entries"`
	Index   int         `json:"index"`
}

// Current returns the entry at Index.
func (h History) Current() (UrlTarget, bool) {
	if h.Index < 0 || h.Index >= len(h.Entries) {
		return UrlTarget{}, false
	}
	return h.Entries[h.Index], true
}
