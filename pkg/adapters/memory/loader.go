package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/sitenav/pkg/domain"
)

// Source implements ports.NavigationSource for a navigation built in code.
type Source struct {
	root *domain.Node
}

// NewSource creates a Source serving root. Static mappings are validated eagerly.
func NewSource(root *domain.Node) (*Source, error) {
	if root == nil {
		return nil, fmt.Errorf("navigation root is nil")
	}
	if err := validateStatic(root, "/"); err != nil {
		return nil, err
	}
	return &Source{root: root}, nil
}

// Load returns the navigation root.
func (s *Source) Load(ctx context.Context) (*domain.Node, error) {
	return s.root, nil
}

func validateStatic(n *domain.Node, path string) error {
	if n.Routes.Kind != domain.RoutesStatic {
		return nil
	}
	if err := n.Routes.Static.Validate(); err != nil {
		return fmt.Errorf("invalid routes at %s: %w", path, err)
	}
	for _, r := range n.Routes.Static {
		child := path + r.Segment
		if path == "/" {
			child = r.Segment
		}
		if err := validateStatic(r.Node, child); err != nil {
			return err
		}
	}
	return nil
}
