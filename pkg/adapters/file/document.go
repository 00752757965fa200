package file

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Supported formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Document is the on-disk shape of a navigation node.
// It uses "mapstructure" tags so every format decodes through the same path.
type Document struct {
	Segment  string         `mapstructure:"segment"`
	Name     string         `mapstructure:"name"`
	Header   map[string]any `mapstructure:"header"`
	Layout   any            `mapstructure:"layout"`
	Leaf     *bool          `mapstructure:"leaf"`
	Children []Document     `mapstructure:"children"`
}

// FormatOf returns the format of a file from its extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported navigation file %q", path)
	}
}

// Decode parses a navigation document.
func Decode(data []byte, format string) (*domain.Node, error) {
	raw := make(map[string]any)
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	case FormatTOML:
		err = toml.Unmarshal(data, &raw)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(&raw)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s navigation: %w", format, err)
	}

	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid navigation document: %w", err)
	}

	root := doc.node()
	if err := validate(root, "/"); err != nil {
		return nil, err
	}
	return root, nil
}

func (d Document) node() *domain.Node {
	n := &domain.Node{
		Name:   d.Name,
		Layout: d.Layout,
		Leaf:   d.Leaf,
	}
	if len(d.Header) > 0 {
		n.Header = d.Header
	}
	if len(d.Children) > 0 {
		routes := make([]domain.Route, 0, len(d.Children))
		for _, c := range d.Children {
			segment := c.Segment
			if !strings.HasPrefix(segment, "/") {
				segment = "/" + segment
			}
			routes = append(routes, domain.Route{Segment: segment, Node: c.node()})
		}
		n.Routes = domain.Static(routes...)
	}
	return n
}

func validate(n *domain.Node, path string) error {
	if n.Routes.Kind != domain.RoutesStatic {
		return nil
	}
	if err := n.Routes.Static.Validate(); err != nil {
		return fmt.Errorf("invalid children of %s: %w", path, err)
	}
	for _, r := range n.Routes.Static {
		if err := validate(r.Node, strings.TrimSuffix(path, "/")+r.Segment); err != nil {
			return err
		}
	}
	return nil
}
