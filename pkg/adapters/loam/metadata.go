package loam

import (
	"encoding/json"
	"strconv"
)

// PageMetadata is the frontmatter of a documentation page.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type PageMetadata struct {
	Title string `json:"title" mapstructure:"title"`
	// Order sorts siblings (ascending). Loam's strict mode decodes numbers as json.Number,
	// so any numeric representation is accepted.
	Order  any            `json:"order" mapstructure:"order"`
	Leaf   *bool          `json:"leaf" mapstructure:"leaf"`
	Hidden bool           `json:"hidden" mapstructure:"hidden"`
	Layout string         `json:"layout" mapstructure:"layout"`
	Header map[string]any `json:"header" mapstructure:"header"`
}

// Page is the layout attached to nodes loaded from a repository.
type Page struct {
	Template string `json:"template,omitempty"`
	File     string `json:"file"`
	Markdown string `json:"markdown"`
}

func (m PageMetadata) order() float64 {
	switch v := m.Order.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}
