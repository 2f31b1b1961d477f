package models

import "fmt"

// SourceType identifies how a source definition is interpreted
type SourceType string

const (
	// SourceTypeDirect names one or more explicit page URLs, fetched as-is
	SourceTypeDirect SourceType = "direct"
	// SourceTypeTree names a root page whose descendants are crawled
	SourceTypeTree SourceType = "tree"
	// SourceTypeTag names discovery-service labels that resolve to page URLs
	SourceTypeTag SourceType = "tag"
	// SourceTypeFile names local files whose content was already extracted
	// to text upstream
	SourceTypeFile SourceType = "file"
)

// SourceDefinition is one entry in the sources file. The Type field selects
// the variant; unrelated fields are ignored for that variant.
type SourceDefinition struct {
	Name     string     `toml:"name" yaml:"name" json:"name" validate:"required"`
	Type     SourceType `toml:"type" yaml:"type" json:"type" validate:"required,oneof=direct tree tag file"`
	URL      string     `toml:"url" yaml:"url" json:"url,omitempty"`
	URLs     []string   `toml:"urls" yaml:"urls" json:"urls,omitempty"`
	Labels   []string   `toml:"labels" yaml:"labels" json:"labels,omitempty"`
	Paths    []string   `toml:"paths" yaml:"paths" json:"paths,omitempty"`
	MaxDepth int        `toml:"max_depth" yaml:"max_depth" json:"max_depth,omitempty"`
	MaxPages int        `toml:"max_pages" yaml:"max_pages" json:"max_pages,omitempty"`
}

// Validate checks variant-specific requirements that struct tags cannot express
func (s *SourceDefinition) Validate() error {
	switch s.Type {
	case SourceTypeDirect:
		if s.URL == "" && len(s.URLs) == 0 {
			return fmt.Errorf("source %q: direct source requires url or urls", s.Name)
		}
	case SourceTypeTree:
		if s.URL == "" {
			return fmt.Errorf("source %q: tree source requires url", s.Name)
		}
	case SourceTypeTag:
		if len(s.Labels) == 0 {
			return fmt.Errorf("source %q: tag source requires labels", s.Name)
		}
	case SourceTypeFile:
		if len(s.Paths) == 0 {
			return fmt.Errorf("source %q: file source requires paths", s.Name)
		}
	default:
		return fmt.Errorf("source %q: unknown type %q", s.Name, s.Type)
	}
	return nil
}

// AllURLs returns the explicit URLs of a direct or tree source
func (s *SourceDefinition) AllURLs() []string {
	urls := make([]string, 0, len(s.URLs)+1)
	if s.URL != "" {
		urls = append(urls, s.URL)
	}
	urls = append(urls, s.URLs...)
	return urls
}
