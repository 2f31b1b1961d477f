package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/colligo/internal/models"
)

// sourcesFile is the on-disk shape of the source definitions document
type sourcesFile struct {
	Sources []models.SourceDefinition `toml:"sources" yaml:"sources" json:"sources"`
}

// LoadSources reads source definitions from a TOML, YAML, or JSON file
// (selected by extension) and validates each entry. Validation failures are
// configuration errors: the caller aborts before any network call.
func LoadSources(path string) ([]models.SourceDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file %s: %w", path, err)
	}

	var doc sourcesFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("unsupported sources file extension: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	if len(doc.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}

	seen := make(map[string]bool, len(doc.Sources))
	for i := range doc.Sources {
		src := &doc.Sources[i]
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("sources file %s: %w", path, err)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("sources file %s: duplicate source name %q", path, src.Name)
		}
		seen[src.Name] = true
	}

	return doc.Sources, nil
}
