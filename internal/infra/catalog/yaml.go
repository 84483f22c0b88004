package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/partner-review/internal/domain/controls"
)

type file struct {
	Controls []controls.Control `yaml:"controls"`
}

// Load reads the catalog YAML at path. A missing path yields an empty catalog.
func Load(path string) (controls.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return controls.Catalog{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read control catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog YAML and rejects blank or duplicate ids.
func Parse(data []byte) (controls.Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse control catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Controls))
	for i, c := range f.Controls {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return nil, fmt.Errorf("control catalog: entry %d has no id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("control catalog: duplicate id %s", id)
		}
		seen[id] = struct{}{}
		f.Controls[i].ID = id
	}
	return controls.Catalog(f.Controls), nil
}
