package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MergeCatalogFile reads a YAML catalog overlay from path and appends its
// emotions, concepts, and relationships to base. Entries whose names collide
// with base entries are ignored during graph construction (first write wins),
// so an overlay can only extend the taxonomy, never redefine it.
//
// Overlay format mirrors the Catalog struct:
//
//	concepts:
//	  - name: commute
//	    category: daily_life
//	    emotional_associations: {stress: 0.6}
//	relationships:
//	  - {source: commute, target: anger, type: triggers, strength: 0.5}
func MergeCatalogFile(base Catalog, path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("knowledge: failed to read catalog overlay: %w", err)
	}

	var overlay Catalog
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return base, fmt.Errorf("knowledge: failed to parse catalog overlay: %w", err)
	}

	base.Emotions = append(base.Emotions, overlay.Emotions...)
	base.Concepts = append(base.Concepts, overlay.Concepts...)
	base.Relationships = append(base.Relationships, overlay.Relationships...)

	return base, nil
}
