package graph

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/verdicthq/verdict/engine/core"
	"github.com/verdicthq/verdict/pkg/logger"
)

type seedDocument struct {
	Nodes    []seedNode `yaml:"nodes"`
	Triplets [][]any    `yaml:"triplets"`
}

type seedNode struct {
	ID         string          `yaml:"id"`
	Type       string          `yaml:"type"`
	Attributes core.Attributes `yaml:"attributes"`
}

// Seed merges the YAML document at path into the graph. Node entries are
// applied before triplets so explicitly typed nodes keep their declared
// types. Seeding is idempotent: re-applying the same document replaces
// same-key edges instead of duplicating them. An empty path is a no-op.
func (s *Store) Seed(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("graph: read seed %q: %w", path, err)
	}
	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("graph: decode seed %q: %w", path, err)
	}
	log := logger.FromContext(ctx)
	for _, n := range doc.Nodes {
		if n.ID == "" {
			log.Warn("Skipping seed node without id", "path", path)
			continue
		}
		s.AddNode(n.ID, n.Type, n.Attributes)
	}
	added := s.AddTriplets(ctx, doc.Triplets)
	stats := s.Stats()
	log.Info("Seeded knowledge graph",
		"path", path, "triplets", added, "nodes", stats.Nodes, "edges", stats.Edges)
	return nil
}
