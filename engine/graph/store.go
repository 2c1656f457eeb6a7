package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/verdicthq/verdict/engine/core"
	"github.com/verdicthq/verdict/pkg/logger"
)

// UnknownNodeType is assigned to edge endpoints created implicitly by
// AddEdge when the referenced node was never added explicitly.
const UnknownNodeType = "Unknown"

// Config controls where the graph snapshot lives. An empty Path keeps the
// store purely in memory.
type Config struct {
	Path string
}

// Store is a directed labeled multigraph: multiple edges may connect the
// same ordered node pair as long as their relationship labels differ.
// Re-adding an existing (source, target, relationship) replaces that
// edge's attributes in place.
type Store struct {
	mu    sync.RWMutex
	path  string
	nodes map[string]core.Attributes
	ids   []string
	out   map[string][]edge
}

type edge struct {
	target       string
	relationship string
	attrs        core.Attributes
}

// Stats reports the size of the graph.
type Stats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// NewStore builds a Store and loads the snapshot at cfg.Path when one
// exists. A missing or unreadable snapshot yields an empty graph.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("graph: config is required")
	}
	s := &Store{
		nodes: make(map[string]core.Attributes),
		out:   make(map[string][]edge),
	}
	if cfg.Path != "" {
		s.path = filepath.Clean(cfg.Path)
		dir := filepath.Dir(s.path)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("graph: ensure directory %q: %w", dir, err)
		}
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	stats := s.Stats()
	logger.FromContext(ctx).Debug("Knowledge graph store ready",
		"path", s.path, "nodes", stats.Nodes, "edges", stats.Edges)
	return s, nil
}

// AddNode inserts or updates a node. Incoming attributes are merged over
// the existing ones; nodeType is applied only when the node has no type
// yet, so an implicit "Unknown" endpoint keeps its first concrete type.
func (s *Store) AddNode(id, nodeType string, attrs core.Attributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addNodeLocked(id, nodeType, attrs)
}

// AddEdge inserts a directed edge labeled with relationship. Missing
// endpoints are created implicitly with type "Unknown" rather than
// failing. An edge with the same (source, target, relationship) already
// present has its attributes replaced, keeping its original position.
func (s *Store) AddEdge(source, target, relationship string, attrs core.Attributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addEdgeLocked(source, target, relationship, attrs)
}

// AddTriplet inserts both endpoint nodes and the connecting edge.
func (s *Store) AddTriplet(t Triplet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addNodeLocked(t.Subject, t.SubjectType, nil)
	s.addNodeLocked(t.Object, t.ObjectType, nil)
	s.addEdgeLocked(t.Subject, t.Object, t.Relationship, t.EdgeAttrs)
}

// AddTriplets parses and inserts raw triplet rows (the 3/5/6 element
// forms accepted by ParseTriplet). Invalid rows are skipped with a
// warning instead of aborting the batch. Returns the number of rows
// actually inserted.
func (s *Store) AddTriplets(ctx context.Context, rows [][]any) int {
	log := logger.FromContext(ctx)
	added := 0
	for _, row := range rows {
		t, err := ParseTriplet(row)
		if err != nil {
			log.Warn("Skipping invalid triplet", "row", row, "error", err)
			continue
		}
		s.AddTriplet(t)
		added++
	}
	return added
}

// HasNode reports whether a node with the given id exists.
func (s *Store) HasNode(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok
}

// NodeAttributes returns a copy of the node's attribute map, including
// its "type" entry, or false when the node does not exist.
func (s *Store) NodeAttributes(id string) (core.Attributes, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attrs, ok := s.nodes[id]
	if !ok {
		return nil, false
	}
	return core.Attributes(core.CloneMap(attrs)), true
}

// EdgeAttributes returns a copy of the attribute map on the edge with the
// given relationship between source and target, or false when no such
// edge exists.
func (s *Store) EdgeAttributes(source, target, relationship string) (core.Attributes, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.out[source] {
		if e.target == target && e.relationship == relationship {
			return core.Attributes(core.CloneMap(e.attrs)), true
		}
	}
	return nil, false
}

// Neighbors returns the distinct successor ids of a node, ordered by
// first edge insertion. Unknown nodes yield an empty slice.
func (s *Store) Neighbors(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edges := s.out[id]
	seen := make(map[string]struct{}, len(edges))
	neighbors := make([]string, 0, len(edges))
	for _, e := range edges {
		if _, dup := seen[e.target]; dup {
			continue
		}
		seen[e.target] = struct{}{}
		neighbors = append(neighbors, e.target)
	}
	return neighbors
}

// QueryGraph returns the targets of outgoing edges from start, in edge
// insertion order. An empty relationship matches any label; a non-empty
// targetType keeps only targets whose node "type" equals it. Parallel
// matching edges to the same target produce duplicate entries. A missing
// start node yields an empty result.
func (s *Store) QueryGraph(start, relationship, targetType string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := []string{}
	for _, e := range s.out[start] {
		if relationship != "" && e.relationship != relationship {
			continue
		}
		if targetType != "" {
			attrs, ok := s.nodes[e.target]
			if !ok {
				continue
			}
			if t, _ := attrs["type"].(string); t != targetType {
				continue
			}
		}
		results = append(results, e.target)
	}
	return results
}

// Stats returns the node and edge counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edges := 0
	for _, out := range s.out {
		edges += len(out)
	}
	return Stats{Nodes: len(s.nodes), Edges: edges}
}

// Save writes the graph snapshot atomically (temp file then rename).
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.path == "" {
		return errors.New("graph: no snapshot path configured")
	}
	payload := snapshot{
		Nodes: make([]snapshotNode, 0, len(s.ids)),
		Edges: make([]snapshotEdge, 0),
	}
	for _, id := range s.ids {
		payload.Nodes = append(payload.Nodes, snapshotNode{
			ID:         id,
			Attributes: s.nodes[id],
		})
		for _, e := range s.out[id] {
			payload.Edges = append(payload.Edges, snapshotEdge{
				Source:       id,
				Target:       e.target,
				Relationship: e.relationship,
				Attributes:   e.attrs,
			})
		}
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: encode snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("graph: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("graph: commit snapshot: %w", err)
	}
	return nil
}

// Load replaces the in-memory graph with the snapshot on disk. A missing
// file resets the graph to empty; a corrupt file does the same and logs a
// warning rather than failing, so a damaged snapshot never blocks startup.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("graph: read %q: %w", s.path, err)
	}
	var payload snapshot
	if err := json.Unmarshal(data, &payload); err != nil {
		logger.FromContext(ctx).Warn("Corrupt graph snapshot, starting empty",
			"path", s.path, "error", err)
		return nil
	}
	for i := range payload.Nodes {
		n := payload.Nodes[i]
		s.addNodeLocked(n.ID, "", core.Attributes(n.Attributes))
	}
	for i := range payload.Edges {
		e := payload.Edges[i]
		s.addEdgeLocked(e.Source, e.Target, e.Relationship, core.Attributes(e.Attributes))
	}
	return nil
}

func (s *Store) resetLocked() {
	s.nodes = make(map[string]core.Attributes)
	s.ids = nil
	s.out = make(map[string][]edge)
}

func (s *Store) addNodeLocked(id, nodeType string, attrs core.Attributes) {
	node, ok := s.nodes[id]
	if !ok {
		node = core.Attributes{}
		s.nodes[id] = node
		s.ids = append(s.ids, id)
	}
	for k, v := range core.CloneMap(attrs) {
		node[k] = v
	}
	if nodeType != "" {
		if _, has := node["type"]; !has {
			node["type"] = nodeType
		}
	}
}

func (s *Store) addEdgeLocked(source, target, relationship string, attrs core.Attributes) {
	if _, ok := s.nodes[source]; !ok {
		s.addNodeLocked(source, UnknownNodeType, nil)
	}
	if _, ok := s.nodes[target]; !ok {
		s.addNodeLocked(target, UnknownNodeType, nil)
	}
	cloned := core.Attributes(core.CloneMap(attrs))
	for i, e := range s.out[source] {
		if e.target == target && e.relationship == relationship {
			s.out[source][i].attrs = cloned
			return
		}
	}
	s.out[source] = append(s.out[source], edge{
		target:       target,
		relationship: relationship,
		attrs:        cloned,
	})
}

type snapshot struct {
	Nodes []snapshotNode `json:"nodes"`
	Edges []snapshotEdge `json:"edges"`
}

type snapshotNode struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type snapshotEdge struct {
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	Relationship string         `json:"relationship"`
	Attributes   map[string]any `json:"attributes,omitempty"`
}
