package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/verdicthq/verdict/pkg/logger"
)

// Route binds a verbatim question to a graph pattern query. Questions
// listed in the route table skip backend fanout entirely.
type Route struct {
	Question     string `yaml:"question"     json:"question"`
	StartNode    string `yaml:"start_node"   json:"start_node"`
	Relationship string `yaml:"relationship" json:"relationship"`
	TargetType   string `yaml:"target_type"  json:"target_type"`
}

// RouteTable maps verbatim question text to its pattern query.
type RouteTable map[string]Route

// Lookup returns the route for the exact question text.
func (t RouteTable) Lookup(question string) (Route, bool) {
	route, ok := t[question]
	return route, ok
}

// Entries returns the routes sorted by question for stable listings.
func (t RouteTable) Entries() []Route {
	entries := make([]Route, 0, len(t))
	for _, route := range t {
		entries = append(entries, route)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Question < entries[j].Question })
	return entries
}

// DefaultRoutes returns the built-in route table used when no routes
// file is configured.
func DefaultRoutes() RouteTable {
	return tableOf([]Route{
		{
			Question:     "What condition does Steal Phenomenon cause?",
			StartNode:    "Steal Phenomenon",
			Relationship: "associated_with",
			TargetType:   "Symptom",
		},
		{
			Question:     "Which measurement is used to assess stenosis severity?",
			StartNode:    "ICA/CCA Ratio",
			Relationship: "used_to_classify",
			TargetType:   "Condition",
		},
		{
			Question:     "What artery is required for an arteriovenous fistula?",
			StartNode:    "Arteriovenous Fistula",
			Relationship: "requires",
			TargetType:   "Vessel",
		},
	})
}

// LoadRoutes reads a YAML route list from path. Entries without a
// question or start node are skipped with a warning. An empty path
// yields an empty table.
func LoadRoutes(ctx context.Context, path string) (RouteTable, error) {
	if path == "" {
		return RouteTable{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read routes %q: %w", path, err)
	}
	var routes []Route
	if err := yaml.Unmarshal(data, &routes); err != nil {
		return nil, fmt.Errorf("orchestrator: decode routes %q: %w", path, err)
	}
	log := logger.FromContext(ctx)
	table := make(RouteTable, len(routes))
	for _, route := range routes {
		if route.Question == "" || route.StartNode == "" {
			log.Warn("Skipping incomplete route entry", "path", path, "question", route.Question)
			continue
		}
		if _, exists := table[route.Question]; exists {
			log.Warn("Replacing duplicate route entry", "path", path, "question", route.Question)
		}
		table[route.Question] = route
	}
	log.Info("Loaded exact-match routes", "path", path, "routes", len(table))
	return table, nil
}

func tableOf(routes []Route) RouteTable {
	table := make(RouteTable, len(routes))
	for _, route := range routes {
		table[route.Question] = route
	}
	return table
}
