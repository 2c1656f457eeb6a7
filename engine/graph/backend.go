package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/verdicthq/verdict/engine/answer"
	"github.com/verdicthq/verdict/engine/core"
	"github.com/verdicthq/verdict/pkg/logger"
)

// BackendID identifies the knowledge graph backend in envelopes.
const BackendID = "knowledge-graph"

const (
	nodeMatchConfidence  = 0.7
	treatsConfidence     = 0.75
	unresolvedConfidence = 0.2

	treatsRelationship = "treats"
	maxNeighborSummary = 3
)

// Querier is the read surface of the knowledge graph consumed at answer
// time. *Store satisfies it; queries never mutate graph state.
type Querier interface {
	NodeAttributes(id string) (core.Attributes, bool)
	Neighbors(id string) []string
	QueryGraph(start, relationship, targetType string) []string
}

// Backend answers questions with direct lookups against the knowledge
// graph. It resolves in three steps: the raw question as a node id, a
// "<subject> treats <object>" keyword pattern, and a low-confidence
// unresolved fallback. It never returns an error.
type Backend struct {
	store Querier
}

// NewBackend wires a Backend to its graph read surface.
func NewBackend(store Querier) (*Backend, error) {
	if store == nil {
		return nil, errors.New("graph: querier is required")
	}
	return &Backend{store: store}, nil
}

// ID implements answer.Backend.
func (b *Backend) ID() string { return BackendID }

// QueryGraph exposes the raw pattern query so exact-match routes can run
// against the same graph the backend answers from.
func (b *Backend) QueryGraph(start, relationship, targetType string) []string {
	return b.store.QueryGraph(start, relationship, targetType)
}

// Query implements answer.Backend.
func (b *Backend) Query(ctx context.Context, question string, _ *answer.QueryContext) (env answer.Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			env = answer.NewError(
				fmt.Sprintf("graph query failed: %v", r),
				answer.TextSource("System"),
				BackendID,
			)
			err = nil
		}
	}()
	log := logger.FromContext(ctx)

	// Step 1: the raw question text as a candidate node id.
	if attrs, ok := b.store.NodeAttributes(question); ok {
		neighbors := b.store.Neighbors(question)
		if len(neighbors) > maxNeighborSummary {
			neighbors = neighbors[:maxNeighborSummary]
		}
		log.Debug("Answered from direct node match", "node", question)
		text := fmt.Sprintf("Found information about %q in the knowledge graph: %s",
			question, formatAttributes(attrs))
		source := fmt.Sprintf("Node: %s, Neighbors: [%s]", question, strings.Join(neighbors, ", "))
		return answer.New(text, nodeMatchConfidence, answer.TextSource(source), BackendID), nil
	}

	// Step 2: "<subject> treats <object>" keyword pattern.
	if subject, ok := treatsSubject(question); ok {
		targets := b.store.QueryGraph(subject, treatsRelationship, "")
		if len(targets) > 0 {
			log.Debug("Answered from treats pattern", "subject", subject, "targets", len(targets))
			text := fmt.Sprintf("%s treats: %s", subject, strings.Join(targets, ", "))
			source := fmt.Sprintf("KG: %s-treats->?", subject)
			return answer.New(text, treatsConfidence, answer.TextSource(source), BackendID), nil
		}
	}

	// Step 3: unresolved.
	log.Debug("Graph backend could not resolve question", "question", question)
	text := fmt.Sprintf("The knowledge graph could not directly answer %q.", question)
	return answer.New(text, unresolvedConfidence, answer.TextSource("Knowledge Graph"), BackendID), nil
}

// treatsSubject extracts the subject node id from a question matching the
// "<subject> treats <object>" pattern. The match is case-insensitive, must
// split the question into exactly two non-empty parts, and capitalizes the
// first letter of the lowercased subject.
func treatsSubject(question string) (string, bool) {
	parts := strings.Split(strings.ToLower(question), treatsRelationship)
	if len(parts) != 2 {
		return "", false
	}
	left := strings.TrimSpace(parts[0])
	right := strings.TrimSpace(parts[1])
	if left == "" || right == "" {
		return "", false
	}
	return capitalizeFirst(left), true
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func formatAttributes(attrs core.Attributes) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s: %v", k, attrs[k]))
	}
	return strings.Join(pairs, ", ")
}
