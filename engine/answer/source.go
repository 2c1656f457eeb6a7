package answer

import (
	"encoding/json"
	"sort"
	"strings"
)

// Source identifies where an answer came from. It is either free text
// (a backend label like "Knowledge Graph") or a set of document source
// labels collected from retrieved chunks. The two forms serialize as a
// JSON string and a JSON array respectively.
type Source struct {
	text string
	set  []string
}

// TextSource returns a free-text source.
func TextSource(text string) Source {
	return Source{text: text}
}

// SetSource returns a set source with duplicates removed and labels
// sorted. Collection order is irrelevant; the same labels always
// produce the same source.
func SetSource(items ...string) Source {
	seen := make(map[string]struct{}, len(items))
	set := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		set = append(set, item)
	}
	sort.Strings(set)
	return Source{set: set}
}

// IsSet reports whether the source is a set of labels.
func (s Source) IsSet() bool {
	return s.set != nil
}

// Text returns the free-text form, or "" for set sources.
func (s Source) Text() string {
	return s.text
}

// Set returns a copy of the label set, or nil for text sources.
func (s Source) Set() []string {
	if s.set == nil {
		return nil
	}
	out := make([]string, len(s.set))
	copy(out, s.set)
	return out
}

// String renders either form for logs and plain-text output.
func (s Source) String() string {
	if s.IsSet() {
		return strings.Join(s.set, ", ")
	}
	return s.text
}

// MarshalJSON emits a string for text sources and an array for sets.
func (s Source) MarshalJSON() ([]byte, error) {
	if s.IsSet() {
		return json.Marshal(s.set)
	}
	return json.Marshal(s.text)
}

// UnmarshalJSON accepts both the string and the array form.
func (s *Source) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = TextSource(text)
		return nil
	}
	var set []string
	if err := json.Unmarshal(data, &set); err != nil {
		return err
	}
	*s = SetSource(set...)
	return nil
}
