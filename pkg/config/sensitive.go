package config

import "encoding/json"

// redactedPlaceholder replaces secret values in logs and serialized output.
const redactedPlaceholder = "[REDACTED]"

// SensitiveString holds a secret value that must not leak through logs,
// fmt verbs or JSON serialization. Use Value() to read the actual secret.
type SensitiveString string

// String implements fmt.Stringer and redacts non-empty values.
func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return redactedPlaceholder
}

// GoString implements fmt.GoStringer so %#v stays redacted too.
func (s SensitiveString) GoString() string {
	return "config.SensitiveString(" + s.String() + ")"
}

// Value returns the underlying secret.
func (s SensitiveString) Value() string {
	return string(s)
}

// IsEmpty reports whether no secret is set.
func (s SensitiveString) IsEmpty() bool {
	return s == ""
}

// MarshalJSON serializes the redacted form, never the secret.
func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the raw secret from JSON input.
func (s *SensitiveString) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SensitiveString(raw)
	return nil
}
