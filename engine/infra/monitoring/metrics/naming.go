// Package metrics centralizes metric naming and histogram bucket
// conventions so every instrument in the binary shares one prefix.
package metrics

import "strings"

// Prefix is prepended to every metric name emitted by this binary.
const Prefix = "verdict_"

// MetricName returns name with the shared prefix applied. Names that
// already carry the prefix pass through unchanged.
func MetricName(name string) string {
	if strings.HasPrefix(name, Prefix) {
		return name
	}
	return Prefix + name
}

// MetricNameWithSubsystem composes prefix, subsystem, and name. Blank
// segments are skipped so callers can omit the subsystem.
func MetricNameWithSubsystem(subsystem, name string) string {
	parts := make([]string, 0, 2)
	if subsystem != "" {
		parts = append(parts, subsystem)
	}
	if name != "" {
		parts = append(parts, name)
	}
	return Prefix + strings.Join(parts, "_")
}
