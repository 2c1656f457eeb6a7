package config

import (
	"reflect"
	"sync"
)

// EnvMapping ties an environment variable to a config path.
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
}

var (
	cachedMappings []EnvMapping
	mappingsOnce   sync.Once
)

// GenerateEnvMappings generates environment variable mappings from config struct tags.
func GenerateEnvMappings() []EnvMapping {
	mappingsOnce.Do(func() {
		cfg := &Config{}
		cachedMappings = extractMappings(reflect.TypeOf(cfg).Elem(), "")
	})
	return cachedMappings
}

// extractMappings recursively extracts env mappings from struct fields.
func extractMappings(t reflect.Type, prefix string) []EnvMapping {
	var mappings []EnvMapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" || koanfTag == "-" {
			continue
		}

		configPath := koanfTag
		if prefix != "" {
			configPath = prefix + "." + koanfTag
		}

		envTag := field.Tag.Get("env")
		if envTag != "" && envTag != "-" {
			mappings = append(mappings, EnvMapping{
				EnvVar:     envTag,
				ConfigPath: configPath,
			})
		}

		if field.Type.Kind() == reflect.Struct {
			if field.Type.PkgPath() == "time" {
				continue
			}
			submappings := extractMappings(field.Type, configPath)
			mappings = append(mappings, submappings...)
		}
	}
	return mappings
}

// GenerateEnvToConfigMap generates a map from env var to config path.
func GenerateEnvToConfigMap() map[string]string {
	mappings := GenerateEnvMappings()
	result := make(map[string]string, len(mappings))
	for _, m := range mappings {
		result[m.EnvVar] = m.ConfigPath
	}
	return result
}

// IsSensitiveConfigPath reports whether a config path holds a secret.
func IsSensitiveConfigPath(configPath string) bool {
	cfg := &Config{}
	return checkSensitiveField(reflect.TypeOf(cfg).Elem(), splitPath(configPath))
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}

// checkSensitiveField recursively checks if a field is marked as sensitive.
func checkSensitiveField(t reflect.Type, pathParts []string) bool {
	if len(pathParts) == 0 {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		koanfTag := field.Tag.Get("koanf")

		if koanfTag == pathParts[0] {
			if len(pathParts) == 1 {
				if field.Type.Name() == "SensitiveString" {
					return true
				}
				return field.Tag.Get("sensitive") == "true"
			}

			if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
				return checkSensitiveField(field.Type, pathParts[1:])
			}
		}
	}
	return false
}
