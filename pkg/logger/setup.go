package logger

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SetupLogger initializes the process-wide default logger from CLI settings.
func SetupLogger(logLevel string, logJSON, logSource bool) {
	var level LogLevel
	switch logLevel {
	case "debug":
		level = DebugLevel
	case "info":
		level = InfoLevel
	case "warn":
		level = WarnLevel
	case "error":
		level = ErrorLevel
	case "disabled":
		level = DisabledLevel
	default:
		level = InfoLevel
	}
	Init(&Config{
		Level:      level,
		Output:     DefaultConfig().Output,
		JSON:       logJSON,
		AddSource:  logSource,
		TimeFormat: "15:04:05",
	})
}

// GetLoggerConfig reads the shared logging flags from a cobra command.
func GetLoggerConfig(cmd *cobra.Command) (string, bool, bool, error) {
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get log-json flag: %w", err)
	}
	logSource, err := cmd.Flags().GetBool("log-source")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get log-source flag: %w", err)
	}
	return logLevel, logJSON, logSource, nil
}
