// Package env resolves command settings from cobra flags and the environment.
package env

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/agentuity/go-memo/logger"
	"github.com/agentuity/go-memo/telemetry"
	"github.com/spf13/cobra"
)

// Environment variables consulted when the matching flag is unset.
const (
	LogLevelEnv   = logger.LevelEnv
	OTLPURLEnv    = "MEMO_OTLP_URL"
	OTLPTokenEnv  = "MEMO_OTLP_TOKEN"
	StoreEnv      = "MEMO_STORE"
	ConfigFileEnv = "MEMO_CONFIG"
)

// FlagOrEnv will try and get a flag from the cobra.Command and if not found, look it up in the environment
// and fallback to defaultValue if non found
func FlagOrEnv(cmd *cobra.Command, flagName string, envName string, defaultValue string) string {
	flagValue, _ := cmd.Flags().GetString(flagName)
	if flagValue != "" {
		return flagValue
	}
	if val, ok := os.LookupEnv(envName); ok && val != "" {
		return val
	}
	return defaultValue
}

// LogLevel resolves --log-level, then MEMO_LOG_LEVEL, defaulting to info.
func LogLevel(cmd *cobra.Command) logger.LogLevel {
	level, _ := logger.ParseLevel(FlagOrEnv(cmd, "log-level", LogLevelEnv, "info"))
	return level
}

// NewLogger returns a console logger by first checking the cobra.Command log-level flag, then use the
// MEMO_LOG_LEVEL environment value and falling back to the info logger level
func NewLogger(cmd *cobra.Command) logger.Logger {
	log.SetFlags(0)
	return logger.NewConsoleLogger(LogLevel(cmd))
}

// NewTelemetry returns a telemetry context, logger, shutdown function. The cobra flags it expects are:
//
// --otlp-url (string): the url of the otlp collector. Telemetry is off when it is empty.
//
// --otlp-token (string): bearer token sent to the collector
func NewTelemetry(ctx context.Context, cmd *cobra.Command, serviceName string) (context.Context, logger.Logger, func(), error) {
	otlpURL := FlagOrEnv(cmd, "otlp-url", OTLPURLEnv, "")
	if otlpURL == "" {
		return ctx, NewLogger(cmd), func() {}, nil
	}
	otlpToken := FlagOrEnv(cmd, "otlp-token", OTLPTokenEnv, "")

	telemetryCtx, logger, shutdown, err := telemetry.New(ctx, serviceName, otlpURL, otlpToken, NewLogger(cmd))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error creating telemetry: %w", err)
	}
	return telemetryCtx, logger, shutdown, nil
}
