package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: CIRGEN_[SECTION]_[KEY] (e.g., CIRGEN_BUILD_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	// Output
	setEnvString(&cfg.Output.Dir, "CIRGEN_OUTPUT_DIR")
	setEnvBool(&cfg.Output.Pretty, "CIRGEN_OUTPUT_PRETTY")
	setEnvString(&cfg.Output.ModulePrefix, "CIRGEN_OUTPUT_MODULE_PREFIX")

	// Heuristics
	setEnvBool(&cfg.Heuristics.FollowTypedefs, "CIRGEN_HEURISTICS_FOLLOW_TYPEDEFS")

	// Build
	setEnvInt(&cfg.Build.Workers, "CIRGEN_BUILD_WORKERS")
	setEnvInt(&cfg.Build.MaxDeclarations, "CIRGEN_BUILD_MAX_DECLARATIONS")

	// Store
	setEnvBoolPtr(&cfg.Store.Enabled, "CIRGEN_STORE_ENABLED")
	setEnvString(&cfg.Store.Path, "CIRGEN_STORE_PATH")
	setEnvDuration(&cfg.Store.BusyTimeout, "CIRGEN_STORE_BUSY_TIMEOUT")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "CIRGEN_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.RebuildsPerSecond, "CIRGEN_WATCH_REBUILDS_PER_SECOND")
	setEnvInt(&cfg.Watch.Burst, "CIRGEN_WATCH_BURST")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "CIRGEN_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "CIRGEN_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "CIRGEN_OBSERVABILITY_SERVICE_NAME")
}

func logOverride(key, val string) {
	slog.Debug("applying env override", "key", key, "value", val)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		logOverride(key, val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			logOverride(key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			logOverride(key, val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			logOverride(key, val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			logOverride(key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			logOverride(key, val)
			*target = d
		}
	}
}
