package config

import (
	"cirgen/internal/shared/util"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var supportedExtensions = map[string]bool{".h": true, ".json": true}

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateInput,
		validateFilter,
		validateOutput,
		validateBuild,
		validateStore,
		validateWatch,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateInput(cfg *Config) error {
	for _, ext := range cfg.Input.Extensions {
		if !supportedExtensions[ext] {
			return fmt.Errorf("input.extensions: unsupported extension %q (supported: .h, .json)", ext)
		}
	}
	if err := validateGlobs("input.exclude_files", cfg.Input.ExcludeFiles); err != nil {
		return err
	}
	for i, name := range cfg.Input.StripMacros {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("input.strip_macros[%d] must not be empty", i)
		}
	}
	return nil
}

func validateFilter(cfg *Config) error {
	if err := validateGlobs("filter.include_symbols", cfg.Filter.IncludeSymbols); err != nil {
		return err
	}
	return validateGlobs("filter.exclude_symbols", cfg.Filter.ExcludeSymbols)
}

func validateGlobs(field string, patterns []string) error {
	for i, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("%s[%d] must not be empty", field, i)
		}
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("%s[%d] invalid glob %q: %w", field, i, pattern, err)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if util.ContainsPathSeparator(cfg.Output.ModulePrefix) {
		return fmt.Errorf("output.module_prefix must not contain path separators")
	}
	return nil
}

func validateBuild(cfg *Config) error {
	if cfg.Build.MaxDeclarations < 0 {
		return fmt.Errorf("build.max_declarations must be >= 0, got %d", cfg.Build.MaxDeclarations)
	}
	return nil
}

func validateStore(cfg *Config) error {
	if cfg.Store.IsEnabled() && strings.TrimSpace(cfg.Store.Path) == "" {
		return fmt.Errorf("store.path must not be empty when the store is enabled")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0")
	}
	if cfg.Watch.RebuildsPerSecond < 0 {
		return fmt.Errorf("watch.rebuilds_per_second must be >= 0")
	}
	if cfg.Watch.Burst < 0 {
		return fmt.Errorf("watch.burst must be >= 0")
	}
	return nil
}
