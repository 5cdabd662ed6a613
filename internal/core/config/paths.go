package config

import (
	"path/filepath"
	"strings"
)

// ResolvePaths rewrites relative input, output and store paths against
// base, normally the directory holding the config file.
func ResolvePaths(cfg *Config, base string) {
	if strings.TrimSpace(base) == "" {
		return
	}
	for i, p := range cfg.Input.Paths {
		cfg.Input.Paths[i] = ResolveRelative(base, p)
	}
	cfg.Output.Dir = ResolveRelative(base, cfg.Output.Dir)
	cfg.Store.Path = ResolveRelative(base, cfg.Store.Path)
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
