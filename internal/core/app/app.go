package app

import (
	"cirgen/internal/core/config"
	"cirgen/internal/core/errors"
	"cirgen/internal/core/ports"
	"cirgen/internal/data/store"
	"cirgen/internal/engine/header"
	"cirgen/internal/engine/inference"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// App wires the header front end, the IR pipeline, the snapshot store and
// the output writer.
type App struct {
	store     ports.SnapshotStore
	ownsStore bool
	module    string
	cfgPath   string
	onBuild   func(BuildResult, error)

	mu       sync.RWMutex
	settings *settings
}

// settings is everything derived from a config that a reload may replace.
type settings struct {
	cfg         *config.Config
	parser      ports.HeaderParser
	engine      *inference.Engine
	include     []glob.Glob
	exclude     []glob.Glob
	fingerprint string
}

type Option func(*options)

type options struct {
	store      ports.SnapshotStore
	noStore    bool
	module     string
	configPath string
	onBuild    func(BuildResult, error)
}

// WithStore uses an already opened store instead of opening cfg.Store.Path.
// The caller keeps ownership.
func WithStore(s ports.SnapshotStore) Option {
	return func(o *options) { o.store = s }
}

// WithoutStore disables snapshot caching and persistence.
func WithoutStore() Option {
	return func(o *options) { o.noStore = true }
}

// WithModuleName overrides the module name derived from the input file
// name. Only meaningful for single-file builds.
func WithModuleName(name string) Option {
	return func(o *options) { o.module = strings.TrimSpace(name) }
}

// WithConfigPath enables config hot reload in Watch.
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithBuildHook is called after every rebuild in watch mode.
func WithBuildHook(fn func(BuildResult, error)) Option {
	return func(o *options) { o.onBuild = fn }
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s, err := newSettings(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		module:   o.module,
		cfgPath:  o.configPath,
		onBuild:  o.onBuild,
		settings: s,
	}

	switch {
	case o.store != nil:
		a.store = o.store
	case o.noStore || !cfg.Store.IsEnabled():
	default:
		st, err := store.Open(cfg.Store.Path, cfg.Store.BusyTimeout)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeInternal, "open snapshot store"),
				errors.CtxPath, cfg.Store.Path)
		}
		a.store = st
		a.ownsStore = true
	}
	return a, nil
}

func newSettings(cfg *config.Config) (*settings, error) {
	parser, err := header.NewParser(header.Options{StripMacros: cfg.Input.StripMacros})
	if err != nil {
		return nil, err
	}
	include, err := compileGlobs(cfg.Filter.IncludeSymbols, "include symbol")
	if err != nil {
		return nil, err
	}
	exclude, err := compileGlobs(cfg.Filter.ExcludeSymbols, "exclude symbol")
	if err != nil {
		return nil, err
	}

	rules := inference.DefaultRules().With(inference.Extra{
		Creator:      cfg.Heuristics.Creator,
		Destroyer:    cfg.Heuristics.Destroyer,
		OutParam:     cfg.Heuristics.OutParam,
		Length:       cfg.Heuristics.Length,
		StringLength: cfg.Heuristics.StringLength,
		Userdata:     cfg.Heuristics.Userdata,
		ErrorStatus:  cfg.Heuristics.ErrorStatus,

		FollowTypedefs: cfg.Heuristics.FollowTypedefs,
	})
	engine := inference.New(rules)

	return &settings{
		cfg:         cfg,
		parser:      parser,
		engine:      engine,
		include:     include,
		exclude:     exclude,
		fingerprint: fingerprint(cfg, engine.Rules()),
	}, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid %s pattern %q", label, p))
		}
		out = append(out, g)
	}
	return out, nil
}

// fingerprint captures the settings that change build output, so a cached
// snapshot is reused only for the same content under the same settings.
// The effective rule table is used rather than the configured keywords, so
// a change to the built-in defaults also invalidates old snapshots.
func fingerprint(cfg *config.Config, rules inference.Rules) string {
	parts := []string{
		"macros=" + strings.Join(cfg.Input.StripMacros, ","),
		"include=" + strings.Join(cfg.Filter.IncludeSymbols, ","),
		"exclude=" + strings.Join(cfg.Filter.ExcludeSymbols, ","),
		fmt.Sprintf("rules=%+v", rules),
		"max=" + strconv.Itoa(cfg.Build.MaxDeclarations),
	}
	return strings.Join(parts, ";")
}

func (a *App) current() *settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	return a.current().cfg
}

// Reconfigure swaps in settings derived from cfg. Builds already running
// finish with the old settings.
func (a *App) Reconfigure(cfg *config.Config) error {
	s, err := newSettings(cfg)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.settings = s
	a.mu.Unlock()
	return nil
}

func (a *App) Store() ports.SnapshotStore {
	return a.store
}

func (a *App) Close() error {
	if a.ownsStore && a.store != nil {
		return a.store.Close()
	}
	return nil
}

func (s *settings) keep(name string) bool {
	for _, g := range s.exclude {
		if g.Match(name) {
			return false
		}
	}
	if len(s.include) == 0 {
		return true
	}
	for _, g := range s.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (s *settings) filtering() bool {
	return len(s.include) > 0 || len(s.exclude) > 0
}
