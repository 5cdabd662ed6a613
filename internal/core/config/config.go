package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "cirgen.toml"

type Config struct {
	Version       int           `toml:"version"`
	Input         Input         `toml:"input"`
	Filter        Filter        `toml:"filter"`
	Output        Output        `toml:"output"`
	Heuristics    Heuristics    `toml:"heuristics"`
	Build         Build         `toml:"build"`
	Store         Store         `toml:"store"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Input struct {
	Paths        []string `toml:"paths"`
	Extensions   []string `toml:"extensions"`
	ExcludeFiles []string `toml:"exclude_files"`
	// StripMacros are identifiers blanked out of .h sources before parsing,
	// e.g. export or calling-convention macros.
	StripMacros []string `toml:"strip_macros"`
}

// Filter globs select declarations by name. An empty include list keeps
// everything; excludes win over includes.
type Filter struct {
	IncludeSymbols []string `toml:"include_symbols"`
	ExcludeSymbols []string `toml:"exclude_symbols"`
}

type Output struct {
	Dir          string `toml:"dir"`
	Pretty       bool   `toml:"pretty"`
	ModulePrefix string `toml:"module_prefix"`
}

// Heuristics lists extra naming keywords per inference rule. "^word" is a
// prefix match, anything else a substring match.
type Heuristics struct {
	Creator      []string `toml:"creator"`
	Destroyer    []string `toml:"destroyer"`
	OutParam     []string `toml:"out_param"`
	Length       []string `toml:"length"`
	StringLength []string `toml:"string_length"`
	Userdata     []string `toml:"userdata"`
	ErrorStatus  []string `toml:"error_status"`
	// FollowTypedefs lets callback and error-convention detection see
	// through typedef aliases.
	FollowTypedefs bool `toml:"follow_typedefs"`
}

type Build struct {
	Workers         int `toml:"workers"`
	MaxDeclarations int `toml:"max_declarations"`
}

type Store struct {
	Enabled     *bool         `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce          time.Duration `toml:"debounce"`
	RebuildsPerSecond float64       `toml:"rebuilds_per_second"`
	Burst             int           `toml:"burst"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

func (s Store) IsEnabled() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// Default returns a validated configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes, defaults and validates a TOML document.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when path is the
// default file name and does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultFile
	}
	cfg, err := Load(path)
	if err != nil && os.IsNotExist(err) && path == DefaultFile {
		return Default(), nil
	}
	return cfg, err
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.Input.Extensions) == 0 {
		cfg.Input.Extensions = []string{".h", ".json"}
	}
	for i, ext := range cfg.Input.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Input.Extensions[i] = ext
	}

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		cfg.Output.Dir = "out/ir"
	}

	if cfg.Build.Workers <= 0 {
		cfg.Build.Workers = 4
	}

	if strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = "data/cirgen.db"
	}
	if cfg.Store.BusyTimeout <= 0 {
		cfg.Store.BusyTimeout = 5 * time.Second
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.RebuildsPerSecond == 0 {
		cfg.Watch.RebuildsPerSecond = 2
	}
	if cfg.Watch.Burst == 0 {
		cfg.Watch.Burst = 4
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "cirgen"
	}
}
