package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "carnet.db"
	DefaultDataDirName    = "data"
	DefaultMediaDirName   = "media"
	DefaultLogFileName    = "carnet.log"

	BackendSQLite = "sqlite"
	BackendDir    = "dir"

	// EnvConfigPath overrides where the config file is looked up.
	EnvConfigPath = "CARNET_CONFIG"
)

type Keymap struct {
	Quit     string `toml:"quit"`
	Add      string `toml:"add"`
	Up       string `toml:"up"`
	Down     string `toml:"down"`
	Toggle   string `toml:"toggle"`
	Delete   string `toml:"delete"`
	Open     string `toml:"open"`
	Confirm  string `toml:"confirm"`
	Cancel   string `toml:"cancel"`
	Edit     string `toml:"edit"`
	Search   string `toml:"search"`
	ClearAll string `toml:"clear_all"`
	Switch   string `toml:"switch"`
	Filter   string `toml:"filter"`
}

type Config struct {
	Backend       string `toml:"backend"`
	DBPath        string `toml:"db_path"`
	DataDir       string `toml:"data_dir"`
	MediaDir      string `toml:"media_dir"`
	Locale        string `toml:"locale"`
	LogLevel      string `toml:"log_level"`
	DefaultFilter string `toml:"default_filter"`
	Keys          Keymap `toml:"keys"`
}

// ResolveConfigPath returns $CARNET_CONFIG, or config.toml under the user
// config directory, or config.toml in the working directory as a last resort.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "carnet", DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there first if
// the file does not exist. Relative paths in the file resolve against the
// directory holding it.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return cfg, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(base), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDirName
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = DefaultMediaDirName
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendSQLite
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg = cfg.resolve(base)
	if err := cfg.checkMediaDir(base); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendDir:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendSQLite, BackendDir)
	}
	switch strings.ToLower(c.DefaultFilter) {
	case "", "all", "active", "done":
	default:
		return fmt.Errorf("unknown default_filter %q", c.DefaultFilter)
	}
	return nil
}

// checkMediaDir rejects a media_dir that holds the config, the database or the
// data dir: sweeping it would delete them.
func (c Config) checkMediaDir(configDir string) error {
	media := filepath.Clean(c.MediaDir)
	for _, p := range []struct{ name, path string }{
		{"the config directory", configDir},
		{"db_path", c.DBPath},
		{"data_dir", c.DataDir},
	} {
		if p.path == "" || strings.HasPrefix(p.path, "file:") {
			continue
		}
		if within(media, filepath.Clean(p.path)) {
			return fmt.Errorf("media_dir %s must not contain %s (%s)", c.MediaDir, p.name, p.path)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// LogPath is where the TUI writes its log.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, DefaultLogFileName)
}

func (c Config) resolve(base string) Config {
	c.DBPath = resolvePath(base, c.DBPath)
	c.DataDir = resolvePath(base, c.DataDir)
	c.MediaDir = resolvePath(base, c.MediaDir)
	return c
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "file:") {
		return p
	}
	if strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return filepath.Join(base, p)
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		Backend:       BackendSQLite,
		DBPath:        DefaultDBName,
		DataDir:       DefaultDataDirName,
		MediaDir:      DefaultMediaDirName,
		Locale:        "fr",
		LogLevel:      "info",
		DefaultFilter: "all",
		Keys: Keymap{
			Quit:     "q",
			Add:      "a",
			Up:       "k",
			Down:     "j",
			Toggle:   " ",
			Delete:   "d",
			Open:     "enter",
			Confirm:  "enter",
			Cancel:   "esc",
			Edit:     "e",
			Search:   "/",
			ClearAll: "X",
			Switch:   "tab",
			Filter:   "f",
		},
	}
}
