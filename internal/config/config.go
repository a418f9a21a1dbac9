package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"cardterm/internal/surface"
	"cardterm/internal/theme"
)

const (
	appDir       = "cardterm"
	configFile   = "config.json"
	logFile      = "card-term.log"
	historyFile  = "history.db"
	defaultScale = 3
)

// MaxScale bounds the rasterization factor accepted from config, environment
// and flags.
const MaxScale = surface.MaxScale

// Environment overrides applied on top of the file.
const (
	EnvOutputDir = "CARDTERM_OUTPUT_DIR"
	EnvTheme     = "CARDTERM_THEME"
	EnvScale     = "CARDTERM_SCALE"
	EnvLogLevel  = "CARDTERM_LOG_LEVEL"
	EnvHistory   = "CARDTERM_HISTORY"
)

// Store manages the runtime configuration.
type Store struct {
	path   string
	Config Data
}

// Data represents persisted user preferences.
type Data struct {
	OutputDir    string `json:"output_dir"`
	DefaultTheme string `json:"default_theme"`
	Scale        int    `json:"scale"`
	LogLevel     string `json:"log_level"`
	History      bool   `json:"history"`
}

// Load retrieves the config from the user config dir, creating defaults if
// needed.
func Load() (*Store, error) {
	cfgPath, err := resolvePath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(cfgPath)
}

// LoadFrom reads the config at path, writing defaults when it does not exist,
// then applies environment overrides.
func LoadFrom(cfgPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	cfg := Data{}
	if _, err := os.Stat(cfgPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
		cfg = defaultConfig()
		if err := writeConfig(cfgPath, cfg); err != nil {
			return nil, err
		}
	} else {
		bytes, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(bytes, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir()
	}
	if cfg.DefaultTheme == "" {
		cfg.DefaultTheme = theme.DefaultID
	}
	if cfg.Scale == 0 {
		cfg.Scale = defaultScale
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = log.InfoLevel.String()
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{path: cfgPath, Config: cfg}, nil
}

// Validate checks values that cannot be repaired with a default.
func (d Data) Validate() error {
	if _, err := theme.Lookup(d.DefaultTheme); err != nil {
		return fmt.Errorf("default_theme: %w", err)
	}
	if err := ValidateScale(d.Scale); err != nil {
		return err
	}
	if _, err := log.ParseLevel(d.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// ValidateScale rejects rasterization factors outside 1..MaxScale.
func ValidateScale(scale int) error {
	if scale < 1 || scale > MaxScale {
		return fmt.Errorf("scale must be between 1 and %d, got %d", MaxScale, scale)
	}
	return nil
}

// Level is the configured log level, falling back to info.
func (d Data) Level() log.Level {
	lvl, err := log.ParseLevel(d.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Save writes the current config values to disk.
func (s *Store) Save() error {
	if s == nil {
		return errors.New("nil config store")
	}
	return writeConfig(s.path, s.Config)
}

// Path is the config file location.
func (s *Store) Path() string { return s.path }

// LogPath is the log file next to the config.
func (s *Store) LogPath() string { return s.sibling(logFile) }

// HistoryPath is the export history database next to the config.
func (s *Store) HistoryPath() string { return s.sibling(historyFile) }

func (s *Store) sibling(name string) string {
	return filepath.Join(filepath.Dir(s.path), name)
}

func resolvePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = os.Getenv("HOME")
		if base == "" {
			return "", fmt.Errorf("cannot resolve config directory: %w", err)
		}
	}
	return filepath.Join(base, appDir, configFile), nil
}

func writeConfig(path string, cfg Data) error {
	bytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, bytes, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func defaultConfig() Data {
	return Data{
		OutputDir:    defaultOutputDir(),
		DefaultTheme: theme.DefaultID,
		Scale:        defaultScale,
		LogLevel:     log.InfoLevel.String(),
		History:      true,
	}
}

func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	downloads := filepath.Join(home, "Downloads")
	if info, err := os.Stat(downloads); err == nil && info.IsDir() {
		return downloads
	}
	return home
}

func applyEnv(cfg *Data) error {
	var err error
	if cfg.OutputDir, err = readRequiredOrDefault(EnvOutputDir, cfg.OutputDir); err != nil {
		return err
	}
	if cfg.DefaultTheme, err = readRequiredOrDefault(EnvTheme, cfg.DefaultTheme); err != nil {
		return err
	}
	if cfg.Scale, err = readInt(EnvScale, cfg.Scale, 1, MaxScale); err != nil {
		return err
	}
	if cfg.LogLevel, err = readRequiredOrDefault(EnvLogLevel, cfg.LogLevel); err != nil {
		return err
	}
	if cfg.History, err = readBool(EnvHistory, cfg.History); err != nil {
		return err
	}
	return nil
}

func readRequiredOrDefault(key, fallback string) (string, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%s must not be empty", key)
	}
	return raw, nil
}

func readInt(key string, fallback, min, max int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	if parsed < min || parsed > max {
		return 0, fmt.Errorf("%s must be between %d and %d", key, min, max)
	}
	return parsed, nil
}

func readBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}
