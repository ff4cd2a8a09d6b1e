package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devkit-labs/devkit/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys.
const (
	KeyBackends         = "backends"
	KeyProbeTimeout     = "timeouts.probe"
	KeyProvisionTimeout = "timeouts.provision"
	KeySettleAttempts   = "settle.attempts"
	KeySettleBackoff    = "settle.backoff"
	KeyCatalog          = "catalog"
)

// Keys lists every recognized configuration key.
var Keys = []string{
	KeyBackends,
	KeyProbeTimeout,
	KeyProvisionTimeout,
	KeySettleAttempts,
	KeySettleBackoff,
	KeyCatalog,
}

// IsKey reports whether key is a recognized configuration key.
func IsKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// DefaultBackends is the backend priority order used when none is configured.
var DefaultBackends = []string{"winget", "choco", "scoop", "brew", "manual"}

// Settings is the typed view of the loaded configuration.
type Settings struct {
	Backends         []string
	ProbeTimeout     time.Duration
	ProvisionTimeout time.Duration
	SettleAttempts   int
	SettleBackoff    time.Duration
	CatalogPath      string
}

// Dir returns the path to the config directory (~/.devkit/).
// DEVKIT_CONFIG_DIR overrides it.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("CONFIG_DIR")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.devkit/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(KeyBackends, DefaultBackends)
	viper.SetDefault(KeyProbeTimeout, "10s")
	viper.SetDefault(KeyProvisionTimeout, "30m")
	viper.SetDefault(KeySettleAttempts, 3)
	viper.SetDefault(KeySettleBackoff, "2s")
	viper.SetDefault(KeyCatalog, "")

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Current returns the typed settings. Load must have been called.
func Current() Settings {
	s := Settings{
		Backends:         splitList(viper.GetStringSlice(KeyBackends)),
		ProbeTimeout:     viper.GetDuration(KeyProbeTimeout),
		ProvisionTimeout: viper.GetDuration(KeyProvisionTimeout),
		SettleAttempts:   viper.GetInt(KeySettleAttempts),
		SettleBackoff:    viper.GetDuration(KeySettleBackoff),
		CatalogPath:      viper.GetString(KeyCatalog),
	}
	if len(s.Backends) == 0 {
		s.Backends = append([]string(nil), DefaultBackends...)
	}
	if s.ProbeTimeout <= 0 {
		s.ProbeTimeout = 10 * time.Second
	}
	if s.ProvisionTimeout <= 0 {
		s.ProvisionTimeout = 30 * time.Minute
	}
	if s.SettleAttempts < 1 {
		s.SettleAttempts = 1
	}
	if s.SettleBackoff < 0 {
		s.SettleBackoff = 0
	}
	return s
}

// splitList flattens entries that were written as a single comma-separated
// value (e.g. `config set backends choco,winget` or DEVKIT_BACKENDS).
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, strings.ToLower(strings.TrimSpace(part)))
		}
	}
	return out
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	if key == KeyBackends {
		return strings.Join(splitList(viper.GetStringSlice(key)), ",")
	}
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	if key == KeyBackends {
		viper.Set(key, splitList([]string{value}))
	} else {
		viper.Set(key, value)
	}

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Check reads the config file on its own and reports parse errors,
// unrecognized keys and malformed durations.
func Check() error {
	path := FilePath()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var errs []error
	for _, key := range v.AllKeys() {
		if !IsKey(key) {
			errs = append(errs, fmt.Errorf("unknown key %q", key))
		}
	}
	for _, key := range []string{KeyProbeTimeout, KeyProvisionTimeout, KeySettleBackoff} {
		if !v.IsSet(key) {
			continue
		}
		if _, err := time.ParseDuration(v.GetString(key)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
