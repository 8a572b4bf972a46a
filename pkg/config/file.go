package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/olimci/albumsync/pkg/utils/fileutils"
	"github.com/olimci/albumsync/pkg/version"
)

const (
	dirName     = "albumsync"
	configFile  = "config.toml"
	envConfig   = "ALBUMSYNC_CONFIG"
	tmpSuffix   = ".tmp"
	defaultPerm = 0o644
)

var ErrAlreadyExists = errors.New("config file already exists")

// DefaultPath is $ALBUMSYNC_CONFIG, or config.toml in the albumsync user
// config directory.
func DefaultPath() (string, error) {
	if custom := strings.TrimSpace(os.Getenv(envConfig)); custom != "" {
		abs, err := fileutils.AbsPath(custom)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", envConfig, err)
		}
		return abs, nil
	}

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(cfgDir, dirName, configFile), nil
}

// Load decodes path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}

	if cfg.AlbumSync.Version == "" {
		cfg.AlbumSync.Version = version.Version
	}
	if err := version.EnsureCompatible(cfg.AlbumSync.Version); err != nil {
		return Config{}, fmt.Errorf("unsupported config version %q: %w", cfg.AlbumSync.Version, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func Save(path string, cfg Config) error {
	if cfg.AlbumSync.Version == "" {
		cfg.AlbumSync.Version = version.Version
	}
	return writeTOML(path, cfg)
}

// Init writes the default config to path and fails if a file is already
// there.
func Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return Save(path, Default())
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

func writeTOML(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	tp := path + tmpSuffix

	f, err := os.OpenFile(tp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultPerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", tp, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(value); err != nil {
		_ = os.Remove(tp)
		return fmt.Errorf("encode: %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tp)
		return fmt.Errorf("close %s: %w", path, err)
	}

	if err := os.Rename(tp, path); err != nil {
		_ = os.Remove(tp)
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}
