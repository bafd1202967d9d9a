// Package config loads user configuration from
// ~/.config/clipsift/config.toml, with environment variable fallbacks for
// the common overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"clipsift/internal/extract"
	"clipsift/internal/media"
	"clipsift/internal/scratch"
)

// Environment variable fallbacks, applied when the file leaves a value
// unset.
const (
	EnvScratchDirName = "CLIPSIFT_SCRATCH_DIR"
	EnvAudioCodec     = "CLIPSIFT_AUDIO_CODEC"
)

// ErrUnknownKey indicates a config key name that does not exist.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds the user-tunable settings.
type Config struct {
	// ScratchDirName is the well-known subdirectory under the temp root.
	ScratchDirName string `toml:"scratch_dir_name"`
	// MediaExtensions is the resolution preference order.
	MediaExtensions []string `toml:"media_extensions"`
	// AudioCodec is the clip output codec: pcm, mp3, or ogg.
	AudioCodec string `toml:"audio_codec"`
	// SampleRate resamples extracted audio; 0 keeps the source rate.
	SampleRate int `toml:"sample_rate"`
	// ExtractJobs bounds concurrent source files during extraction.
	ExtractJobs int `toml:"extract_jobs"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ScratchDirName:  scratch.DefaultName,
		MediaExtensions: media.DefaultExtensions,
		AudioCodec:      string(extract.CodecPCM),
		SampleRate:      0,
		ExtractJobs:     1,
	}
}

// dir returns the configuration directory, honoring XDG_CONFIG_HOME.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "clipsift"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "clipsift"), nil
}

// Path returns the config file path.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.toml"), nil
}

// Load reads the config file over the defaults, then applies environment
// fallbacks for still-unset values. A missing file is not an error.
func Load() (Config, error) {
	cfg := Default()

	p, err := Path()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(p) // #nosec G304 -- path constructed from the user home
	switch {
	case os.IsNotExist(err):
		// Defaults apply.
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", p, err)
		}
	}

	if v := os.Getenv(EnvScratchDirName); v != "" && cfg.ScratchDirName == scratch.DefaultName {
		cfg.ScratchDirName = v
	}
	if v := os.Getenv(EnvAudioCodec); v != "" && cfg.AudioCodec == string(extract.CodecPCM) {
		cfg.AudioCodec = v
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot honor.
func (c Config) Validate() error {
	if c.ScratchDirName == "" || strings.ContainsRune(c.ScratchDirName, os.PathSeparator) {
		return fmt.Errorf("scratch_dir_name must be a bare directory name, got %q", c.ScratchDirName)
	}
	if _, err := extract.ParseCodec(c.AudioCodec); err != nil {
		return err
	}
	if c.SampleRate < 0 {
		return fmt.Errorf("sample_rate cannot be negative, got %d", c.SampleRate)
	}
	if c.ExtractJobs < 1 {
		return fmt.Errorf("extract_jobs must be at least 1, got %d", c.ExtractJobs)
	}
	for _, ext := range c.MediaExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("media extension %q must start with a dot", ext)
		}
	}
	return nil
}

// Save writes the config file, creating the directory if needed.
func Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil { // #nosec G306 -- user config file
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Get returns one value by its TOML key name.
func (c Config) Get(key string) (string, error) {
	switch key {
	case "scratch_dir_name":
		return c.ScratchDirName, nil
	case "media_extensions":
		return strings.Join(c.MediaExtensions, ","), nil
	case "audio_codec":
		return c.AudioCodec, nil
	case "sample_rate":
		return strconv.Itoa(c.SampleRate), nil
	case "extract_jobs":
		return strconv.Itoa(c.ExtractJobs), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// Set updates one value by its TOML key name. Comma-separated lists are
// accepted for media_extensions.
func (c *Config) Set(key, value string) error {
	switch key {
	case "scratch_dir_name":
		c.ScratchDirName = value
	case "media_extensions":
		parts := strings.Split(value, ",")
		exts := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				exts = append(exts, p)
			}
		}
		c.MediaExtensions = exts
	case "audio_codec":
		c.AudioCodec = value
	case "sample_rate":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("sample_rate must be an integer: %w", err)
		}
		c.SampleRate = n
	case "extract_jobs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("extract_jobs must be an integer: %w", err)
		}
		c.ExtractJobs = n
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return c.Validate()
}

// Keys lists the settable key names.
func Keys() []string {
	keys := []string{
		"scratch_dir_name",
		"media_extensions",
		"audio_codec",
		"sample_rate",
		"extract_jobs",
	}
	sort.Strings(keys)
	return keys
}
