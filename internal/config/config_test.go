package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"clipsift/internal/config"
)

// withConfigHome points XDG_CONFIG_HOME at a temp dir for the test.
// Mutates process env, so tests using it must not run in parallel.
func withConfigHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	return home
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() does not validate: %v", err)
	}
	if cfg.AudioCodec != "pcm" {
		t.Errorf("default codec = %q, want pcm", cfg.AudioCodec)
	}
	if cfg.ExtractJobs != 1 {
		t.Errorf("default extract_jobs = %d, want 1 (sequential)", cfg.ExtractJobs)
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	withConfigHome(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	def := config.Default()
	if cfg.ScratchDirName != def.ScratchDirName || cfg.AudioCodec != def.AudioCodec ||
		cfg.SampleRate != def.SampleRate || cfg.ExtractJobs != def.ExtractJobs {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, def)
	}
	if !slices.Equal(cfg.MediaExtensions, def.MediaExtensions) {
		t.Errorf("MediaExtensions = %v, want %v", cfg.MediaExtensions, def.MediaExtensions)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	home := withConfigHome(t)

	dir := filepath.Join(home, "clipsift")
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	content := "audio_codec = \"mp3\"\nsample_rate = 16000\nextract_jobs = 4\n" +
		"media_extensions = [\".mkv\", \".wav\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AudioCodec != "mp3" || cfg.SampleRate != 16000 || cfg.ExtractJobs != 4 {
		t.Errorf("Load() = %+v", cfg)
	}
	if !slices.Equal(cfg.MediaExtensions, []string{".mkv", ".wav"}) {
		t.Errorf("MediaExtensions = %v", cfg.MediaExtensions)
	}
}

func TestLoad_EnvFallback(t *testing.T) {
	withConfigHome(t)
	t.Setenv(config.EnvAudioCodec, "ogg")
	t.Setenv(config.EnvScratchDirName, "clipsift-test")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AudioCodec != "ogg" {
		t.Errorf("codec = %q, want env fallback ogg", cfg.AudioCodec)
	}
	if cfg.ScratchDirName != "clipsift-test" {
		t.Errorf("scratch dir = %q, want env fallback", cfg.ScratchDirName)
	}
}

func TestLoad_InvalidCodecRejected(t *testing.T) {
	home := withConfigHome(t)

	dir := filepath.Join(home, "clipsift")
	if err := os.MkdirAll(dir, 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("audio_codec = \"flac\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := config.Load(); err == nil {
		t.Fatal("Load() accepted an unknown codec")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	withConfigHome(t)

	cfg := config.Default()
	cfg.AudioCodec = "ogg"
	cfg.ExtractJobs = 3
	if err := config.Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.AudioCodec != "ogg" || got.ExtractJobs != 3 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestConfig_SetGet(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	if err := cfg.Set("audio_codec", "mp3"); err != nil {
		t.Fatal(err)
	}
	if got, _ := cfg.Get("audio_codec"); got != "mp3" {
		t.Errorf("Get(audio_codec) = %q", got)
	}

	if err := cfg.Set("media_extensions", ".mkv, .wav"); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(cfg.MediaExtensions, []string{".mkv", ".wav"}) {
		t.Errorf("MediaExtensions = %v", cfg.MediaExtensions)
	}

	if err := cfg.Set("extract_jobs", "0"); err == nil {
		t.Error("Set(extract_jobs, 0) accepted")
	}
	if err := cfg.Set("nope", "x"); !errors.Is(err, config.ErrUnknownKey) {
		t.Errorf("Set(nope) error = %v, want ErrUnknownKey", err)
	}
	if _, err := cfg.Get("nope"); !errors.Is(err, config.ErrUnknownKey) {
		t.Errorf("Get(nope) error = %v, want ErrUnknownKey", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*config.Config) {}, ok: true},
		{name: "empty scratch name", mutate: func(c *config.Config) { c.ScratchDirName = "" }},
		{name: "scratch name with separator", mutate: func(c *config.Config) { c.ScratchDirName = "a/b" }},
		{name: "negative sample rate", mutate: func(c *config.Config) { c.SampleRate = -1 }},
		{name: "zero jobs", mutate: func(c *config.Config) { c.ExtractJobs = 0 }},
		{name: "extension without dot", mutate: func(c *config.Config) { c.MediaExtensions = []string{"mp4"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}
