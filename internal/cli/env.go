package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"clipsift/internal/config"
	"clipsift/internal/ffmpeg"
	"clipsift/internal/interrupt"
	"clipsift/internal/media"
	"clipsift/internal/playback"
	"clipsift/internal/session"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing commands in isolation.
//
// All fields have production defaults via DefaultEnv(). Tests override
// specific fields using the With* options.
type Env struct {
	// I/O and environment
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// TempRoot is where the scratch directory lives; empty means os.TempDir().
	TempRoot string

	// Interactive reports whether stdin and stdout are a terminal.
	Interactive func() bool

	// Domain dependencies
	Runner       ffmpeg.Runner
	Binaries     BinaryResolver
	ConfigStore  ConfigStore
	Lister       media.DirectoryLister
	NewPlayer    func(ffplayPath string) session.Player
	NewInterrupt func(parent context.Context) (*interrupt.Handler, context.Context)
}

// BinaryResolver locates the ffmpeg and ffplay binaries.
type BinaryResolver interface {
	Resolve() (string, error)
	ResolvePlayer() (string, error)
	CheckVersion(ctx context.Context, runner ffmpeg.Runner, ffmpegPath string)
}

// ConfigStore loads and persists configuration.
type ConfigStore interface {
	Load() (config.Config, error)
	Save(config.Config) error
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdin sets the command input stream.
func WithStdin(r io.Reader) EnvOption {
	return func(e *Env) { e.Stdin = r }
}

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) EnvOption {
	return func(e *Env) { e.Logger = l }
}

// WithTempRoot sets the parent of the scratch directory.
func WithTempRoot(dir string) EnvOption {
	return func(e *Env) { e.TempRoot = dir }
}

// WithInteractive sets the terminal detector.
func WithInteractive(fn func() bool) EnvOption {
	return func(e *Env) { e.Interactive = fn }
}

// WithRunner sets the ffmpeg command runner.
func WithRunner(r ffmpeg.Runner) EnvOption {
	return func(e *Env) { e.Runner = r }
}

// WithBinaries sets the binary resolver.
func WithBinaries(b BinaryResolver) EnvOption {
	return func(e *Env) { e.Binaries = b }
}

// WithConfigStore sets the config store.
func WithConfigStore(s ConfigStore) EnvOption {
	return func(e *Env) { e.ConfigStore = s }
}

// WithLister sets the directory lister.
func WithLister(l media.DirectoryLister) EnvOption {
	return func(e *Env) { e.Lister = l }
}

// WithNewPlayer sets the playback factory.
func WithNewPlayer(fn func(ffplayPath string) session.Player) EnvOption {
	return func(e *Env) { e.NewPlayer = fn }
}

// WithNewInterrupt sets the interrupt handler factory.
func WithNewInterrupt(fn func(context.Context) (*interrupt.Handler, context.Context)) EnvOption {
	return func(e *Env) { e.NewInterrupt = fn }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Interactive: stdioIsTerminal,
		Runner:      ffmpeg.OSRunner{},
		Binaries:    defaultBinaries{},
		ConfigStore: defaultConfigStore{},
		Lister:      media.OSLister{},
		NewPlayer: func(ffplayPath string) session.Player {
			return playback.NewFFPlay(ffplayPath)
		},
		NewInterrupt: interrupt.NewHandler,
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// stdioIsTerminal reports whether both stdin and stdout are terminals.
func stdioIsTerminal() bool {
	in := os.Stdin.Fd()
	out := os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultBinaries struct{}

func (defaultBinaries) Resolve() (string, error) {
	return ffmpeg.NewResolver().Resolve()
}

func (defaultBinaries) ResolvePlayer() (string, error) {
	return ffmpeg.NewResolver().ResolvePlayer()
}

func (defaultBinaries) CheckVersion(ctx context.Context, runner ffmpeg.Runner, ffmpegPath string) {
	ffmpeg.NewResolver().CheckVersion(ctx, runner, ffmpegPath)
}

type defaultConfigStore struct{}

func (defaultConfigStore) Load() (config.Config, error) { return config.Load() }

func (defaultConfigStore) Save(cfg config.Config) error { return config.Save(cfg) }

// Compile-time interface verification.
var (
	_ BinaryResolver = defaultBinaries{}
	_ ConfigStore    = defaultConfigStore{}
)
