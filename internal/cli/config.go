package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipsift/internal/config"
)

// ConfigCmd creates the config command with subcommands.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/clipsift/config.toml.

Supported keys:
  scratch_dir_name   Name of the scratch directory under the temp root
  media_extensions   Comma-separated media extensions to match
  audio_codec        Clip codec: pcm, mp3, or ogg
  sample_rate        Output sample rate in Hz (0 keeps the source rate)
  extract_jobs       Source files to extract concurrently`,
		Example: `  clipsift config set audio_codec mp3
  clipsift config get audio_codec
  clipsift config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Set a configuration value",
		Example: `  clipsift config set extract_jobs 4`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Print one configuration value",
		Example: `  clipsift config get audio_codec`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all configuration values",
		Example: `  clipsift config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

func runConfigSet(env *Env, key, value string) error {
	cfg, err := env.ConfigStore.Load()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.Keys(), ", "))
		}
		return err
	}
	if err := env.ConfigStore.Save(cfg); err != nil {
		return err
	}
	shown, _ := cfg.Get(key)
	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, shown)
	return nil
}

func runConfigGet(env *Env, key string) error {
	cfg, err := env.ConfigStore.Load()
	if err != nil {
		return err
	}
	value, err := cfg.Get(key)
	if err != nil {
		return fmt.Errorf("%w (valid keys: %s)", err, strings.Join(config.Keys(), ", "))
	}
	fmt.Fprintln(env.Stdout, value)
	return nil
}

func runConfigList(env *Env) error {
	cfg, err := env.ConfigStore.Load()
	if err != nil {
		return err
	}
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintf(env.Stdout, "%s = %s\n", key, value)
	}
	return nil
}
