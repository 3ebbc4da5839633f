package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/metalagman/aiprobe/internal/config"
	"github.com/metalagman/aiprobe/internal/probe"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "AIPROBE"

// loadConfig resolves and validates the probe configuration.
func loadConfig() (config.Config, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolveConfig merges flags, environment, dotenv and the config file.
// Flags win over env, env over file, file over defaults.
func resolveConfig() (config.Config, error) {
	if path := viper.GetString("env_file"); path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for key, value := range config.Defaults() {
		viper.SetDefault(key, value)
	}

	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	settings := viper.AllSettings()
	if p, ok := settings["provider"].(string); ok {
		settings["provider"] = probe.ParseProvider(p).String()
	}
	if err := config.ValidateSettings(settings); err != nil {
		return config.Config{}, err
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg, viper.DecodeHook(config.ProviderHook())); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with the API key redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg.Redacted())
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
