package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/metalagman/aiprobe/internal/config"
	"github.com/metalagman/aiprobe/internal/logging"
	"github.com/metalagman/aiprobe/internal/probe"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var errProbeFailed = errors.New("api probe failed")

// Execute runs the root command.
func Execute() error {
	cmd, err := newRootCmd()
	if err != nil {
		return err
	}
	return cmd.Execute()
}

func newRootCmd() (*cobra.Command, error) {
	var debug bool
	cmd := &cobra.Command{
		Use:   "aiprobe",
		Short: "aiprobe sends one chat-completion request and prints the full exchange",
		Long: "aiprobe sends a single chat-completion request to a Baidu Qianfan or " +
			"OpenAI-compatible endpoint and prints the request, the response and the outcome.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.Init(debug)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts := []probe.Option{
				probe.WithOutput(cmd.OutOrStdout()),
				probe.WithRawBody(logging.DebugEnabled()),
			}
			if viper.GetBool("render") {
				render, err := markdownRenderer()
				if err != nil {
					return err
				}
				opts = append(opts, probe.WithReplyRenderer(render))
			}

			log.Debug().
				Str("provider", cfg.Provider.String()).
				Str("url", cfg.APIURL).
				Str("model", cfg.Model).
				Msg("starting probe")
			ok := probe.New(opts...).Run(cmd.Context(), cfg.Request())
			if !ok && viper.GetBool("strict") {
				return errProbeFailed
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file path (yaml or json)")
	flags.String("env-file", ".env", "dotenv file loaded before reading AIPROBE_* variables")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.String("api-url", config.DefaultAPIURL, "chat-completions endpoint")
	flags.String("api-key", "", "API key (or AIPROBE_API_KEY)")
	flags.String("model", config.DefaultModel, "model name")
	flags.String("prompt", config.DefaultPrompt, "prompt sent as the user message")
	flags.String("provider", string(config.DefaultProvider), fmt.Sprintf("provider, one of %v", probe.Tags()))
	cmd.Flags().Bool("strict", false, "exit with status 1 when the probe fails")
	cmd.Flags().Bool("render", false, "render the assistant reply as markdown")

	bindings := map[string]*pflag.Flag{
		"config":   flags.Lookup("config"),
		"env_file": flags.Lookup("env-file"),
		"api_url":  flags.Lookup("api-url"),
		"api_key":  flags.Lookup("api-key"),
		"model":    flags.Lookup("model"),
		"prompt":   flags.Lookup("prompt"),
		"provider": flags.Lookup("provider"),
		"strict":   cmd.Flags().Lookup("strict"),
		"render":   cmd.Flags().Lookup("render"),
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind %s flag: %w", key, err)
		}
	}

	cmd.AddCommand(providersCmd())
	cmd.AddCommand(configCmd())
	return cmd, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
}
