package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/config"
	"github.com/harshit-164/clio-agent-editor/internal/infrastructure/logging"
)

type rootOptions struct {
	starters string
	dev      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "clio-sandboxd",
		Short: "Playground sandbox daemon for the browser editor",
		Long: `clio-sandboxd runs the editor's playground: it boots a sandbox,
mounts the project, attaches a shell and reports the preview URL.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.starters, "starters", "", "Starter templates directory (overrides TEMPLATES_ROOT)")
	cmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "Development logging (overrides LOG_DEV)")
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newTemplatesCmd(opts))
	return cmd
}

// loadConfig reads the environment and applies the persistent flags.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("starters") {
		cfg.Templates.Root = o.starters
	}
	if cmd.Flags().Changed("dev") {
		cfg.Logging.Development = o.dev
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Logging.Development {
		return logging.New(logging.DevelopmentConfig())
	}
	lc := logging.DefaultConfig()
	lc.Level = cfg.Logging.Level
	return logging.New(lc)
}
