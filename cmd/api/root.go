package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/markdave123-py/docflow/internal/config"
	"github.com/markdave123-py/docflow/internal/logging"
)

// newRootCmd builds the docflow CLI. Without a subcommand it serves the API.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docflow",
		Short: "document management API",
		Example: `docflow serve
docflow migrate
docflow migrate status
docflow seed`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	root.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	root.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	root.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
	return root
}

// loadConfig reads the environment and builds the process logger from it.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}
	return cfg, log, nil
}
