package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docsense/internal/config"
	"docsense/internal/logger"
)

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "docsense",
		Short: "Classify documents and extract their fields",
		Long: `docsense recovers text from PDF and image documents, classifies each
document into a category and fills the fields declared for that category.
Configuration is read from DOCSENSE_* environment variables and .env.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging on stderr")

	cmd.AddCommand(newRunCmd(opts), newSchemaCmd(), newTokenCmd())
	return cmd
}

// loadConfig reads config and builds a stderr logger; stdout stays reserved
// for command output.
func (o *rootOptions) loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg.Log.Format = "console"
	if !o.verbose {
		cfg.Log.Level = "warn"
	}
	return cfg, logger.New(cfg.Log, stderr()), nil
}

func stderr() io.Writer {
	return os.Stderr
}
