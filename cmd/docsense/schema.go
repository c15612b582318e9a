package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docsense/internal/config"
	"docsense/internal/domain"
	"docsense/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [category]",
		Short: "List the configured categories and their fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			s, err := schema.Load(cfg.Schema.Path, cfg.Schema.Format)
			if err != nil {
				return err
			}

			categories := s.Categories()
			if len(args) == 1 {
				if !s.Has(args[0]) {
					return fmt.Errorf("%w: %s", domain.ErrUnknownCategory, args[0])
				}
				categories = []string{args[0]}
			}

			out := cmd.OutOrStdout()
			for _, c := range categories {
				fmt.Fprintf(out, "%s:\n", c)
				for _, f := range s.Fields(c) {
					if len(f.Aliases) > 0 {
						fmt.Fprintf(out, "  - %s (aliases: %s)\n", f.Name, strings.Join(f.Aliases, ", "))
						continue
					}
					fmt.Fprintf(out, "  - %s\n", f.Name)
				}
			}
			return nil
		},
	}
}
