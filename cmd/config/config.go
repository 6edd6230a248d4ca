// Package config implements the config command
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/audiomix/internal/conf"
)

// Command creates the config command. It prints the effective settings,
// defaults, config file, environment and flags merged, as YAML.
func Command(settings *conf.Settings) *cobra.Command {
	var savePath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or save the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if savePath != "" {
				if err := conf.SaveYAMLConfig(savePath, settings); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "configuration saved to %s\n", savePath)
				return nil
			}

			data, err := conf.MarshalYAML(settings)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&savePath, "save", "", "Write the configuration to this file instead of printing it")
	return cmd
}
