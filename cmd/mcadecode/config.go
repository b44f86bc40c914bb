package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/mscrnt/mcadecode/pkg/config"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the mcadecode configuration file",
		Long:  "Initialize, inspect, and locate the persistent mcadecode settings file",
	}

	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configPathCmd())

	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a default configuration file to ~/.mcadecode/config.toml
(or the path named by MCADECODE_CONFIG).

Examples:
  mcadecode config init
  mcadecode config init --force`,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := config.Path()

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
				}
			}

			if err := config.Save(path, config.Default()); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			fmt.Printf("Wrote default configuration to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration mcadecode would use, merging the config
file (if present) with built-in defaults.

Examples:
  mcadecode config show`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.Path())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			encoder := toml.NewEncoder(os.Stdout)
			if err := encoder.Encode(cfg); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}

			return nil
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Println(config.Path())
			return nil
		},
	}
}
