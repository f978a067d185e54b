package main

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/wasmpkg/wkg/internal/domain/values"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the wkg configuration file",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetDefaultRegistryCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration as TOML",
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			data, err := toml.Marshal(ctx.Container.Config())
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			fmt.Printf("# %s\n%s", ctx.Container.ConfigPath(), data)
			return nil
		}),
	}
}

func newConfigSetDefaultRegistryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-default-registry <host[:port]>",
		Short: "Set the default registry packages resolve against",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			reg, err := values.NewRegistry(args[0])
			if err != nil {
				return fmt.Errorf("parsing registry: %w", err)
			}
			cfg := ctx.Container.Config()
			cfg.DefaultRegistry = &reg
			if err := ctx.Container.ConfigStore().Save(ctx.Container.ConfigPath(), cfg); err != nil {
				return fmt.Errorf("saving configuration: %w", err)
			}
			fmt.Printf("default registry set to %s\n", reg)
			return nil
		}),
	}
}

func init() {
	rootCmd.AddCommand(newConfigCmd())
}
