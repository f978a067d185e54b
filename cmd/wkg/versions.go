package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmpkg/wkg/internal/domain/values"
)

func newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions <namespace:name>",
		Short: "List all known versions of a package",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			pkg, err := values.ParsePackageRef(args[0])
			if err != nil {
				return fmt.Errorf("parsing package reference: %w", err)
			}

			versions, err := ctx.Container.CachingClient().ListAllVersions(ctx.Context, pkg)
			if err != nil {
				return fmt.Errorf("listing versions for %s: %w", pkg, err)
			}

			for _, v := range versions {
				if v.Yanked {
					fmt.Printf("%s (yanked)\n", v.Version)
					continue
				}
				fmt.Println(v.Version)
			}
			return nil
		}),
	}
}

func init() {
	rootCmd.AddCommand(newVersionsCmd())
}
