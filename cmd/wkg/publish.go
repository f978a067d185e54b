package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/wasmpkg/wkg/internal/domain/values"
)

var publishSign bool

func newPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <namespace:name> <version> <path>",
		Short: "Publish a component binary as a package version",
		Long: `Publish reads path and uploads it to pkg's configured registry, tagged
as version. With --sign, and no explicit OCI credentials configured, it
interactively confirms before publishing anonymously.`,
		Args: cobra.ExactArgs(3),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			pkg, err := values.ParsePackageRef(args[0])
			if err != nil {
				return fmt.Errorf("parsing package reference: %w", err)
			}
			version, err := values.NewVersion(args[1])
			if err != nil {
				return fmt.Errorf("parsing version: %w", err)
			}

			if publishSign && ociUsername == "" && ociPassword == "" {
				proceed := false
				err := huh.NewConfirm().
					Title(fmt.Sprintf("No OCI credentials are configured for %s. Publish anonymously anyway?", pkg)).
					Affirmative("Publish").
					Negative("Cancel").
					Value(&proceed).
					Run()
				if err != nil {
					return fmt.Errorf("confirming publish: %w", err)
				}
				if !proceed {
					return fmt.Errorf("publish cancelled")
				}
			}

			f, err := os.Open(args[2])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[2], err)
			}
			defer f.Close()

			if err := ctx.Container.CachingClient().Publish(ctx.Context, pkg, version, f); err != nil {
				return fmt.Errorf("publishing %s@%s: %w", pkg, version, err)
			}
			fmt.Printf("published %s@%s\n", pkg, version)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&publishSign, "sign", false, "confirm interactively before publishing without explicit credentials")

	return cmd
}

func init() {
	rootCmd.AddCommand(newPublishCmd())
}
