package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmpkg/wkg/internal/domain/values"
)

var pullOutput string

func newPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull <namespace:name> <version>",
		Short: "Fetch a package version's content into the local cache",
		Long: `Pull fetches pkg@version's release metadata and content, verifying
the content against the release's digest, serving both from the local
cache on a repeat pull.`,
		Args: cobra.ExactArgs(2),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			pkg, err := values.ParsePackageRef(args[0])
			if err != nil {
				return fmt.Errorf("parsing package reference: %w", err)
			}
			version, err := values.NewVersion(args[1])
			if err != nil {
				return fmt.Errorf("parsing version: %w", err)
			}

			release, err := ctx.Container.CachingClient().GetRelease(ctx.Context, pkg, version)
			if err != nil {
				return fmt.Errorf("fetching release metadata for %s@%s: %w", pkg, version, err)
			}

			content, err := ctx.Container.CachingClient().GetContent(ctx.Context, pkg, release)
			if err != nil {
				return fmt.Errorf("fetching content for %s@%s: %w", pkg, version, err)
			}
			defer content.Close()

			if pullOutput == "" {
				fmt.Printf("%s@%s: %s (%d bytes)\n", pkg, version, release.Digest, release.ContentSize)
				return nil
			}

			out, err := os.Create(pullOutput)
			if err != nil {
				return fmt.Errorf("creating %s: %w", pullOutput, err)
			}
			defer out.Close()

			if _, err := io.Copy(out, content); err != nil {
				return fmt.Errorf("writing %s: %w", pullOutput, err)
			}
			fmt.Printf("wrote %s@%s to %s\n", pkg, version, pullOutput)
			return nil
		}),
	}

	cmd.Flags().StringVar(&pullOutput, "output", "", "write the fetched component binary to this path instead of just printing its digest")

	return cmd
}

func init() {
	rootCmd.AddCommand(newPullCmd())
}
