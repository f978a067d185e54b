package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local package cache",
	}
	cmd.AddCommand(newCacheDirCmd())
	return cmd
}

func newCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Print the local cache directory path",
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			fmt.Println(ctx.Container.CacheDir())
			return nil
		}),
	}
}

func init() {
	rootCmd.AddCommand(newCacheCmd())
}
