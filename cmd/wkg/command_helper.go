package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wasmpkg/wkg/internal/infrastructure/container"
)

// CommandContext provides common command dependencies. Eliminates
// repetitive container initialization across CLI commands.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler is a function that executes with initialized
// dependencies. Commands focus on business logic, not infrastructure
// setup.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization,
// binding the package-level flag/env vars populated by root.go into
// container.Options.
func withContainer(handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		c, err := container.New(cmd.Context(), container.Options{
			Logger:      logger,
			ConfigPath:  cfgFile,
			CacheDir:    cacheDir,
			Offline:     offline,
			Registry:    registry,
			OCIUsername: ociUsername,
			OCIPassword: ociPassword,
			OCIInsecure: ociInsecure,
		})
		if err != nil {
			return fmt.Errorf("initializing wkg: %w", err)
		}
		defer c.Close(cmd.Context())

		ctx := &CommandContext{
			Container: c,
			Logger:    logger,
			Context:   cmd.Context(),
		}

		return handler(ctx, cmd, args)
	}
}
