package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wasmpkg/wkg/internal/application/services"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/values"
	"github.com/wasmpkg/wkg/internal/infrastructure/lockfile"
)

var forceOverride bool

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <namespace:name@requirement>...",
		Short: "Resolve dependencies against configured registries and update wkg.lock",
		Long: `Resolve one or more package requirements against their configured
registries, reusing a still-satisfying locked version where one exists,
and record the outcome in wkg.lock.`,
		Example: `  # Resolve a single dependency
  wkg resolve wasi:http@^0.2

  # Resolve several at once, letting a later argument replace an earlier
  # resolution of the same package
  wkg resolve wasi:http@^0.2 wasi:io@^0.2 --force`,
		Args: cobra.MinimumNArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			inputs := make([]services.DependencyInput, 0, len(args))
			for _, arg := range args {
				input, err := parseDependencyArg(arg)
				if err != nil {
					return err
				}
				inputs = append(inputs, input)
			}

			handle, err := ctx.Container.LockFileStore().OpenExclusive(ctx.Context, lockfile.DefaultFileName)
			if err != nil {
				return fmt.Errorf("opening %s: %w", lockfile.DefaultFileName, err)
			}
			defer handle.Close()

			lockFile, err := handle.Load(ctx.Context)
			if err != nil {
				return fmt.Errorf("loading %s: %w", lockfile.DefaultFileName, err)
			}

			resolutions, err := ctx.Container.Resolver().Resolve(ctx.Context, inputs, lockFile, forceOverride)
			if err != nil {
				return fmt.Errorf("resolving dependencies: %w", err)
			}

			for _, res := range resolutions {
				if res.Registry == nil {
					fmt.Printf("%s: local\n", res.Name)
					continue
				}
				registryStr := res.Registry.Registry.String()
				lockFile.Upsert(res.Registry.Package, &registryStr, entities.LockedPackageVersion{
					Requirement: res.Registry.Requirement,
					Version:     res.Registry.Version,
					Digest:      res.Registry.Digest,
				})
				fmt.Printf("%s: %s (%s)\n", res.Name, res.Registry.Version, res.Registry.Digest)
			}

			if err := handle.Write(ctx.Context, lockFile); err != nil {
				return fmt.Errorf("writing %s: %w", lockfile.DefaultFileName, err)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&forceOverride, "force", false, "replace any existing resolution for a package instead of leaving it in place")

	return cmd
}

// parseDependencyArg parses "namespace:name@requirement" into a
// DependencyInput. A missing "@requirement" resolves against "*".
func parseDependencyArg(arg string) (services.DependencyInput, error) {
	refPart, reqPart, _ := strings.Cut(arg, "@")

	pkg, err := values.ParsePackageRef(refPart)
	if err != nil {
		return services.DependencyInput{}, fmt.Errorf("parsing %q: %w", arg, err)
	}

	req, err := values.NewVersionRequirement(reqPart)
	if err != nil {
		return services.DependencyInput{}, fmt.Errorf("parsing %q: %w", arg, err)
	}

	return services.DependencyInput{Package: pkg, Requirement: req}, nil
}

func init() {
	rootCmd.AddCommand(newResolveCmd())
}
