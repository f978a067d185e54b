package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wasmpkg/wkg/internal/application/ports"
	"github.com/wasmpkg/wkg/internal/domain/entities"
	domainservices "github.com/wasmpkg/wkg/internal/domain/services"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// DependencyInput is one unresolved dependency edge to feed into Resolve:
// either a registry package under a version requirement, or a local
// package directory whose own transitive dependencies must be parsed
// first (spec.md §4.7 step 1).
type DependencyInput struct {
	Package     values.PackageRef
	Requirement values.VersionRequirement

	Local     bool
	LocalPath string
}

// LocalResolution is a dependency satisfied by an on-disk package
// directory rather than a registry fetch.
type LocalResolution struct {
	Path string
}

// RegistryResolution is a dependency satisfied by a specific version
// pulled from a registry, pinned to the content digest that was
// verified at resolve time.
type RegistryResolution struct {
	Package     values.PackageRef
	Registry    values.Registry
	Requirement values.VersionRequirement
	Version     values.Version
	Digest      values.ContentDigest
}

// Resolution is the outcome of resolving one DependencyInput: exactly
// one of Local or Registry is set.
type Resolution struct {
	Name     values.PackageRef
	Local    *LocalResolution
	Registry *RegistryResolution
}

// Resolver is the Dependency Resolver (spec.md §4.7): given a set of
// declared dependencies and an optional existing lock file, it produces
// a name-to-Resolution map, preferring locked versions when they still
// satisfy their requirement and are still listed by the registry.
type Resolver struct {
	client        *CachingClient
	config        *entities.Config
	decoder       ports.DependencyDecoder
	graphResolver *domainservices.DependencyGraphResolver
	logger        *slog.Logger
}

// NewResolver constructs a Dependency Resolver.
func NewResolver(client *CachingClient, config *entities.Config, decoder ports.DependencyDecoder, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:        client,
		config:        config,
		decoder:       decoder,
		graphResolver: domainservices.NewDependencyGraphResolver(),
		logger:        logger,
	}
}

// Resolve resolves every input independently and concurrently (spec.md
// §4.7's "ordering & ambiguity" note: no SAT-style global constraint
// solving), then folds the results into a single map in input order so
// the local-wins and forceOverride rules below apply deterministically:
//
//   - A fresh name inserts unconditionally.
//   - A local resolution always replaces an existing registry resolution
//     for the same name.
//   - Any other collision is replaced only when forceOverride is true;
//     otherwise it is left as-is (strict "add" mode).
func (r *Resolver) Resolve(ctx context.Context, inputs []DependencyInput, lockFile *entities.LockFile, forceOverride bool) (map[string]Resolution, error) {
	computed := make([][]Resolution, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			res, err := r.resolveOne(gctx, in, lockFile)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", in.describe(), err)
			}
			computed[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := make(map[string]Resolution, len(inputs))
	for _, group := range computed {
		for _, res := range group {
			key := res.Name.String()
			existing, exists := resolved[key]
			switch {
			case !exists:
				resolved[key] = res
			case forceOverride:
				resolved[key] = res
			case res.Local != nil && existing.Local == nil:
				resolved[key] = res
			default:
				// strict add mode: leave the earlier resolution in place.
			}
		}
	}
	return resolved, nil
}

func (in DependencyInput) describe() string {
	if in.Local {
		return in.LocalPath
	}
	return in.Package.String()
}

// resolveOne resolves a single DependencyInput, returning every
// Resolution it contributes. A registry dependency always contributes
// exactly one. A local dependency contributes its own LocalResolution
// plus, per spec.md §4.7 step 1, the recursively resolved registry
// dependencies declared by decoding the local package itself — a local
// package's ForeignDependencies are always registry references (never
// further local paths), so this recursion is bounded by the decoded
// package's own import list and cannot cycle back into itself.
func (r *Resolver) resolveOne(ctx context.Context, in DependencyInput, lockFile *entities.LockFile) ([]Resolution, error) {
	if in.Local {
		decoded, err := r.decoder.DecodeLocal(ctx, in.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("decoding local package at %s: %w", in.LocalPath, err)
		}

		var out []Resolution
		for _, foreign := range decoded.ForeignDependencies {
			sub, err := r.resolveOne(ctx, DependencyInput{
				Package:     foreign.Package,
				Requirement: foreign.Requirement,
			}, lockFile)
			if err != nil {
				return nil, fmt.Errorf("resolving %s's dependency %s: %w", in.LocalPath, foreign.Package, err)
			}
			out = append(out, sub...)
		}

		return append(out, Resolution{
			Name:  decoded.Package,
			Local: &LocalResolution{Path: in.LocalPath},
		}), nil
	}

	registry, ok := r.config.ResolveRegistry(in.Package)
	if !ok {
		return nil, &entities.RegistryNotConfiguredError{Package: in.Package}
	}

	locked, hasLocked := findLocked(lockFile, in.Package, registry, in.Requirement)

	version, err := r.pickVersion(ctx, in.Package, in.Requirement, locked, hasLocked)
	if err != nil {
		return nil, err
	}

	release, err := r.client.GetRelease(ctx, in.Package, version)
	if err != nil {
		return nil, err
	}

	if hasLocked && !release.Digest.Equals(locked.Digest) {
		return nil, &domainservices.RegistryError{
			Registry: registry,
			Op:       "verify_locked_digest",
			Err:      fmt.Errorf("%s@%s: locked digest %s does not match fetched digest %s", in.Package, version, locked.Digest, release.Digest),
		}
	}

	return []Resolution{{
		Name: in.Package,
		Registry: &RegistryResolution{
			Package:     in.Package,
			Registry:    registry,
			Requirement: in.Requirement,
			Version:     version,
			Digest:      release.Digest,
		},
	}}, nil
}

// pickVersion implements spec.md §4.7 steps 3-4: offline mode requires a
// locked entry; otherwise the full version list is fetched and, if a
// locked version is still listed and not yanked, it is reused as-is
// (an exact-equals match, not a re-check against the requirement, so a
// requirement loosened after the lock was written doesn't invalidate
// it); a locked version that has disappeared or been yanked falls back
// to the latest non-yanked version satisfying the requirement, as does
// an unlocked dependency.
func (r *Resolver) pickVersion(ctx context.Context, pkg values.PackageRef, req values.VersionRequirement, locked entities.LockedPackageVersion, hasLocked bool) (values.Version, error) {
	if r.client.offline {
		if !hasLocked {
			return values.Version{}, &domainservices.CacheError{Reason: fmt.Sprintf("%s has no locked version and offline mode is enabled", pkg)}
		}
		return locked.Version, nil
	}

	versions, err := r.client.ListAllVersions(ctx, pkg)
	if err != nil {
		return values.Version{}, err
	}

	if hasLocked {
		for _, v := range versions {
			if !v.Yanked && v.Version.Equals(locked.Version) {
				return locked.Version, nil
			}
		}
	}

	var best *values.Version
	for _, v := range versions {
		if v.Yanked || !req.Satisfies(v.Version) {
			continue
		}
		if best == nil || v.Version.Compare(*best) > 0 {
			vv := v.Version
			best = &vv
		}
	}
	if best == nil {
		return values.Version{}, &entities.VersionNotFoundError{Package: pkg, Requirement: req}
	}
	return *best, nil
}

func findLocked(lockFile *entities.LockFile, pkg values.PackageRef, registry values.Registry, req values.VersionRequirement) (entities.LockedPackageVersion, bool) {
	if lockFile == nil {
		return entities.LockedPackageVersion{}, false
	}
	registryStr := registry.String()
	for _, lp := range lockFile.Packages {
		if !lp.Name.Equals(pkg) {
			continue
		}
		if lp.Registry == nil || *lp.Registry != registryStr {
			continue
		}
		return lp.FindVersion(req)
	}
	return entities.LockedPackageVersion{}, false
}

// DecodeDependencyGraph decodes every resolution's content into its
// foreign-dependency edges and topologically orders them (spec.md
// §4.7's closing "dependency-graph decoding" step), so a combined
// resolve can be merged in a stable, cycle-free order.
func (r *Resolver) DecodeDependencyGraph(ctx context.Context, resolutions map[string]Resolution) ([]domainservices.DependencyLevel, error) {
	decoded := make([]entities.DecodedDependency, 0, len(resolutions))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, res := range resolutions {
		res := res
		g.Go(func() error {
			dep, err := r.decodeOne(gctx, res)
			if err != nil {
				return fmt.Errorf("decoding dependencies of %s: %w", res.Name, err)
			}
			mu.Lock()
			decoded = append(decoded, dep)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return r.graphResolver.BuildDependencyDAG(decoded)
}

func (r *Resolver) decodeOne(ctx context.Context, res Resolution) (entities.DecodedDependency, error) {
	if res.Local != nil {
		return r.decoder.DecodeLocal(ctx, res.Local.Path)
	}

	release := entities.Release{Version: res.Registry.Version, Digest: res.Registry.Digest}
	content, err := r.client.GetContent(ctx, res.Registry.Package, release)
	if err != nil {
		return entities.DecodedDependency{}, err
	}
	defer content.Close()

	return r.decoder.Decode(ctx, content)
}
