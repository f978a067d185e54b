package services

import (
	"context"

	"github.com/wasmpkg/wkg/internal/domain/entities"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

// ProtocolResolutionInput carries everything a step in the backend
// selection chain (spec.md §4.4.4 step 4) needs to decide a protocol.
type ProtocolResolutionInput struct {
	Registry    values.Registry
	RegConfig   entities.RegistryConfig
	Metadata    entities.RegistryMetadata
	HasMetadata bool
}

// ProtocolResolver picks the backend protocol for a registry, delegating
// to the next resolver in the chain when it has no opinion. Chain order
// mirrors the teacher's plugin-resolution chain
// (CachedPluginResolver -> EmbeddedPluginResolver): check narrow, fast
// criteria first and fall through to a catch-all.
type ProtocolResolver interface {
	Resolve(ctx context.Context, in ProtocolResolutionInput) (string, error)
	SetNext(next ProtocolResolver)
}

// BaseResolver implements the chain-linking boilerplate so each concrete
// resolver only has to embed it and implement Resolve.
type BaseResolver struct {
	next ProtocolResolver
}

// SetNext installs the next resolver to try when this one declines.
func (b *BaseResolver) SetNext(next ProtocolResolver) {
	b.next = next
}

// ResolveNext delegates to the next resolver, or fails if this is the end
// of the chain.
func (b *BaseResolver) ResolveNext(ctx context.Context, in ProtocolResolutionInput) (string, error) {
	if b.next == nil {
		return "", &InvalidRegistryMetadataError{
			Registry: in.Registry,
			Reason:   "no backend protocol could be determined; configure one explicitly",
		}
	}
	return b.next.Resolve(ctx, in)
}

// ExplicitBackendResolver handles step 4's highest-priority case: an
// explicit default_backend set in the registry's local RegistryConfig.
type ExplicitBackendResolver struct {
	BaseResolver
}

// NewExplicitBackendResolver constructs the first link in the chain.
func NewExplicitBackendResolver() *ExplicitBackendResolver {
	return &ExplicitBackendResolver{}
}

// Resolve returns the configured protocol if one is set, else delegates.
func (r *ExplicitBackendResolver) Resolve(ctx context.Context, in ProtocolResolutionInput) (string, error) {
	if in.RegConfig.Protocol != "" {
		return in.RegConfig.Protocol, nil
	}
	return r.ResolveNext(ctx, in)
}

// MetadataPreferredProtocolResolver handles step 4's middle priority:
// the registry's advertised RegistryMetadata.preferredProtocol (or its
// sole configured protocol). Per step 5, a protocol of "localfs" sourced
// from fetched metadata is disallowed — only explicit local configuration
// may select that backend.
type MetadataPreferredProtocolResolver struct {
	BaseResolver
}

// NewMetadataPreferredProtocolResolver constructs the middle link.
func NewMetadataPreferredProtocolResolver() *MetadataPreferredProtocolResolver {
	return &MetadataPreferredProtocolResolver{}
}

// Resolve returns the registry-advertised preferred protocol if one is
// unambiguous, else delegates.
func (r *MetadataPreferredProtocolResolver) Resolve(ctx context.Context, in ProtocolResolutionInput) (string, error) {
	if !in.HasMetadata {
		return r.ResolveNext(ctx, in)
	}
	preferred := in.Metadata.ResolvePreferredProtocol()
	if preferred == "" {
		return r.ResolveNext(ctx, in)
	}
	if preferred == entities.ProtocolLocalFS {
		return "", &InvalidRegistryMetadataError{
			Registry: in.Registry,
			Reason:   "fetched registry metadata may not select the localfs backend; configure it locally instead",
		}
	}
	return preferred, nil
}

// OCIFallbackResolver is the terminal link: spec.md §4.4.4 step 4's
// lowest priority, "oci" unconditionally.
type OCIFallbackResolver struct {
	BaseResolver
}

// NewOCIFallbackResolver constructs the terminal link.
func NewOCIFallbackResolver() *OCIFallbackResolver {
	return &OCIFallbackResolver{}
}

// Resolve always returns "oci"; it never delegates further.
func (r *OCIFallbackResolver) Resolve(ctx context.Context, in ProtocolResolutionInput) (string, error) {
	return entities.ProtocolOCI, nil
}

// NewDefaultProtocolResolverChain wires the three links in priority order.
func NewDefaultProtocolResolverChain() ProtocolResolver {
	explicit := NewExplicitBackendResolver()
	metadata := NewMetadataPreferredProtocolResolver()
	fallback := NewOCIFallbackResolver()
	explicit.SetNext(metadata)
	metadata.SetNext(fallback)
	return explicit
}
