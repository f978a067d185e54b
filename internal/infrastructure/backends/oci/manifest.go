package oci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry/remote"
)

// artifactType marks a pushed manifest as a Wasm component artifact,
// per the CNCF TAG Runtime guidance this driver follows.
const artifactType = "application/vnd.wasm.component.v1"

// fetchManifest resolves tagOrDigest to a manifest descriptor and reads
// its full JSON body.
func fetchManifest(ctx context.Context, repo *remote.Repository, tagOrDigest string) (ocispec.Descriptor, []byte, error) {
	desc, err := repo.Resolve(ctx, tagOrDigest)
	if err != nil {
		return ocispec.Descriptor{}, nil, fmt.Errorf("resolving %q: %w", tagOrDigest, err)
	}
	manifestBytes, err := content.FetchAll(ctx, repo, desc)
	if err != nil {
		return ocispec.Descriptor{}, nil, fmt.Errorf("fetching manifest %q: %w", tagOrDigest, err)
	}
	return desc, manifestBytes, nil
}

// unmarshalManifest is a thin json.Unmarshal wrapper kept separate so
// the manifest shape decoded in driver.go stays the minimal subset this
// driver actually reads (layers only), not the full OCI manifest
// struct.
func unmarshalManifest(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// pushComponent uploads content as a single-layer component manifest
// and tags it with tag, creating the layer blob first. The manifest
// carries tag as its org.opencontainers.image.version annotation.
func pushComponent(ctx context.Context, repo *remote.Repository, tag string, componentBytes []byte) error {
	layerDesc := content.NewDescriptorFromBytes(mediaTypeComponent, componentBytes)
	if err := repo.Push(ctx, layerDesc, bytes.NewReader(componentBytes)); err != nil {
		return fmt.Errorf("pushing component layer: %w", err)
	}

	manifestDesc, err := oras.PackManifest(ctx, repo, oras.PackManifestVersion1_1, artifactType, oras.PackManifestOptions{
		Layers:              []ocispec.Descriptor{layerDesc},
		ManifestAnnotations: map[string]string{ocispec.AnnotationVersion: tag},
	})
	if err != nil {
		return fmt.Errorf("packing manifest: %w", err)
	}

	if err := repo.Tag(ctx, manifestDesc, tag); err != nil {
		return fmt.Errorf("tagging %q: %w", tag, err)
	}
	return nil
}
