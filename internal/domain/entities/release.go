package entities

import (
	"time"

	"github.com/wasmpkg/wkg/internal/domain/values"
)

// VersionInfo describes one published version of a package as advertised
// by a registry's version-listing operation (spec.md §4.1 GetVersions).
// Yanked versions are still returned by listings (so resolvers can explain
// why a version disappeared) but are always excluded from resolution,
// even when a requirement or a lock entry names them exactly.
type VersionInfo struct {
	Version values.Version
	Yanked  bool
}

// Release is a single fetchable package version: everything a backend
// needs to return from GetRelease, and everything the cache needs to
// persist alongside the downloaded content.
type Release struct {
	Version     values.Version
	Digest      values.ContentDigest
	ContentSize int64
	PublishedAt time.Time
}

// SatisfiesRequirement reports whether this release is an acceptable
// candidate for a requirement: the version must satisfy the constraint,
// and prerelease versions are only accepted when the requirement itself
// references the same prerelease series (values.VersionRequirement already
// encodes that rule via the underlying semver constraint).
func (r Release) SatisfiesRequirement(req values.VersionRequirement) bool {
	return req.Satisfies(r.Version)
}
