package entities

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wasmpkg/wkg/internal/domain/values"
)

func sha256Sum(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

func Test_NewLockFile(t *testing.T) {
	lf := NewLockFile()
	assert.Equal(t, LockFileVersion, lf.Version)
	assert.Empty(t, lf.Packages)
}

func Test_LockFile_Validate(t *testing.T) {
	lf := NewLockFile()
	require.NoError(t, lf.Validate())

	lf.Version = 99
	var err *UnsupportedLockFileVersionError
	assert.ErrorAs(t, lf.Validate(), &err)
}

func Test_LockFile_Validate_RejectsMissingDigest(t *testing.T) {
	lf := NewLockFile()
	lf.Packages = []LockedPackage{{
		Name: values.MustParsePackageRef("wasi:http"),
		Versions: []LockedPackageVersion{{
			Requirement: values.MustNewVersionRequirement("^1"),
			Version:     values.MustNewVersion("1.0.0"),
		}},
	}}
	assert.Error(t, lf.Validate())
}

func Test_LockFile_Validate_RejectsRequirementMismatch(t *testing.T) {
	lf := NewLockFile()
	lf.Packages = []LockedPackage{{
		Name: values.MustParsePackageRef("wasi:http"),
		Versions: []LockedPackageVersion{{
			Requirement: values.MustNewVersionRequirement("^2"),
			Version:     values.MustNewVersion("1.0.0"),
			Digest:      digestFor("payload"),
		}},
	}}
	assert.Error(t, lf.Validate())
}

func Test_LockFile_Upsert_NewPackage(t *testing.T) {
	lf := NewLockFile()
	ref := values.MustParsePackageRef("wasi:http")
	entry := LockedPackageVersion{
		Requirement: values.MustNewVersionRequirement("^1"),
		Version:     values.MustNewVersion("1.0.0"),
		Digest:      digestFor("payload"),
	}
	lf.Upsert(ref, nil, entry)

	require.Len(t, lf.Packages, 1)
	assert.True(t, lf.Packages[0].Name.Equals(ref))
	require.Len(t, lf.Packages[0].Versions, 1)
	assert.True(t, lf.Packages[0].Versions[0].Version.Equals(entry.Version))
}

func Test_LockFile_Upsert_ReplacesSameRequirement(t *testing.T) {
	lf := NewLockFile()
	ref := values.MustParsePackageRef("wasi:http")
	req := values.MustNewVersionRequirement("^1")

	lf.Upsert(ref, nil, LockedPackageVersion{
		Requirement: req,
		Version:     values.MustNewVersion("1.0.0"),
		Digest:      digestFor("v1"),
	})
	lf.Upsert(ref, nil, LockedPackageVersion{
		Requirement: req,
		Version:     values.MustNewVersion("1.1.0"),
		Digest:      digestFor("v1.1"),
	})

	require.Len(t, lf.Packages, 1)
	require.Len(t, lf.Packages[0].Versions, 1)
	assert.Equal(t, "1.1.0", lf.Packages[0].Versions[0].Version.String())
}

func Test_LockedPackage_FindVersion(t *testing.T) {
	req := values.MustNewVersionRequirement("^1")
	pkg := LockedPackage{
		Name: values.MustParsePackageRef("wasi:http"),
		Versions: []LockedPackageVersion{{
			Requirement: req,
			Version:     values.MustNewVersion("1.0.0"),
			Digest:      digestFor("payload"),
		}},
	}

	found, ok := pkg.FindVersion(req)
	assert.True(t, ok)
	assert.Equal(t, "1.0.0", found.Version.String())

	_, ok = pkg.FindVersion(values.MustNewVersionRequirement("^2"))
	assert.False(t, ok)
}

func Test_LockFile_Prune(t *testing.T) {
	lf := NewLockFile()
	ref := values.MustParsePackageRef("wasi:http")
	keepReq := values.MustNewVersionRequirement("^1")
	dropReq := values.MustNewVersionRequirement("^2")

	lf.Upsert(ref, nil, LockedPackageVersion{Requirement: keepReq, Version: values.MustNewVersion("1.0.0"), Digest: digestFor("a")})
	lf.Upsert(ref, nil, LockedPackageVersion{Requirement: dropReq, Version: values.MustNewVersion("2.0.0"), Digest: digestFor("b")})

	lf.Prune(func(p values.PackageRef, r values.VersionRequirement) bool {
		return r.Equals(keepReq)
	})

	require.Len(t, lf.Packages, 1)
	require.Len(t, lf.Packages[0].Versions, 1)
	assert.True(t, lf.Packages[0].Versions[0].Requirement.Equals(keepReq))
}

func digestFor(s string) values.ContentDigest {
	sum := sha256Sum(s)
	d, err := values.NewSHA256ContentDigest(sum)
	if err != nil {
		panic(err)
	}
	return d
}
