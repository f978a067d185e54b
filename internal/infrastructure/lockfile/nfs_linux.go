//go:build linux

package lockfile

import (
	"errors"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// nfsSuperMagic is NFS_SUPER_MAGIC from the Linux kernel's statfs.h: the
// f_type value statfs(2) reports for both NFSv3 and NFSv4 mounts.
const nfsSuperMagic = 0x6969

// onNFS reports whether path lives on an NFS mount, per spec.md's "NFS
// detection is a best-effort heuristic": a statfs failure (path not yet
// created, permission denied, ...) is treated as "not NFS" rather than
// propagated, since the caller falls back to a real flock attempt either
// way.
func onNFS(path string) bool {
	var st unix.Statfs_t
	if err := unix.Statfs(filepath.Dir(path), &st); err != nil {
		return false
	}
	return st.Type == nfsSuperMagic
}

// lockUnsupportedErr reports whether err is the kernel telling us this
// filesystem doesn't implement advisory locking at all, as opposed to
// "would block" contention: gofrs/flock surfaces both as a plain
// *os.PathError wrapping a syscall.Errno, so unwrap and compare.
func lockUnsupportedErr(err error) bool {
	return errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENOLCK)
}
