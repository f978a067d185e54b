//go:build linux

package lockfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func Test_LockUnsupportedErr_ClassifiesUnsupportedFilesystemErrors(t *testing.T) {
	assert.True(t, lockUnsupportedErr(unix.ENOSYS))
	assert.True(t, lockUnsupportedErr(unix.EOPNOTSUPP))
	assert.True(t, lockUnsupportedErr(unix.ENOLCK))
}

func Test_LockUnsupportedErr_DoesNotClassifyContentionAsUnsupported(t *testing.T) {
	assert.False(t, lockUnsupportedErr(unix.EWOULDBLOCK))
	assert.False(t, lockUnsupportedErr(unix.EAGAIN))
	assert.False(t, lockUnsupportedErr(nil))
}

func Test_OnNFS_NonNFSTempDirReturnsFalse(t *testing.T) {
	assert.False(t, onNFS(t.TempDir()+"/wkg.lock"))
}
