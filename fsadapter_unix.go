//go:build unix

package tarstream

import (
	"os"
	"syscall"

	"github.com/pkg/xattr"
)

// statPath stats path, following a trailing symlink only when followSymlinks
// is true, and enriches the result with the Unix-only fields FileMeta
// carries (uid/gid, device id, access/change time).
func statPath(path string, followSymlinks bool) (FileMeta, error) {
	var fi os.FileInfo
	var err error
	if followSymlinks {
		fi, err = os.Stat(path)
	} else {
		fi, err = os.Lstat(path)
	}
	if err != nil {
		if isCircularSymlinkError(err) {
			return FileMeta{}, &UnsupportedFileTypeError{Path: path, Reason: "circular symlink"}
		}
		return FileMeta{}, wrapFSError("stat", path, err)
	}

	meta := fileMetaFromInfo(fi)
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		meta.Uid = st.Uid
		meta.Gid = st.Gid
		meta.AccessTime = statAtime(st)
		meta.ChangeTime = statCtime(st)
		if meta.IsCharDev || meta.IsBlockDev {
			meta.Rdev = uint64(st.Rdev)
			meta.HaveRdev = true
		}
	}
	return meta, nil
}

// readLink reads the target of a symbolic link without resolving it; any
// error is returned as a FilesystemError naming path.
func readLink(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", wrapFSError("reading link", path, err)
	}
	return target, nil
}

// isCircularSymlinkError reports whether err is ELOOP, the way
// backend/local/symlink.go's isCircularSymlinkError detects a symlink loop.
func isCircularSymlinkError(err error) bool {
	perr, ok := err.(*os.PathError)
	if !ok {
		return false
	}
	errno, ok := perr.Err.(syscall.Errno)
	return ok && errno == syscall.ELOOP
}

// isUnsupportedXattr reports whether err indicates the filesystem has no
// xattr support at all, the way backend/local/xattr.go's
// xattrIsNotSupported classifies *xattr.Error.
func isUnsupportedXattr(err error) bool {
	xerr, ok := err.(*xattr.Error)
	if !ok {
		return false
	}
	return xerr.Err == syscall.EINVAL || xerr.Err == syscall.ENOTSUP || xerr.Err == xattr.ENOATTR
}
