//go:build windows

package tarstream

import "os"

// statPath on Windows has no uid/gid/device-id concept; FileMeta carries
// only what os.FileInfo already gives us, matching
// backend/local/stat_windows.go's narrower surface versus stat_unix.go.
func statPath(path string, followSymlinks bool) (FileMeta, error) {
	var fi os.FileInfo
	var err error
	if followSymlinks {
		fi, err = os.Stat(path)
	} else {
		fi, err = os.Lstat(path)
	}
	if err != nil {
		return FileMeta{}, wrapFSError("stat", path, err)
	}
	return fileMetaFromInfo(fi), nil
}

func readLink(path string) (string, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return "", wrapFSError("reading link", path, err)
	}
	return target, nil
}

func isUnsupportedXattr(err error) bool {
	return true
}
