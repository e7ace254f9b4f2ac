package tarstream

import (
	"io"
	"os"
)

// decodeDevice splits a raw rdev value into GNU tar's major/minor pair. The
// bit layout matches glibc's makedev/major/minor macros, as used by
// original_source/src/streamer.rs's prepare_special_header.
func decodeDevice(rdev uint64) (major, minor uint32) {
	major = uint32((rdev>>32)&0xFFFFF000) | uint32((rdev>>8)&0x00000FFF)
	minor = uint32((rdev>>12)&0xFFFFFF00) | uint32(rdev&0x000000FF)
	return major, minor
}

// openAndSeek opens path for reading and seeks to offset, used by
// regularFromPath entries to resume a payload read at an arbitrary byte
// offset (the path is re-opened on every Read call into a fresh phase, per
// spec.md §4.1).
func openAndSeek(path string, offset int64) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapFSError("opening", path, err)
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, wrapFSError("seeking", path, err)
		}
	}
	return f, nil
}

// unixModeBits renders m as a traditional Unix mode word: permission bits
// plus the setuid/setgid/sticky bits, which os.FileMode.Perm() strips.
func unixModeBits(m os.FileMode) uint32 {
	bits := uint32(m.Perm())
	if m&os.ModeSetuid != 0 {
		bits |= 0o4000
	}
	if m&os.ModeSetgid != 0 {
		bits |= 0o2000
	}
	if m&os.ModeSticky != 0 {
		bits |= 0o1000
	}
	return bits
}

// fileMetaFromInfo fills the platform-independent fields of FileMeta from a
// standard os.FileInfo; platform-specific fields (Uid/Gid/Rdev/times beyond
// ModTime) are filled in by the platform's statPath.
func fileMetaFromInfo(fi os.FileInfo) FileMeta {
	m := fi.Mode()
	return FileMeta{
		Size:       fi.Size(),
		Mode:       unixModeBits(m),
		ModTime:    fi.ModTime(),
		IsDir:      fi.IsDir(),
		IsSymlink:  m&os.ModeSymlink != 0,
		IsFifo:     m&os.ModeNamedPipe != 0,
		IsSocket:   m&os.ModeSocket != 0,
		IsCharDev:  m&os.ModeCharDevice != 0,
		IsBlockDev: m&os.ModeDevice != 0 && m&os.ModeCharDevice == 0,
	}
}
