package tarstream

import (
	"fmt"
	"os/user"
	"strconv"
	"time"
)

// Field capacities of the classic (pre-extension) tar header. A path or link
// target whose encoded byte length is at least one of these triggers the GNU
// long-name/long-link extension protocol (spec.md §4.2).
const (
	nameCap = 100
	linkCap = 100

	blockSize = 512
)

// EntryType is the tar header typeflag.
type EntryType byte

// Entry types used by this package. Values match the GNU/USTAR typeflag byte.
const (
	TypeReg         EntryType = '0'
	TypeLink        EntryType = '1'
	TypeSymlink     EntryType = '2'
	TypeChar        EntryType = '3'
	TypeBlock       EntryType = '4'
	TypeDir         EntryType = '5'
	TypeFifo        EntryType = '6'
	TypeXHeader     EntryType = 'x' // PAX extended header
	TypeGNULongName EntryType = 'L'
	TypeGNULongLink EntryType = 'K'
)

// HeaderMode selects how filesystem metadata is projected into header fields
// when a header is synthesized from a path. It does not apply to
// AppendWithHeader, which takes a caller-populated Header directly.
type HeaderMode int

const (
	// Complete captures every field this package can obtain: permission
	// bits plus setuid/setgid/sticky, numeric uid/gid, a best-effort
	// uid/gid-to-name lookup and modification time; entries read from a
	// path as regular files also carry their user extended attributes as
	// PAX records. Access and change times are not recorded.
	Complete HeaderMode = iota
	// Deterministic zeroes the ownership and time fields that would make
	// two otherwise identical trees produce different archives: uid/gid,
	// owner names and modification time. Size and mode bits (permissions
	// plus setuid/setgid/sticky) are kept.
	Deterministic
	// Minimal keeps only what's needed to faithfully round-trip the file:
	// permission bits, size, and modification time.
	Minimal
)

// String implements pflag.Value and fmt.Stringer.
func (m HeaderMode) String() string {
	switch m {
	case Complete:
		return "complete"
	case Deterministic:
		return "deterministic"
	case Minimal:
		return "minimal"
	default:
		return fmt.Sprintf("HeaderMode(%d)", int(m))
	}
}

// Set implements pflag.Value so HeaderMode can be used directly as a CLI flag
// (the way lib/encoder.MultiEncoder is in the teacher repo).
func (m *HeaderMode) Set(s string) error {
	switch s {
	case "complete":
		*m = Complete
	case "deterministic":
		*m = Deterministic
	case "minimal":
		*m = Minimal
	default:
		return fmt.Errorf("unknown header mode %q: must be complete, deterministic or minimal", s)
	}
	return nil
}

// Type implements pflag.Value.
func (m HeaderMode) Type() string { return "HeaderMode" }

// FileMeta is the metadata the filesystem adapter extracts from a stat call.
// It stands in for spec.md's opaque "metadata" argument to set_metadata_in_mode.
type FileMeta struct {
	Size       int64
	Mode       uint32 // Unix permission bits, as from (os.FileMode).Perm(), plus raw set*id/sticky; no file type bits
	Uid, Gid   uint32
	ModTime    time.Time
	AccessTime time.Time
	ChangeTime time.Time
	IsDir      bool
	IsSymlink  bool
	IsFifo     bool
	IsSocket   bool
	IsCharDev  bool
	IsBlockDev bool
	// Rdev is the raw device id, valid only for character/block special files.
	Rdev uint64
	// HaveRdev reports whether Rdev was populated (always false on platforms
	// without a device id concept).
	HaveRdev bool
}

// IsRegular reports whether meta describes a plain regular file: none of
// the directory/symlink/special bits are set.
func (m FileMeta) IsRegular() bool {
	return !m.IsDir && !m.IsSymlink && !m.IsFifo && !m.IsSocket && !m.IsCharDev && !m.IsBlockDev
}

// Header is the mutable record this package fills in and serializes to
// exactly 512 bytes per entry (plus any GNU extension entries it causes to
// be emitted ahead of it).
type Header struct {
	Name     string
	LinkName string
	Size     int64
	Mode     int64
	Uid, Gid int
	Uname    string
	Gname    string
	ModTime  time.Time
	Typeflag EntryType
	Devmajor uint32
	Devminor uint32
}

// SetPath attempts to store path in the classic name field. It fails if the
// encoded byte length of path is not strictly less than the field capacity;
// callers needing the GNU long-name extension build it themselves (see
// Streamer.buildHeaderBytes) rather than calling SetPath directly, mirroring
// original_source/streamer.rs's prepare_header_path.
func (h *Header) SetPath(path string) error {
	data, err := path2bytes(path)
	if err != nil {
		return err
	}
	if len(data) >= nameCap {
		return fmt.Errorf("path %q is too long for the classic name field (%d bytes, capacity %d)", path, len(data), nameCap)
	}
	h.Name = string(data)
	return nil
}

// SetLinkName is the link-target analog of SetPath.
func (h *Header) SetLinkName(target string) error {
	data, err := path2bytes(target)
	if err != nil {
		return err
	}
	if len(data) >= linkCap {
		return fmt.Errorf("link target %q is too long for the classic linkname field (%d bytes, capacity %d)", target, len(data), linkCap)
	}
	h.LinkName = string(data)
	return nil
}

// SetEntryType sets the header's typeflag.
func (h *Header) SetEntryType(t EntryType) { h.Typeflag = t }

// SetDeviceMajor sets the device major number (valid for TypeChar/TypeBlock).
func (h *Header) SetDeviceMajor(major uint32) error {
	h.Devmajor = major
	return nil
}

// SetDeviceMinor sets the device minor number (valid for TypeChar/TypeBlock).
func (h *Header) SetDeviceMinor(minor uint32) error {
	h.Devminor = minor
	return nil
}

var userLookupCache = map[uint32]string{}
var groupLookupCache = map[uint32]string{}

func lookupUserName(uid uint32) string {
	if name, ok := userLookupCache[uid]; ok {
		return name
	}
	name := ""
	if u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10)); err == nil {
		name = u.Username
	}
	userLookupCache[uid] = name
	return name
}

func lookupGroupName(gid uint32) string {
	if name, ok := groupLookupCache[gid]; ok {
		return name
	}
	name := ""
	if g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10)); err == nil {
		name = g.Name
	}
	groupLookupCache[gid] = name
	return name
}

// SetMetadataInMode projects fs metadata into the header according to mode.
// Complete, Deterministic and Minimal are described on the HeaderMode type.
func (h *Header) SetMetadataInMode(meta FileMeta, mode HeaderMode) {
	h.Size = meta.Size
	switch mode {
	case Complete:
		h.Mode = int64(meta.Mode)
		h.Uid = int(meta.Uid)
		h.Gid = int(meta.Gid)
		h.Uname = lookupUserName(meta.Uid)
		h.Gname = lookupGroupName(meta.Gid)
		h.ModTime = meta.ModTime
	case Deterministic:
		h.Mode = int64(meta.Mode) & 0o7777
		h.Uid = 0
		h.Gid = 0
		h.Uname = ""
		h.Gname = ""
		h.ModTime = time.Unix(0, 0).UTC()
	case Minimal:
		h.Mode = int64(meta.Mode) & 0o7777
		h.Uid = 0
		h.Gid = 0
		h.Uname = ""
		h.Gname = ""
		h.ModTime = meta.ModTime
	}
}

// prepareHeader manufactures a GNU extension header (type 'L' or 'K') whose
// Size is payloadLen — the length of the NUL-terminated name/link payload
// that follows it, before 512-byte padding.
func prepareHeader(payloadLen uint64, typeByte EntryType) *Header {
	return &Header{
		Name:     "././@LongLink",
		Size:     int64(payloadLen),
		Mode:     0,
		Typeflag: typeByte,
		ModTime:  time.Unix(0, 0).UTC(),
	}
}
