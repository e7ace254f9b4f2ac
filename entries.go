package tarstream

import (
	"io"
	"time"
)

// entryKind tags the four ways an entry can be appended to a Streamer,
// replacing original_source/src/streamer.rs's four parallel maps
// (stream_files, stream_data, stream_special_file, stream_link) with a
// single ordered list of tagged variants, per spec.md §9 Design Notes.
type entryKind int

const (
	kindRegularFromPath entryKind = iota
	kindRegularFromStream
	kindSpecialFile
	kindLink
)

// entryPhase tracks where Read is positioned within a single entry's byte
// stream: header blocks (including any GNU/PAX extension entries ahead of
// the real one), then payload (only for kinds that have one), then
// zero-padding to the next 512-byte boundary.
type entryPhase int

const (
	phaseHeader entryPhase = iota
	phasePayload
	phasePadding
	phaseDone
)

// entry is one scripted archive member plus the mutable state needed to
// resume streaming it across arbitrarily small Read calls.
type entry struct {
	kind entryKind

	// archiveName is the name recorded in the tar header.
	archiveName string

	// kindRegularFromPath
	srcPath        string
	followSymlinks bool

	// kindRegularFromStream
	stream     io.Reader
	streamSize int64

	// kindSpecialFile
	specialType EntryType // TypeDir, TypeFifo, TypeChar or TypeBlock
	specialMeta FileMeta

	// kindLink
	linkTarget string
	linkHard   bool // true: hard link (TypeLink); false: symlink (TypeSymlink)

	// callerHeader is the caller-supplied *Header for kindRegularFromStream
	// and kindLink entries (append_with_header/append_data/append_link all
	// take one); nil means synthesize a default. These kinds are
	// pre-encoded at enqueue time (spec.md's Data Model table), so the
	// header bytes this field feeds into are built once, immediately, and
	// never re-read from this pointer afterwards — a caller mutating or
	// reusing the same *Header for a later Append call cannot corrupt an
	// already-queued entry.
	callerHeader *Header

	headerMode HeaderMode

	// mutable streaming state. headerBytes is set at enqueue time for
	// stream and link entries and on the first Read that reaches the entry
	// for the other kinds; path-backed files are opened only while their
	// payload is being drained.
	headerBytes      []byte
	headerPos        int
	payloadSize      int64
	payloadBytesRead int64
	paddingSize      int
	paddingPos       int
	phase            entryPhase
}

// hasPayload reports whether this entry carries a data region after its
// header (only regular entries do; special files and links are header-only,
// matching original_source/src/streamer.rs's Read impl).
func (e *entry) hasPayload() bool {
	return e.kind == kindRegularFromPath || e.kind == kindRegularFromStream
}

// paddingLen returns the number of zero bytes needed to round size up to the
// next 512-byte boundary.
func paddingLen(size int64) int {
	rem := size % blockSize
	if rem == 0 {
		return 0
	}
	return int(blockSize - rem)
}

var epoch = time.Unix(0, 0).UTC()
