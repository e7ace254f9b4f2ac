package tarstream

import (
	"bytes"
	"io"
	"os"
	"unicode/utf8"

	"github.com/ncw/tarstream/internal/tarlog"
	"github.com/ncw/tarstream/internal/tarmetrics"
)

// Streamer is a pull-mode tar archive producer: callers script it with
// Append* calls, then drive it with repeated Read calls the way any
// io.Reader is driven (io.Copy, http.ServeContent's backing reader, etc).
// A Streamer is not safe for concurrent use.
type Streamer struct {
	entries []*entry
	idx     int

	headerMode     HeaderMode
	followSymlinks bool

	finishRemaining int
	finishStarted   bool
}

// NewStreamer returns an empty Streamer. HeaderMode defaults to Complete and
// symlinks encountered by AppendPath/AppendDirAll are followed into their
// target's content, matching spec.md §4.1's set_follow_symlinks default of
// true (original_source/src/streamer.rs:167's `follow: true`).
func NewStreamer() *Streamer {
	return &Streamer{headerMode: Complete, followSymlinks: true}
}

// SetHeaderMode controls how filesystem metadata is captured for entries
// added by AppendPath, AppendFile, AppendDir and AppendDirAll.
func (s *Streamer) SetHeaderMode(mode HeaderMode) { s.headerMode = mode }

// SetFollowSymlinks controls whether AppendPath/AppendDirAll dereference a
// symlink into its target's content (true, the default) or record it as a
// symlink entry pointing at its unresolved target (false).
func (s *Streamer) SetFollowSymlinks(follow bool) { s.followSymlinks = follow }

// AppendWithHeader queues h, whose caller has already populated every field
// including Size and checksum, with r as its single-pass payload. Header
// bytes are serialized immediately: RegularFromStream entries are
// pre-encoded at enqueue time (spec.md's Data Model table), so a later
// mutation of h cannot corrupt this already-queued entry. This is spec.md
// §4.1's append_with_header.
func (s *Streamer) AppendWithHeader(h *Header, r io.Reader) error {
	if h == nil {
		h = &Header{Mode: 0o644, ModTime: epoch}
	}
	return s.enqueueStream(h, h.Name, r, h.Size)
}

// AppendData queues h as a RegularFromStream entry with archivePath set as
// its name (synthesizing a GNU long-name extension if archivePath is too
// long for the classic field), preserving every other field the caller
// already set on h (mode, uid, uname, ...) except Typeflag, which is always
// set to TypeReg, and Size, which is set to size; r is its single-pass
// payload of size bytes. This is spec.md §4.1's append_data.
func (s *Streamer) AppendData(h *Header, archivePath string, r io.Reader, size int64) error {
	if h == nil {
		h = &Header{Mode: 0o644, ModTime: epoch}
	}
	return s.enqueueStream(h, archivePath, r, size)
}

// AppendDataBytes is a convenience wrapper around AppendData for an
// in-memory payload with default header metadata.
func (s *Streamer) AppendDataBytes(name string, data []byte) error {
	h := &Header{Mode: 0o644, ModTime: epoch}
	return s.AppendData(h, name, bytes.NewReader(data), int64(len(data)))
}

func (s *Streamer) enqueueStream(h *Header, archivePath string, r io.Reader, size int64) error {
	e := &entry{
		kind:         kindRegularFromStream,
		archiveName:  archivePath,
		stream:       r,
		streamSize:   size,
		callerHeader: h,
		headerMode:   s.headerMode,
	}
	hb, err := s.buildHeaderBytes(e)
	if err != nil {
		return err
	}
	e.headerBytes = hb
	s.entries = append(s.entries, e)
	tarmetrics.EntriesQueued.Inc()
	return nil
}

// AppendLink queues h (whose Typeflag must already be TypeLink or
// TypeSymlink; not validated here) as a Link entry: archivePath is set as
// its name and target as its link name, either of which may trigger its own
// GNU long-name/long-link extension. It performs no filesystem access:
// target is recorded verbatim. Header bytes are serialized immediately
// (Link entries are pre-encoded at enqueue time, spec.md's Data Model
// table). This is spec.md §4.1's append_link.
func (s *Streamer) AppendLink(h *Header, archivePath, target string) error {
	if h == nil {
		h = &Header{ModTime: epoch, Typeflag: TypeSymlink}
	}
	e := &entry{
		kind:         kindLink,
		archiveName:  archivePath,
		linkTarget:   target,
		linkHard:     h.Typeflag == TypeLink,
		callerHeader: h,
		headerMode:   s.headerMode,
	}
	hb, err := s.buildHeaderBytes(e)
	if err != nil {
		return err
	}
	e.headerBytes = hb
	s.entries = append(s.entries, e)
	tarmetrics.EntriesQueued.Inc()
	return nil
}

// AppendSymlink is a convenience wrapper around AppendLink for a plain
// symbolic link entry with default header metadata.
func (s *Streamer) AppendSymlink(name, target string) error {
	return s.AppendLink(nil, name, target)
}

// AppendHardLink is AppendSymlink's hard-link counterpart.
func (s *Streamer) AppendHardLink(name, target string) error {
	return s.AppendLink(&Header{ModTime: epoch, Typeflag: TypeLink}, name, target)
}

// AppendOpenFile stats the already-open f immediately, synthesizes its
// header right away (including a GNU long-name extension if archivePath is
// too long for the classic field), and queues a RegularFromStream entry
// whose payload reads from f. The Streamer owns f from this call onward
// the way it owns any RegularFromStream payload source; the caller must not
// read from or close f itself afterward. This is spec.md §4.1's
// append_file(archive_path, open_file).
func (s *Streamer) AppendOpenFile(archivePath string, f *os.File) error {
	fi, err := f.Stat()
	if err != nil {
		return wrapFSError("stat", f.Name(), err)
	}
	meta := fileMetaFromInfo(fi)
	h := &Header{}
	h.SetMetadataInMode(meta, s.headerMode)
	return s.enqueueStream(h, archivePath, f, meta.Size)
}

// AppendFile queues path as a regular file entry unconditionally: it is
// never stat-inspected for type the way AppendPath is, so callers that
// already know path names a plain file can skip that stat.
func (s *Streamer) AppendFile(path string) error {
	return s.AppendFileWithName(path, path)
}

// AppendFileWithName is AppendFile with an explicit archive name distinct
// from the filesystem path.
func (s *Streamer) AppendFileWithName(path, name string) error {
	s.entries = append(s.entries, &entry{
		kind:           kindRegularFromPath,
		archiveName:    name,
		srcPath:        path,
		followSymlinks: s.followSymlinks,
		headerMode:     s.headerMode,
		phase:          phaseHeader,
	})
	tarmetrics.EntriesQueued.Inc()
	return nil
}

// AppendPath stats path and queues whatever entry kind its type calls for:
// a regular file, a directory, a fifo/char/block special file, or (when
// SetFollowSymlinks(false) and path is a symlink) a symlink entry pointing
// at its unresolved target.
func (s *Streamer) AppendPath(path string) error {
	return s.AppendPathWithName(path, path)
}

// AppendPathWithName is AppendPath with an explicit archive name.
func (s *Streamer) AppendPathWithName(path, name string) error {
	meta, err := statPath(path, s.followSymlinks)
	if err != nil {
		return err
	}
	switch {
	case meta.IsSymlink && !s.followSymlinks:
		target, err := readLink(path)
		if err != nil {
			return err
		}
		return s.AppendSymlink(name, target)
	case meta.IsDir:
		return s.appendSpecial(name, TypeDir, meta)
	case meta.IsFifo:
		return s.appendSpecial(name, TypeFifo, meta)
	case meta.IsCharDev:
		return s.appendSpecial(name, TypeChar, meta)
	case meta.IsBlockDev:
		return s.appendSpecial(name, TypeBlock, meta)
	case meta.IsSocket:
		return &UnsupportedFileTypeError{Path: path, Reason: "sockets have no tar representation"}
	default:
		return s.AppendFileWithName(path, name)
	}
}

// AppendDir queues a directory entry for path without descending into it;
// see AppendDirAll for a recursive walk.
func (s *Streamer) AppendDir(path string) error {
	return s.AppendDirWithName(path, path)
}

// AppendDirWithName is AppendDir with an explicit archive name.
func (s *Streamer) AppendDirWithName(path, name string) error {
	meta, err := statPath(path, false)
	if err != nil {
		return err
	}
	return s.appendSpecial(name, TypeDir, meta)
}

func (s *Streamer) appendSpecial(name string, t EntryType, meta FileMeta) error {
	s.entries = append(s.entries, &entry{
		kind:        kindSpecialFile,
		archiveName: name,
		specialType: t,
		specialMeta: meta,
		headerMode:  s.headerMode,
		phase:       phaseHeader,
	})
	tarmetrics.EntriesQueued.Inc()
	return nil
}

// AppendDirAll walks root and queues an entry for every descendant: files,
// directories, symlinks and special files, in the order the walk visits
// them. root itself is never queued — callers that want the root directory
// represented in the archive call AppendDir(root) first, matching
// original_source/src/streamer.rs's append_dir_all.
func (s *Streamer) AppendDirAll(root string) error {
	return walkDirAll(s, root, root)
}

// AppendDirAllWithName is AppendDirAll with the archive-side root path
// (archiveRoot) distinct from the filesystem path walked (srcRoot): every
// descendant's archive name is archiveRoot joined with its path relative to
// srcRoot, per spec.md §4.1's append_dir_all(archive_root, src_root).
func (s *Streamer) AppendDirAllWithName(archiveRoot, srcRoot string) error {
	return walkDirAll(s, archiveRoot, srcRoot)
}

// Read fills dst with the next bytes of the archive: entry headers (plus any
// GNU long-name/long-link or PAX extension headers a name or xattr set
// requires), entry payloads, zero padding to the next 512-byte boundary, and
// finally the 1024-byte end-of-archive trailer. It supports being called
// with arbitrarily small buffers; each call drains only as much as fits,
// resuming exactly where the previous call left off.
func (s *Streamer) Read(dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	total := 0
	for total < len(dst) {
		if s.idx >= len(s.entries) {
			if !s.finishStarted {
				s.finishStarted = true
				s.finishRemaining = 1024
			}
			if s.finishRemaining <= 0 {
				if total > 0 {
					return total, nil
				}
				return 0, io.EOF
			}
			n := copyZeros(dst[total:], s.finishRemaining)
			total += n
			s.finishRemaining -= n
			continue
		}

		e := s.entries[s.idx]
		if e.phase == phaseHeader && e.headerBytes == nil {
			hb, err := s.buildHeaderBytes(e)
			if err != nil {
				return total, err
			}
			e.headerBytes = hb
			tarlog.Debugf("tarstream: queued header for %q (%d bytes)", e.archiveName, len(hb))
		}

		switch e.phase {
		case phaseHeader:
			n := copy(dst[total:], e.headerBytes[e.headerPos:])
			e.headerPos += n
			total += n
			if e.headerPos >= len(e.headerBytes) {
				if e.hasPayload() {
					e.phase = phasePayload
				} else {
					e.phase = phaseDone
				}
			}
		case phasePayload:
			n, replaced, err := s.readPayload(e, dst[total:])
			total += n
			e.payloadBytesRead += int64(n)
			if err != nil {
				return total, err
			}
			if replaced {
				// The path was replaced with a non-regular file since its
				// header was built: spec.md §4.3 skips straight to entry
				// advance, no padding.
				e.phase = phaseDone
				continue
			}
			if e.payloadBytesRead >= e.payloadSize {
				e.paddingSize = paddingLen(e.payloadSize)
				e.phase = phasePadding
			}
		case phasePadding:
			if e.paddingPos >= e.paddingSize {
				e.phase = phaseDone
				continue
			}
			n := copyZeros(dst[total:], e.paddingSize-e.paddingPos)
			e.paddingPos += n
			total += n
		case phaseDone:
			tarmetrics.EntriesStreamed.Inc()
			s.idx++
		}
	}
	return total, nil
}

// readPayload reads up to len(dst) bytes of e's payload, starting at
// e.payloadBytesRead. For kindRegularFromPath the source file is opened and
// seeked fresh on every call rather than held open across the Streamer's
// lifetime, so a Streamer with many queued file entries never accumulates
// open file descriptors for files it isn't actively draining. The bool
// return reports whether the path was found to no longer be a regular file
// (replaced since its header was built), in which case n is always 0 and
// the caller must skip straight to entry advance without padding.
func (s *Streamer) readPayload(e *entry, dst []byte) (int, bool, error) {
	remaining := e.payloadSize - e.payloadBytesRead
	if remaining <= 0 {
		return 0, false, nil
	}
	if int64(len(dst)) > remaining {
		dst = dst[:remaining]
	}

	switch e.kind {
	case kindRegularFromPath:
		meta, err := statPath(e.srcPath, e.followSymlinks)
		if err != nil {
			return 0, false, err
		}
		if !meta.IsRegular() {
			return 0, true, nil
		}
		rc, err := openAndSeek(e.srcPath, e.payloadBytesRead)
		if err != nil {
			return 0, false, err
		}
		defer rc.Close()
		n, err := rc.Read(dst)
		if err != nil && err != io.EOF {
			return n, false, wrapFSError("reading", e.srcPath, err)
		}
		tarmetrics.BytesStreamed.Add(float64(n))
		return n, false, nil
	case kindRegularFromStream:
		n, err := e.stream.Read(dst)
		if err != nil && err != io.EOF {
			return n, false, &PayloadReadError{Err: err}
		}
		tarmetrics.BytesStreamed.Add(float64(n))
		return n, false, nil
	default:
		return 0, false, nil
	}
}

// buildHeaderBytes synthesizes the full header block sequence for e: any
// GNU long-link/long-name extension entries and PAX extended-attribute
// entry its name/linkname/xattrs require, followed by the entry's own
// 512-byte header. It is called at most once per entry (at enqueue time for
// stream and link entries, on the first Read that reaches the entry for
// path-backed and special entries), and the result is cached on e.
func (s *Streamer) buildHeaderBytes(e *entry) ([]byte, error) {
	var h *Header
	var linkname string
	var xattrRecords map[string]string
	name := e.archiveName

	switch e.kind {
	case kindRegularFromPath:
		meta, err := statPath(e.srcPath, e.followSymlinks)
		if err != nil {
			return nil, err
		}
		e.payloadSize = meta.Size
		h = &Header{}
		h.SetEntryType(TypeReg)
		h.SetMetadataInMode(meta, e.headerMode)
		if e.headerMode == Complete {
			if recs, err := collectXattrRecords(e.srcPath); err == nil {
				xattrRecords = recs
			}
		}

	case kindRegularFromStream:
		if e.callerHeader != nil {
			h = e.callerHeader
		} else {
			h = &Header{Mode: 0o644, ModTime: epoch}
		}
		h.SetEntryType(TypeReg)
		h.Size = e.streamSize
		e.payloadSize = e.streamSize

	case kindSpecialFile:
		h = &Header{}
		h.SetEntryType(e.specialType)
		h.SetMetadataInMode(e.specialMeta, e.headerMode)
		h.Size = 0
		e.payloadSize = 0
		if e.specialMeta.HaveRdev {
			major, minor := decodeDevice(e.specialMeta.Rdev)
			h.SetDeviceMajor(major)
			h.SetDeviceMinor(minor)
		}

	case kindLink:
		if e.callerHeader != nil {
			h = e.callerHeader
		} else {
			h = &Header{ModTime: epoch}
		}
		if e.linkHard {
			h.SetEntryType(TypeLink)
		} else {
			h.SetEntryType(TypeSymlink)
		}
		linkname = e.linkTarget
		h.Size = 0
		e.payloadSize = 0
	}

	var out []byte

	if linkname != "" {
		data, err := path2bytes(linkname)
		if err != nil {
			return nil, err
		}
		if len(data) >= linkCap {
			out = append(out, extensionBytes(TypeGNULongLink, data)...)
		} else if err := h.SetLinkName(linkname); err != nil {
			return nil, err
		}
	}

	data, err := path2bytes(name)
	if err != nil {
		return nil, err
	}
	if len(data) >= nameCap {
		out = append(out, extensionBytes(TypeGNULongName, data)...)
		h.Name = truncateField(string(data), nameCap-1)
	} else if err := h.SetPath(name); err != nil {
		return nil, err
	}

	if len(xattrRecords) > 0 {
		xh, payload := buildXHeaderEntry(name, xattrRecords)
		out = append(out, encodeBlock(xh)...)
		out = append(out, padBytes(payload)...)
	}

	out = append(out, encodeBlock(h)...)
	return out, nil
}

func extensionBytes(typeByte EntryType, data []byte) []byte {
	payload := make([]byte, len(data)+1)
	copy(payload, data)
	h := prepareHeader(uint64(len(payload)), typeByte)
	out := encodeBlock(h)
	out = append(out, padBytes(payload)...)
	return out
}

func padBytes(payload []byte) []byte {
	padded := make([]byte, len(payload)+paddingLen(int64(len(payload))))
	copy(padded, payload)
	return padded
}

func truncateField(s string, max int) string {
	b := []byte(s)
	if len(b) <= max {
		return s
	}
	for max > 0 && !utf8.Valid(b[:max]) {
		max--
	}
	return string(b[:max])
}

func copyZeros(dst []byte, remaining int) int {
	n := len(dst)
	if remaining < n {
		n = remaining
	}
	for i := 0; i < n; i++ {
		dst[i] = 0
	}
	return n
}
