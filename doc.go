// Package tarstream implements a pull-mode tar archive producer.
//
// A Streamer is scripted with a set of entries — raw byte streams, files on
// disk, directories, special files, and links — and then driven by the
// caller's repeated calls to Read, which fill a caller-provided buffer with
// the bytes of a valid POSIX/GNU tar archive. The Streamer never owns a
// sink; io.Copy or any io.Reader consumer can drive it directly.
package tarstream
