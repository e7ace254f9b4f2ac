package tarstream

import "fmt"

// PathEncodingError reports that a path could not be represented as bytes on
// the current platform (a non-Unicode path on a non-Unix host).
type PathEncodingError struct {
	Path string
	Err  error
}

func (e *PathEncodingError) Error() string {
	return fmt.Sprintf("path %s was not valid Unicode", e.Path)
}

func (e *PathEncodingError) Unwrap() error { return e.Err }

// HeaderFieldTooShortError reports a header field set failure that was not
// due to the value being too long for the field (so the GNU long-name/long-link
// extension protocol does not apply, and the error propagates unchanged).
type HeaderFieldTooShortError struct {
	Field string
	Err   error
}

func (e *HeaderFieldTooShortError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

func (e *HeaderFieldTooShortError) Unwrap() error { return e.Err }

// FilesystemError wraps a stat/open/read/readlink failure with the path that
// caused it.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s when %s %s", e.Err, e.Op, e.Path)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

func wrapFSError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &FilesystemError{Op: op, Path: path, Err: err}
}

// UnsupportedFileTypeError reports a Unix file that has no tar representation:
// sockets, or a type this package does not recognize.
type UnsupportedFileTypeError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// PayloadReadError wraps an error returned by a caller-supplied payload
// stream (an AppendData/AppendWithHeader/AppendOpenFile source), as distinct
// from a FilesystemError.
type PayloadReadError struct {
	Err error
}

func (e *PayloadReadError) Error() string {
	return fmt.Sprintf("reading entry payload: %s", e.Err)
}

func (e *PayloadReadError) Unwrap() error { return e.Err }
