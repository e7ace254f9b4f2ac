//go:build darwin

package tarstream

import "golang.org/x/text/unicode/norm"

// path2bytes on darwin NFC-normalizes the path before encoding, the way
// backend/local/local.go normalizes filenames read back from HFS+/APFS
// (which store decomposed, NFD, form on disk).
func path2bytes(path string) ([]byte, error) {
	return []byte(norm.NFC.String(path)), nil
}
