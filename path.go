//go:build unix && !darwin

package tarstream

// path2bytes on Unix returns the path's raw OS bytes unchanged: Unix paths
// are byte strings with no required encoding, so there is nothing to
// validate or transform.
func path2bytes(path string) ([]byte, error) {
	return []byte(path), nil
}
