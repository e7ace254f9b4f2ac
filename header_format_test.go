package tarstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBlockSize(t *testing.T) {
	h := &Header{Name: "hello.txt", Mode: 0o644, Size: 4, ModTime: time.Unix(1000, 0).UTC(), Typeflag: TypeReg}
	b := encodeBlock(h)
	require.Len(t, b, blockSize)
}

func TestEncodeBlockFields(t *testing.T) {
	h := &Header{
		Name:     "hello.txt",
		Mode:     0o644,
		Uid:      1000,
		Gid:      1000,
		Size:     4,
		ModTime:  time.Unix(1000, 0).UTC(),
		Typeflag: TypeReg,
		Uname:    "alice",
		Gname:    "staff",
	}
	b := encodeBlock(h)

	assert.Equal(t, "hello.txt", string(trimNulls(b[offName:offName+lenName])))
	assert.Equal(t, byte(TypeReg), b[offTypeflag])
	assert.Equal(t, gnuMagic, string(b[offMagic:offMagic+lenMagic]))
	assert.Equal(t, "alice", string(trimNulls(b[offUname:offUname+lenUname])))
	assert.Equal(t, "staff", string(trimNulls(b[offGname:offGname+lenGname])))
}

func TestEncodeBlockChecksumValid(t *testing.T) {
	h := &Header{Name: "a", Mode: 0o755, Size: 0, ModTime: time.Unix(0, 0).UTC(), Typeflag: TypeDir}
	b := encodeBlock(h)

	// Recompute checksum treating the stored field as spaces, the way a
	// reader would, and compare against what was written.
	check := make([]byte, blockSize)
	copy(check, b)
	for i := 0; i < lenChksum; i++ {
		check[offChksum+i] = ' '
	}
	want := checksum(check)

	gotField := b[offChksum : offChksum+6]
	var got int64
	for _, c := range gotField {
		got = got*8 + int64(c-'0')
	}
	assert.Equal(t, want, got)
}

func TestCopyOctalRoundTrips(t *testing.T) {
	b := make([]byte, 8)
	copyOctal(b, 0o755)
	assert.Equal(t, "0000755", string(b[:7]))
	assert.Equal(t, byte(0), b[7])
}

func TestCopyOctalFallsBackToBase256(t *testing.T) {
	b := make([]byte, 12)
	huge := uint64(1) << 40 // exceeds 11 octal digits' range for this field width in spirit
	copyOctal(b, huge)
	assert.Equal(t, byte(0x80), b[0])
}

func trimNulls(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
