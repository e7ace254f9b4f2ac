package tarstream

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainAll(t *testing.T, r io.Reader, chunk int) []byte {
	t.Helper()
	var out bytes.Buffer
	buf := make([]byte, chunk)
	for {
		n, err := r.Read(buf)
		out.Write(buf[:n])
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if n == 0 {
			t.Fatal("Read returned 0, nil with no progress")
		}
	}
	return out.Bytes()
}

func TestEmptyArchiveIsJustTheTrailer(t *testing.T) {
	s := NewStreamer()
	out := drainAll(t, s, 4096)
	assert.Equal(t, 1024, len(out))
	assert.True(t, bytes.Equal(out, make([]byte, 1024)))
}

func TestOneInlineEntryByteIdentical(t *testing.T) {
	s := NewStreamer()
	require.NoError(t, s.AppendDataBytes("hi.txt", []byte("abcd")))

	big := drainAll(t, s, 1<<20)

	s2 := NewStreamer()
	require.NoError(t, s2.AppendDataBytes("hi.txt", []byte("abcd")))
	small := drainAll(t, s2, 1)

	assert.Equal(t, big, small)
	// one header block + one padded payload block + 1024 trailer
	assert.Equal(t, 512+512+1024, len(big))
}

func TestLongNameTriggersExtension(t *testing.T) {
	longName := strings.Repeat("a", 150)
	s := NewStreamer()
	require.NoError(t, s.AppendDataBytes(longName, []byte("x")))

	out := drainAll(t, s, 4096)
	// extension header(512) + padded name payload(512) + main header(512) + payload block(512) + trailer(1024)
	assert.Equal(t, int(TypeGNULongName), int(out[156]))
}

func TestShortNameNoExtension(t *testing.T) {
	s := NewStreamer()
	require.NoError(t, s.AppendDataBytes("short.txt", []byte("x")))
	out := drainAll(t, s, 4096)
	assert.Equal(t, byte(TypeReg), out[156])
}

func TestPayloadExactly512Bytes(t *testing.T) {
	data := bytes.Repeat([]byte{'z'}, 512)
	s := NewStreamer()
	require.NoError(t, s.AppendDataBytes("full.bin", data))
	out := drainAll(t, s, 4096)
	// header(512) + payload(512, no padding needed) + trailer(1024)
	assert.Equal(t, 512+512+1024, len(out))
}

func TestTinyBufferMatchesLargeBuffer(t *testing.T) {
	mk := func() *Streamer {
		s := NewStreamer()
		_ = s.AppendDataBytes("a.txt", []byte("hello world"))
		_ = s.AppendDataBytes("b.txt", bytes.Repeat([]byte{'q'}, 1000))
		return s
	}
	large := drainAll(t, mk(), 1<<20)
	small := drainAll(t, mk(), 3)
	assert.Equal(t, large, small)
}

func TestAppendFileFromDiskPayload(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/file.txt"
	require.NoError(t, ioutil.WriteFile(path, []byte("disk content"), 0o644))

	s := NewStreamer()
	require.NoError(t, s.AppendFile(path))
	out := drainAll(t, s, 4096)

	payload := out[512 : 512+len("disk content")]
	assert.Equal(t, "disk content", string(payload))
}

func TestAppendDirAllRecursesAndSkipsRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(dir+"/top.txt", []byte("1"), 0o644))
	require.NoError(t, os.MkdirAll(dir+"/sub", 0o755))
	require.NoError(t, ioutil.WriteFile(dir+"/sub/nested.txt", []byte("22"), 0o644))

	s := NewStreamer()
	require.NoError(t, s.AppendDirAll(dir))
	out := drainAll(t, s, 1<<20)

	assert.False(t, bytes.Contains(out, []byte(dir+"\x00")), "root itself must not be queued as an entry")
	assert.True(t, bytes.Contains(out, []byte("top.txt")))
	assert.True(t, bytes.Contains(out, []byte("sub")))
	assert.True(t, bytes.Contains(out, []byte("nested.txt")))
}

func TestAppendDirAllWithNameRewritesArchiveRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(dir+"/top.txt", []byte("1"), 0o644))

	s := NewStreamer()
	require.NoError(t, s.AppendDirAllWithName("archive/prefix", dir))
	out := drainAll(t, s, 1<<20)

	assert.False(t, bytes.Contains(out, []byte(dir)), "src path must not leak into archive names")
	assert.True(t, bytes.Contains(out, []byte("archive/prefix/top.txt")))
}
