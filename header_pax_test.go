package tarstream

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPaxRecordSelfDescribingLength(t *testing.T) {
	for _, test := range []struct {
		key, value string
	}{
		{"SCHILY.xattr.user.foo", "bar"},
		{"SCHILY.xattr.user.comment", strings.Repeat("x", 200)},
		{"a", ""},
	} {
		rec := buildPaxRecord(test.key, test.value)
		assert.True(t, strings.HasSuffix(rec, "\n"))

		spaceIdx := strings.IndexByte(rec, ' ')
		assert.Greater(t, spaceIdx, 0)

		var n int
		_, err := fmt.Sscan(rec[:spaceIdx], &n)
		assert.NoError(t, err)
		assert.Equal(t, len(rec), n)
	}
}

func TestBuildXHeaderPayloadIsDeterministic(t *testing.T) {
	records := map[string]string{
		"SCHILY.xattr.user.b": "2",
		"SCHILY.xattr.user.a": "1",
	}
	p1 := buildXHeaderPayload(records)
	p2 := buildXHeaderPayload(records)
	assert.Equal(t, p1, p2)
	assert.True(t, strings.Index(string(p1), "user.a") < strings.Index(string(p1), "user.b"))
}

func TestBuildXHeaderEntry(t *testing.T) {
	h, payload := buildXHeaderEntry("big/name.txt", map[string]string{"SCHILY.xattr.user.x": "1"})
	assert.Equal(t, TypeXHeader, h.Typeflag)
	assert.Equal(t, "PaxHeaders.0/big/name.txt", h.Name)
	assert.Equal(t, int64(len(payload)), h.Size)
}
