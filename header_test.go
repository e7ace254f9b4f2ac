package tarstream

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ pflag.Value = (*HeaderMode)(nil)

func TestHeaderModeSetString(t *testing.T) {
	for _, test := range []struct {
		in      string
		want    HeaderMode
		wantErr bool
	}{
		{"complete", Complete, false},
		{"deterministic", Deterministic, false},
		{"minimal", Minimal, false},
		{"bogus", HeaderMode(0), true},
	} {
		var m HeaderMode
		err := m.Set(test.in)
		assert.Equal(t, test.wantErr, err != nil, err)
		if !test.wantErr {
			assert.Equal(t, test.want, m)
			assert.Equal(t, test.in, m.String())
		}
	}
}

func TestSetPathWithinCapacity(t *testing.T) {
	h := &Header{}
	require.NoError(t, h.SetPath(strings.Repeat("a", nameCap-1)))
	assert.Len(t, h.Name, nameCap-1)
}

func TestSetPathAtCapacityFails(t *testing.T) {
	h := &Header{}
	err := h.SetPath(strings.Repeat("a", nameCap))
	assert.Error(t, err)
}

func TestSetLinkNameAtCapacityFails(t *testing.T) {
	h := &Header{}
	err := h.SetLinkName(strings.Repeat("a", linkCap))
	assert.Error(t, err)
}

func TestSetMetadataInModeDeterministicZeroesOwnership(t *testing.T) {
	meta := FileMeta{Size: 10, Mode: 0o7755, Uid: 1000, Gid: 1000}
	h := &Header{}
	h.SetMetadataInMode(meta, Deterministic)
	assert.Equal(t, 0, h.Uid)
	assert.Equal(t, 0, h.Gid)
	assert.Equal(t, "", h.Uname)
	assert.Equal(t, int64(0o7755)&0o7777, h.Mode)
}

func TestSetMetadataInModeCompleteKeepsOwnership(t *testing.T) {
	meta := FileMeta{Size: 10, Mode: 0o644, Uid: 1000, Gid: 1000}
	h := &Header{}
	h.SetMetadataInMode(meta, Complete)
	assert.Equal(t, 1000, h.Uid)
	assert.Equal(t, 1000, h.Gid)
}
