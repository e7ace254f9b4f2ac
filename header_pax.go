package tarstream

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/xattr"
)

// paxXattrPrefix is the conventional PAX keyword prefix GNU/libarchive use
// for extended attributes, as read by `pkg/xattr`-based tools.
const paxXattrPrefix = "SCHILY.xattr."

// buildPaxRecord renders one PAX record: "<len> <key>=<value>\n", where len
// includes itself. The length is found by search because it appears inside
// the string it measures (the classic PAX self-describing-length trick).
func buildPaxRecord(key, value string) string {
	// initial guess: length of " key=value\n" plus the digit count of that length
	base := len(key) + len(value) + 3 // space + '=' + '\n'
	n := base + len(fmt.Sprintf("%d", base))
	for {
		candidate := fmt.Sprintf("%d %s=%s\n", n, key, value)
		if len(candidate) == n {
			return candidate
		}
		n = len(candidate)
	}
}

// buildXHeaderPayload concatenates PAX records for records, in a stable
// (sorted by key) order so output is deterministic across runs.
func buildXHeaderPayload(records map[string]string) []byte {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []byte
	for _, k := range keys {
		out = append(out, buildPaxRecord(k, records[k])...)
	}
	return out
}

// buildXHeaderEntry builds the 'x' extension header for forName's PAX
// records, GNU/libarchive style: a header whose Name mirrors forName under a
// PaxHeaders.0/ prefix and whose payload is the record list. The PaxHeaders.0/
// name itself is not run through the GNU long-name extension machinery; a
// forName long enough to overflow the classic name field once prefixed
// produces a silently truncated (but still well-formed) extension header
// name, which is cosmetic only — readers locate the xattr record by its
// position immediately before the real entry, not by this name.
func buildXHeaderEntry(forName string, records map[string]string) (*Header, []byte) {
	payload := buildXHeaderPayload(records)
	h := &Header{
		Name:     "PaxHeaders.0/" + forName,
		Size:     int64(len(payload)),
		Mode:     0,
		Typeflag: TypeXHeader,
		ModTime:  time.Unix(0, 0).UTC(),
	}
	return h, payload
}

// collectXattrRecords reads the user extended attributes of path and renders
// them as SCHILY.xattr.* PAX records. It is only ever called under
// HeaderMode.Complete; a filesystem or platform that has no xattr support
// simply yields no records.
func collectXattrRecords(path string) (map[string]string, error) {
	names, err := xattr.List(path)
	if err != nil {
		if isUnsupportedXattr(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	records := make(map[string]string, len(names))
	for _, name := range names {
		val, err := xattr.Get(path, name)
		if err != nil {
			continue
		}
		records[paxXattrPrefix+name] = string(val)
	}
	return records, nil
}
