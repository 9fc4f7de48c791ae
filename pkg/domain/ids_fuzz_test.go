package domain

import (
	"testing"
)

// FuzzParseAreaID checks parsing never panics and never yields a
// non-positive id without an error.
func FuzzParseAreaID(f *testing.F) {
	f.Add("")
	f.Add("1")
	f.Add("000")
	f.Add("-1")
	f.Add("'; DROP TABLE areas;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("9223372036854775807")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseAreaID(input)
		if err != nil {
			if id != 0 {
				t.Errorf("error with non-zero id %d", id)
			}
			return
		}
		if id <= 0 {
			t.Errorf("accepted non-positive id %d from %q", id, input)
		}
	})
}
