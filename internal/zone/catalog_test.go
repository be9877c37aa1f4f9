package zone

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tzif is the smallest TZif file: one UTC zone type, no transitions.
func tzif() []byte {
	var b bytes.Buffer
	b.WriteString("TZif")
	b.Write(make([]byte, 16)) // version 1, reserved
	for _, n := range []uint32{0, 0, 0, 0, 1, 4} {
		_ = binary.Write(&b, binary.BigEndian, n)
	}
	b.Write([]byte{0, 0, 0, 0, 0, 0}) // offset 0, not DST, abbreviation at 0
	b.WriteString("UTC\x00")
	return b.Bytes()
}

func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
}

func TestScan_Directory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"America/New_York":       tzif(),
		"Etc/UTC":                tzif(),
		"posix/America/New_York": tzif(),
		"zone1970.tab":           []byte("# comments"),
		"README":                 []byte("not a zone"),
	})

	assert.Equal(t, []string{"America/New_York", "Etc/UTC"}, scan(root))
}

func TestScan_ZipAndMissingSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoneinfo.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range []string{"Europe/Paris", "Australia/Lord_Howe", "right/Europe/Paris"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(tzif())
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	got := scan(filepath.Join(t.TempDir(), "absent"), path, path)
	assert.Equal(t, []string{"Australia/Lord_Howe", "Europe/Paris"}, got, "sorted, deduplicated")
}

func TestSearch_CaseInsensitive(t *testing.T) {
	names := []string{"America/New_York", "America/North_Dakota/New_Salem", "Europe/Paris", "US/Eastern"}

	tests := []struct {
		query string
		want  []string
	}{
		{"new_york", []string{"America/New_York"}},
		{"NEW_", []string{"America/New_York", "America/North_Dakota/New_Salem"}},
		{"paris", []string{"Europe/Paris"}},
		{"", names},
		{"Mars", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, search(names, tt.query))
		})
	}
}

func TestIANAName(t *testing.T) {
	assert.Equal(t, "Europe/Paris", ianaName("Europe/Paris"))
	assert.Equal(t, "Europe/Paris", ianaName(":Europe/Paris"))
	assert.Equal(t, "America/New_York", ianaName("/usr/share/zoneinfo/America/New_York"))
	assert.Empty(t, ianaName("Local"))
	assert.Empty(t, ianaName("Mars/Olympus_Mons"))
}
