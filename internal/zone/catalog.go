package zone

import (
	"archive/zip"
	"bytes"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/tartampluch/go-dstclock/internal/config"
)

// catalogue is scanned once per process.
var catalogue = sync.OnceValue(func() []string {
	return scan(sources()...)
})

// sources lists the zoneinfo locations in search order.
func sources() []string {
	srcs := []string{config.ZoneinfoShareDir, config.ZoneinfoLibDir, config.ZoneinfoLocaleDir}
	if env := os.Getenv(config.EnvZoneinfo); env != "" {
		srcs = append([]string{env}, srcs...)
	}
	return srcs
}

// Names lists the IANA identifiers installed on the host, sorted. A link is
// listed under every name it is installed as. The embedded database cannot
// be enumerated, so a host without zoneinfo yields an empty list.
func Names() []string {
	return slices.Clone(catalogue())
}

// Search returns the identifiers containing query, ignoring case. An empty
// query matches everything.
func Search(query string) []string {
	return search(catalogue(), query)
}

func search(names []string, query string) []string {
	q := strings.ToLower(query)
	var out []string
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), q) {
			out = append(out, n)
		}
	}
	return out
}

// System returns the IANA identifier of the process zone, or "" when the host
// does not name one. $TZ wins over /etc/localtime.
func System() string {
	if tz, ok := os.LookupEnv(config.EnvTZ); ok {
		if tz == "" {
			return time.UTC.String()
		}
		return ianaName(tz)
	}

	target, err := filepath.EvalSymlinks(config.ZoneinfoLocaltime)
	if err != nil {
		return ""
	}
	return ianaName(target)
}

// ianaName extracts a loadable identifier from a $TZ value or a zoneinfo path.
func ianaName(s string) string {
	s = strings.TrimPrefix(s, ":")
	if _, rest, found := strings.Cut(s, config.ZoneinfoMarker); found {
		s = rest
	}
	if s == "" || s == time.Local.String() {
		return ""
	}
	if _, err := time.LoadLocation(s); err != nil {
		return ""
	}
	return s
}

// scan collects the zone names found in each source, a directory or a zip.
// Unavailable sources are skipped.
func scan(srcs ...string) []string {
	seen := make(map[string]struct{})
	for _, src := range srcs {
		var err error
		if strings.HasSuffix(src, config.ZoneinfoZipExt) {
			err = scanZip(src, seen)
		} else {
			err = scanFS(os.DirFS(src), seen)
		}
		if err != nil {
			slog.Debug(config.MsgZoneinfoSkip,
				config.LogKeyComponent, config.CompZone,
				config.LogKeyPath, src,
				config.LogKeyError, err,
			)
		}
	}

	names := slices.Sorted(maps.Keys(seen))
	slog.Debug(config.MsgZoneinfoLoaded,
		config.LogKeyComponent, config.CompZone,
		config.LogKeyCount, len(names),
	)
	return names
}

func scanZip(path string, seen map[string]struct{}) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	return scanFS(&r.Reader, seen)
}

// scanFS walks a zoneinfo tree. Zone names are capitalized at every level,
// which leaves out posix/, right/ and the .tab files; whatever remains must
// parse as TZif data.
func scanFS(fsys fs.FS, seen map[string]struct{}) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == "." {
				return err
			}
			return nil
		}
		if path == "." {
			return nil
		}

		if !capitalized(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil || !bytes.HasPrefix(data, []byte(config.ZoneinfoMagic)) {
			return nil
		}
		if _, err := time.LoadLocationFromTZData(path, data); err == nil {
			seen[path] = struct{}{}
		}
		return nil
	})
}

func capitalized(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
