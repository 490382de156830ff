package pipeline

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/goplus/recastbind/internal/link"
)

// Output directory layout:
//
//	outDir/
//	  .stamp.json        # input fingerprint per profile key
//	  build/             # cmake build tree
//	  native/            # cmake install prefix (include/, lib/, lib64/)
//	  shim/              # librecast_inline.a
//	  bindings/          # one binding file per module, plus inline.*
const stampFile = ".stamp.json"

// stampEntry records the inputs and outputs of one successful run.
// Directives are stored without warnings; Warnings keeps only those the
// generator derived from fingerprinted inputs.
type stampEntry struct {
	Fingerprint string           `json:"fingerprint"`
	Outputs     []string         `json:"outputs"`
	Directives  *link.Directives `json:"directives"`
	Warnings    []string         `json:"warnings,omitempty"`
	BuildTime   time.Time        `json:"build_time"`
}

// stamp maps profile keys to their last successful run.
type stamp struct {
	Entries map[string]*stampEntry `json:"entries"`
}

func (s *stamp) get(key string) (*stampEntry, bool) {
	e, ok := s.Entries[key]
	return e, ok
}

func (s *stamp) set(key string, e *stampEntry) {
	if s.Entries == nil {
		s.Entries = make(map[string]*stampEntry)
	}
	s.Entries[key] = e
}

// upToDate reports whether e was produced from fingerprint and all of its
// outputs, binding files and linked libraries alike, still exist.
func (e *stampEntry) upToDate(fingerprint string) bool {
	if e == nil || e.Directives == nil || e.Fingerprint != fingerprint {
		return false
	}
	if len(e.Directives.Missing()) > 0 {
		return false
	}
	for _, out := range e.Outputs {
		if _, err := os.Stat(out); err != nil {
			return false
		}
	}
	return true
}

func loadStamp(outDir string) (*stamp, error) {
	data, err := os.ReadFile(filepath.Join(outDir, stampFile))
	if err != nil {
		return nil, err
	}
	var s stamp
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func saveStamp(outDir string, s *stamp) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, stampFile), data, 0o644)
}

// fingerprint hashes the given strings and the path, size and modification
// time of every file below dirs.
func fingerprint(dirs []string, extra ...string) (string, error) {
	h := xxhash.New()
	for _, s := range extra {
		h.WriteString(s)
		h.WriteString("\x00")
	}
	for _, dir := range dirs {
		h.WriteString(dir)
		h.WriteString("\x00")
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			h.WriteString(filepath.ToSlash(rel))
			h.WriteString("\x00")
			h.WriteString(strconv.FormatInt(info.Size(), 10))
			h.WriteString("\x00")
			h.WriteString(strconv.FormatInt(info.ModTime().UnixNano(), 10))
			h.WriteString("\x00")
			return nil
		})
		if err != nil {
			return "", err
		}
	}
	return strconv.FormatUint(h.Sum64(), 16), nil
}
