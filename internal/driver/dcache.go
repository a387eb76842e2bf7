package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"kplc/internal/diag"
	"kplc/internal/project"
	"kplc/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores replay outcomes on disk, keyed by a digest of the script,
// its source file and the check options. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached outcome of one script.
type DiskPayload struct {
	Schema      uint16
	Path        string
	Diagnostics []CachedDiagnostic
	Mismatches  int
	Unexpected  int
	Halted      bool
	Steps       int
}

// CachedDiagnostic is a diagnostic with its file reference flattened to a path.
type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Path     string
	Start    uint32
	End      uint32
	Line     uint32
	Col      uint32
	Message  string
	Notes    []CachedNote
}

type CachedNote struct {
	Path  string
	Start uint32
	End   uint32
	Line  uint32
	Col   uint32
	Msg   string
}

// OpenDiskCache initializes a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt uses dir as the cache root.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "results", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and atomically writes a payload.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Get reads a payload. A payload written by another schema version is a miss.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("corrupt cache entry: %w", err)
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

func toPayload(fr *FileResult) *DiskPayload {
	payload := &DiskPayload{
		Schema:     diskCacheSchemaVersion,
		Path:       fr.Path,
		Mismatches: fr.Mismatches,
		Unexpected: fr.Unexpected,
		Halted:     fr.Halted,
		Steps:      fr.Steps,
	}
	payload.Diagnostics = make([]CachedDiagnostic, 0, len(fr.Diagnostics))
	for _, d := range fr.Diagnostics {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Path:     pathOf(fr.FileSet, d.Primary.File),
			Start:    d.Primary.Start,
			End:      d.Primary.End,
			Line:     d.Pos.Line,
			Col:      d.Pos.Col,
			Message:  d.Message,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{
				Path:  pathOf(fr.FileSet, n.Span.File),
				Start: n.Span.Start,
				End:   n.Span.End,
				Line:  n.Pos.Line,
				Col:   n.Pos.Col,
				Msg:   n.Msg,
			})
		}
		payload.Diagnostics = append(payload.Diagnostics, cd)
	}
	return payload
}

// fromPayload restores diagnostics against the files already loaded in fs.
func fromPayload(payload *DiskPayload, fs *source.FileSet, fr *FileResult) {
	fr.Mismatches = payload.Mismatches
	fr.Unexpected = payload.Unexpected
	fr.Halted = payload.Halted
	fr.Steps = payload.Steps
	fr.Diagnostics = make([]diag.Diagnostic, 0, len(payload.Diagnostics))
	for _, cd := range payload.Diagnostics {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Message:  cd.Message,
			Primary:  source.Span{File: fileFor(fs, cd.Path), Start: cd.Start, End: cd.End},
			Pos:      source.LineCol{Line: cd.Line, Col: cd.Col},
		}
		for _, n := range cd.Notes {
			d = d.WithNote(
				source.Span{File: fileFor(fs, n.Path), Start: n.Start, End: n.End},
				source.LineCol{Line: n.Line, Col: n.Col},
				n.Msg,
			)
		}
		fr.Diagnostics = append(fr.Diagnostics, d)
	}
}

func pathOf(fs *source.FileSet, id source.FileID) string {
	if fs == nil {
		return ""
	}
	if f := fs.Get(id); f != nil {
		return f.Path
	}
	return ""
}

func fileFor(fs *source.FileSet, path string) source.FileID {
	if path == "" {
		return source.NoFileID
	}
	if id, ok := fs.GetLatest(path); ok {
		return id
	}
	return source.NoFileID
}
