// Package fsutil provides the file access used to read profile files, with
// an OS implementation and an in-memory one for tests.
package fsutil

import (
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"testing/fstest"

	"github.com/klauspost/compress/gzip"
)

// FileSystem is the read side of a filesystem. Its method set matches
// fs.StatFS, so fs.ReadFile and fs.Stat accept any FileSystem, but names are
// host paths and may be absolute or climb with "..".
type FileSystem interface {
	Open(name string) (fs.File, error)
	Stat(name string) (fs.FileInfo, error)
}

// OSFileSystem reads from the host filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Open(name string) (fs.File, error)     { return os.Open(name) }
func (OSFileSystem) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

// Exists reports whether name can be stat'ed in fsys.
func Exists(fsys FileSystem, name string) bool {
	_, err := fsys.Stat(name)
	return err == nil
}

// FirstExisting returns the first candidate path that exists in fsys.
func FirstExisting(fsys FileSystem, candidates ...string) (string, bool) {
	for _, c := range candidates {
		if Exists(fsys, c) {
			return c, true
		}
	}
	return "", false
}

// OpenReader opens name for reading and transparently decompresses it when
// the name ends in .gz. Closing the reader closes the underlying file.
func OpenReader(fsys FileSystem, name string) (io.ReadCloser, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(name, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzipFile{Reader: zr, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file fs.File
}

func (g *gzipFile) Close() error {
	zerr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return zerr
}

// MemoryWorkDir is the working directory of a new MemoryFileSystem.
// Relative names resolve against it, so "../x" names a file one level up.
const MemoryWorkDir = "/work"

// MemoryFileSystem is an in-memory FileSystem backed by fstest.MapFS. It is
// safe for concurrent use.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files fstest.MapFS
	wd    string
}

// NewMemoryFileSystem returns an empty filesystem rooted at "/" with its
// working directory at MemoryWorkDir.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{files: fstest.MapFS{}, wd: MemoryWorkDir}
}

// key maps a host-style name onto a MapFS key.
func (m *MemoryFileSystem) key(name string) string {
	if !path.IsAbs(name) {
		name = path.Join(m.wd, name)
	}
	name = path.Clean(name)
	if name == "/" {
		return "."
	}
	return strings.TrimPrefix(name, "/")
}

// WriteFile stores a copy of data under name, replacing any earlier file.
func (m *MemoryFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[m.key(name)] = &fstest.MapFile{Data: append([]byte(nil), data...), Mode: perm}
	return nil
}

// Open opens name for reading. The returned file reads a snapshot; later
// writes to the same name do not affect it.
func (m *MemoryFileSystem) Open(name string) (fs.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files.Open(m.key(name))
}

func (m *MemoryFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files.Stat(m.key(name))
}
