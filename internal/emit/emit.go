// Package emit persists rendered artifacts.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Target is a destination artifacts can be written to.
type Target interface {
	// Open prepares the destination. Nothing is created before Open.
	Open() (Writer, error)
}

// Writer stores artifacts under relative, slash-separated paths.
// Implementations must allow concurrent Writes to distinct paths.
type Writer interface {
	Write(path string, data []byte) error
	Close() error
}

// WriteError reports a failed write of one artifact.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Dir writes artifacts below a root directory.
type Dir struct {
	Root string
}

// Open creates the root directory and holds it open until Close.
func (d Dir) Open() (Writer, error) {
	if err := os.MkdirAll(d.Root, 0o755); err != nil {
		return nil, &WriteError{Path: d.Root, Op: "mkdir", Err: err}
	}
	root, err := os.Open(d.Root)
	if err != nil {
		return nil, &WriteError{Path: d.Root, Op: "open", Err: err}
	}
	return &dirWriter{root: d.Root, dir: root}, nil
}

type dirWriter struct {
	root string
	dir  *os.File
}

func (w *dirWriter) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes output root")
	}
	return filepath.Join(w.root, clean), nil
}

// Write replaces path atomically: readers see the old or the new content,
// never a partial file.
func (w *dirWriter) Write(path string, data []byte) error {
	dest, err := w.resolve(path)
	if err != nil {
		return &WriteError{Path: path, Op: "resolve", Err: err}
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: path, Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return &WriteError{Path: path, Op: "create", Err: err}
	}
	tmpName := tmp.Name()
	fail := func(op string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Op: op, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail("chmod", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Op: "close", Err: err}
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Op: "rename", Err: err}
	}
	return nil
}

// Close flushes the root directory entry and releases it.
func (w *dirWriter) Close() error {
	syncErr := w.dir.Sync()
	if err := w.dir.Close(); err != nil {
		return &WriteError{Path: w.root, Op: "close", Err: err}
	}
	if syncErr != nil {
		return &WriteError{Path: w.root, Op: "sync", Err: syncErr}
	}
	return nil
}

// Memory collects artifacts in memory. The zero value is ready to use.
type Memory struct {
	mu     sync.Mutex
	files  map[string][]byte
	opened bool
	closed bool
}

// NewMemory returns an empty in-memory target.
func NewMemory() *Memory {
	return &Memory{}
}

// Open implements Target.
func (m *Memory) Open() (Writer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.opened = true
	m.closed = false
	return m, nil
}

// Write implements Writer.
func (m *Memory) Write(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.opened || m.closed {
		return &WriteError{Path: path, Op: "write", Err: fmt.Errorf("target not open")}
	}
	m.files[path] = append([]byte(nil), data...)
	return nil
}

// Close implements Writer.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Opened reports whether Open was ever called.
func (m *Memory) Opened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// Paths returns the written paths, sorted.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// File returns the content written to path.
func (m *Memory) File(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	return data, ok
}

// Files returns a copy of everything written.
func (m *Memory) Files() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.files))
	for p, data := range m.files {
		out[p] = data
	}
	return out
}
