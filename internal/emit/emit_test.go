package emit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func openDir(t *testing.T, root string) Writer {
	t.Helper()
	w, err := Dir{Root: root}.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestDirCreatesRootOnOpen(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out", "fleet")
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatalf("root exists before Open")
	}
	openDir(t, root)
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		t.Errorf("root not created: %v", err)
	}
}

func TestDirWriteAndOverwrite(t *testing.T) {
	root := t.TempDir()
	w := openDir(t, root)

	path := "kubernetes/deployments/nr_crc.yaml"
	for _, content := range []string{"first\n", "second\n"} {
		if err := w.Write(path, []byte(content)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		got, err := os.ReadFile(filepath.Join(root, path))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != content {
			t.Errorf("content = %q, want %q", got, content)
		}
	}

	fi, err := os.Stat(filepath.Join(root, path))
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0o644 {
		t.Errorf("mode = %v, want 0644", perm)
	}
	assertNoTempFiles(t, root)
}

func TestDirWriteFailureLeavesNoTempFile(t *testing.T) {
	root := t.TempDir()
	w := openDir(t, root)

	// A file where a directory is needed.
	if err := os.WriteFile(filepath.Join(root, "containers"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := w.Write("containers/services/nr_crc/app.py", []byte("print()"))
	var wErr *WriteError
	if !errors.As(err, &wErr) {
		t.Fatalf("Write error = %v, want WriteError", err)
	}
	if wErr.Path != "containers/services/nr_crc/app.py" {
		t.Errorf("WriteError.Path = %q", wErr.Path)
	}
	assertNoTempFiles(t, root)
}

func TestDirRejectsEscapingPaths(t *testing.T) {
	w := openDir(t, t.TempDir())
	for _, p := range []string{"../x.yaml", "/etc/passwd", ".", "a/../../b"} {
		if err := w.Write(p, []byte("x")); err == nil {
			t.Errorf("Write(%q) should fail", p)
		}
	}
}

func TestDirConcurrentWrites(t *testing.T) {
	root := t.TempDir()
	w := openDir(t, root)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- w.Write(fmt.Sprintf("kubernetes/services/svc%d.yaml", i), []byte("x"))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Write: %v", err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(root, "kubernetes", "services"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 20 {
		t.Errorf("got %d files, want 20", len(entries))
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	if err := m.Write("a", nil); err == nil {
		t.Error("Write before Open should fail")
	}
	if m.Opened() {
		t.Error("Opened() before Open")
	}
	w, err := m.Open()
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("b")
	if err := w.Write("z.yaml", data); err != nil {
		t.Fatal(err)
	}
	data[0] = 'x'
	if err := w.Write("a.yaml", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(m.Paths(), ","); got != "a.yaml,z.yaml" {
		t.Errorf("Paths() = %q", got)
	}
	if got, _ := m.File("z.yaml"); string(got) != "b" {
		t.Errorf("File(z.yaml) = %q, want copy of written data", got)
	}
	if err := w.Write("late", nil); err == nil {
		t.Error("Write after Close should fail")
	}
}

func assertNoTempFiles(t *testing.T, root string) {
	t.Helper()
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && strings.HasSuffix(d.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", path)
		}
		return nil
	})
}
