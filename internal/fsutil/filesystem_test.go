package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_WriteAtomic(t *testing.T) {
	fsys := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "pk0.txt")

	if err := WriteAtomic(fsys, path, []byte("first"), 0o644); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}
	if err := WriteAtomic(fsys, path, []byte("second"), 0o644); err != nil {
		t.Fatalf("WriteAtomic overwrite failed: %v", err)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected %q, got %q", "second", data)
	}
	if fsys.Exists(path + ".tmp") {
		t.Error("temporary file left behind")
	}

	f, err := fsys.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	if got, _ := io.ReadAll(f); string(got) != "second" {
		t.Errorf("Open read %q", got)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("hello, world")
	if err := mfs.WriteFile("/test.txt", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// Mutating the source must not change the stored copy.
	testData[0] = 'H'

	data, err := mfs.ReadFile("/test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello, world" {
		t.Errorf("expected %q, got %q", "hello, world", data)
	}
}

func TestMemoryFileSystem_Open(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("dir/cat.dat", []byte("x y z\n"), 0644)

	f, err := mfs.Open("dir/./cat.dat")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "cat.dat" || info.Size() != 6 || info.IsDir() {
		t.Errorf("unexpected file info: %s %d %v", info.Name(), info.Size(), info.IsDir())
	}

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "x y z\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestMemoryFileSystem_Missing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Open("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open: expected ErrNotExist, got %v", err)
	}
	if _, err := mfs.ReadFile("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile: expected ErrNotExist, got %v", err)
	}
	if err := mfs.Rename("nope", "other"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Rename: expected ErrNotExist, got %v", err)
	}
	if err := mfs.Remove("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Remove: expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_MkdirAllAndRemove(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.MkdirAll("/a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, dir := range []string{"/a", "/a/b", "/a/b/c"} {
		if !mfs.Exists(dir) {
			t.Errorf("expected %s to exist", dir)
		}
	}
	if err := mfs.Remove("/a/b/c"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if mfs.Exists("/a/b/c") {
		t.Error("expected directory removed")
	}
}

func TestMemoryFileSystem_WriteAtomicAndFiles(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := WriteAtomic(mfs, "out/xi2_tag.txt", []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}
	_ = mfs.WriteFile("other/file", nil, 0o644)

	got := mfs.Files("out/")
	if len(got) != 1 || got[0] != "out/xi2_tag.txt" {
		t.Errorf("unexpected files %v", got)
	}
	if !mfs.Exists("out") {
		t.Error("expected parent directory to be created")
	}
}

type failingRename struct {
	*MemoryFileSystem
}

func (failingRename) Rename(string, string) error { return os.ErrPermission }

func TestWriteAtomic_RenameFailureLeavesNothing(t *testing.T) {
	mfs := NewMemoryFileSystem()
	err := WriteAtomic(failingRename{mfs}, "pk0.txt", []byte("data"), 0o644)
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if files := mfs.Files(""); len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}
