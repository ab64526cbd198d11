package measurement

import (
	"fmt"
	"path/filepath"

	"github.com/banshee-data/twopoint/internal/fsutil"
	"github.com/banshee-data/twopoint/internal/monitoring"
)

// Writer persists measurements under a directory.
type Writer struct {
	fs  fsutil.FileSystem
	dir string
}

// NewWriter returns a Writer rooted at dir. A nil fs uses the OS filesystem.
func NewWriter(fs fsutil.FileSystem, dir string) *Writer {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &Writer{fs: fs, dir: dir}
}

// Path returns where a measurement would be saved.
func (w *Writer) Path(format SaveFormat, kind Kind, degree int, tag string) string {
	return filepath.Join(w.dir, Filename(kind, degree, tag)+format.Extension())
}

// Save writes r in the given format and returns the file path. The content
// is fully encoded before anything is written; SaveOff writes nothing and
// returns an empty path.
func (w *Writer) Save(format SaveFormat, r *Result, h *Header, tag string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case SaveOff:
		return "", nil
	case SaveText:
		data, err = FormatText(r, h)
	case SaveArchive:
		data, err = EncodeArchive(r, h)
	default:
		return "", fmt.Errorf("measurement: unsupported save format %d", format)
	}
	if err != nil {
		return "", fmt.Errorf("encoding measurement: %w", err)
	}

	path := w.Path(format, r.Kind, r.Degree, tag)
	if err := fsutil.WriteAtomic(w.fs, path, data, 0o644); err != nil {
		return "", err
	}
	monitoring.Logf("Measurements saved to %s.", path)
	return path, nil
}
