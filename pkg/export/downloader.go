package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirDownloader - stores downloads as files inside a directory
type DirDownloader struct {
	Dir string
}

// Download - writes the file, creating the directory when needed
func (d DirDownloader) Download(_ context.Context, name, _ string, data []byte) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(d.Dir, name), data, 0o644)
}
