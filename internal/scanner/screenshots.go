package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ScreenshotDir stores screenshots as files under one directory, created
// on first use.
type ScreenshotDir struct {
	dir  string
	once sync.Once
	err  error
}

// NewScreenshotDir returns a writer for dir.
func NewScreenshotDir(dir string) *ScreenshotDir {
	return &ScreenshotDir{dir: dir}
}

// Save writes png as name and returns the file path.
func (s *ScreenshotDir) Save(name string, png []byte) (string, error) {
	s.once.Do(func() {
		s.err = os.MkdirAll(s.dir, 0755)
	})
	if s.err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", s.err)
	}

	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}
