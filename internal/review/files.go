package review

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// LoadFiles reads paths in order. Files that are missing or unreadable are
// returned with Err set rather than failing the whole load.
func LoadFiles(paths []string) []File {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		files = append(files, loadFile(p))
	}
	return files
}

func loadFile(path string) File {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{Path: path, Err: fmt.Errorf("file not found: %s", path)}
		}
		return File{Path: path, Err: fmt.Errorf("cannot read %s: %w", path, err)}
	}
	if info.IsDir() {
		return File{Path: path, Err: fmt.Errorf("cannot read %s: is a directory", path)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{Path: path, Err: fmt.Errorf("cannot read %s: %w", path, err)}
	}
	return File{Path: path, Content: string(data)}
}
