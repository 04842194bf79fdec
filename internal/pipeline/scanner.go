package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AnyUserName/ditherkit/internal/encoder"
)

// Source represents a discovered image file.
type Source struct {
	// AbsPath is the absolute path to the file on disk.
	AbsPath string
	// RelPath is the path relative to the input directory.
	RelPath string
	// Key is the record key (relpath without extension).
	Key string
	// Format is the normalized source format.
	Format string
	// Size is the file size in bytes.
	Size int64
}

// imageExtensions lists recognized image file extensions.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

// IsImage reports whether path has a recognized image extension.
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScanImages walks the input directory and returns all image sources
// sorted by key. Hidden directories and any directory in skip are not
// entered.
func ScanImages(inputDir string, skip ...string) ([]Source, error) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipped[abs] = true
		}
	}

	var sources []Source
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != inputDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if abs, err := filepath.Abs(path); err == nil && skipped[abs] && path != inputDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsImage(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		ext := filepath.Ext(rel)
		sources = append(sources, Source{
			AbsPath: path,
			RelPath: filepath.ToSlash(rel),
			Key:     filepath.ToSlash(strings.TrimSuffix(rel, ext)),
			Format:  encoder.Normalize(ext),
			Size:    info.Size(),
		})
		return nil
	})
	sort.Slice(sources, func(i, j int) bool { return sources[i].Key < sources[j].Key })
	return sources, err
}
