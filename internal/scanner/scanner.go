// Package scanner walks library directories and finds audio files to
// analyze.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// SupportedExtensions are the audio file extensions we recognize
var SupportedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".wav":  true,
	".wma":  true,
	".alac": true,
	".opus": true,
}

// IsAudioFile reports whether the path has a recognized audio extension.
func IsAudioFile(path string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScanPaths walks the given directories and returns every audio file
// found, in walk order. Hidden directories are skipped; unreadable
// entries are silently ignored.
func ScanPaths(ctx context.Context, paths []string) ([]string, error) {
	var files []string

	for _, libraryPath := range paths {
		info, err := os.Stat(libraryPath)
		if err != nil || !info.IsDir() {
			continue
		}

		err = filepath.WalkDir(libraryPath, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil // Skip entries we can't access
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != libraryPath {
					return filepath.SkipDir
				}
				return nil
			}

			if IsAudioFile(path) {
				files = append(files, path)
			}
			return nil
		})

		if err != nil {
			return files, err
		}
	}

	return files, nil
}
