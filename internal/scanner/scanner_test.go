package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestIsAudioFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"song.FLAC", true},
		{"a/b/track.ogg", true},
		{"track.opus", true},
		{"cover.jpg", false},
		{"notes.txt", false},
		{"noext", false},
	}
	for _, c := range cases {
		if got := IsAudioFile(c.path); got != c.want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestScanPathsFindsAudioFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.mp3"))
	mustWrite(t, filepath.Join(dir, "sub", "b.flac"))
	mustWrite(t, filepath.Join(dir, "sub", "cover.png"))
	mustWrite(t, filepath.Join(dir, ".hidden", "c.mp3"))

	files, err := ScanPaths(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("ScanPaths: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("found %d files, want 2: %v", len(files), files)
	}
	for _, f := range files {
		if !IsAudioFile(f) {
			t.Errorf("non-audio file in results: %s", f)
		}
		if filepath.Base(filepath.Dir(f)) == ".hidden" {
			t.Errorf("hidden directory should be skipped: %s", f)
		}
	}
}

func TestScanPathsIgnoresMissingDirs(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.mp3"))

	files, err := ScanPaths(context.Background(), []string{"/no/such/dir", dir})
	if err != nil {
		t.Fatalf("ScanPaths: %v", err)
	}
	if len(files) != 1 {
		t.Errorf("found %d files, want 1", len(files))
	}
}

func TestScanPathsHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.mp3"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ScanPaths(ctx, []string{dir}); err == nil {
		t.Error("expected an error once the context is cancelled")
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}
