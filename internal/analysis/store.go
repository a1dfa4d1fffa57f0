package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/TofaJede/songscope/internal/types"
)

// StoreVersion is bumped whenever the pipeline changes in a way that
// invalidates cached results.
const StoreVersion = 1

// ResultStore caches analysis results on disk so re-running over a
// library only analyzes new or changed files.
type ResultStore struct {
	mu       sync.RWMutex
	dataPath string

	results map[string]*StoredResult
}

// StoredResult is one cached analysis with the metadata needed to decide
// whether it is still valid.
type StoredResult struct {
	Result     *types.AnalysisResult `json:"result"`
	Version    int                   `json:"version"`
	AnalyzedAt int64                 `json:"analyzedAt"`
	FileHash   string                `json:"fileHash"`
}

// NewResultStore creates a store backed by a JSON file under dataDir and
// loads any existing data.
func NewResultStore(dataDir string) (*ResultStore, error) {
	store := &ResultStore{
		dataPath: filepath.Join(dataDir, "analysis.json"),
		results:  make(map[string]*StoredResult),
	}

	if err := store.load(); err != nil {
		// A missing file just means a fresh store.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load store: %w", err)
		}
	}

	return store, nil
}

func (s *ResultStore) load() error {
	data, err := os.ReadFile(s.dataPath)
	if err != nil {
		return err
	}

	var stored struct {
		Results map[string]*StoredResult `json:"results"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	s.results = stored.Results
	if s.results == nil {
		s.results = make(map[string]*StoredResult)
	}
	return nil
}

// Save writes the store to disk.
func (s *ResultStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := struct {
		Results map[string]*StoredResult `json:"results"`
	}{Results: s.results}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.dataPath), 0700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(s.dataPath, data, 0600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Put stores the result for a track.
func (s *ResultStore) Put(trackPath string, result *types.AnalysisResult, fileHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[trackPath] = &StoredResult{
		Result:     result,
		Version:    StoreVersion,
		AnalyzedAt: time.Now().Unix(),
		FileHash:   fileHash,
	}
}

// Get retrieves the cached entry for a track.
func (s *ResultStore) Get(trackPath string) (*StoredResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[trackPath]
	return r, ok
}

// Has reports whether a current cached result exists for the track: same
// file hash and a store version at least as new as the running pipeline.
func (s *ResultStore) Has(trackPath, fileHash string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[trackPath]
	return ok && r.Version >= StoreVersion && r.FileHash == fileHash
}

// Count returns the number of cached tracks.
func (s *ResultStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// ClearAll drops every cached result.
func (s *ResultStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = make(map[string]*StoredResult)
}
