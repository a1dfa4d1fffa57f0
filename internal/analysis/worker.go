package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/TofaJede/songscope/internal/types"
)

// BatchStatus represents the current state of a batch analysis run.
type BatchStatus struct {
	Status      string `json:"status"` // "idle", "running", "complete"
	TotalTracks int    `json:"totalTracks"`
	Analyzed    int    `json:"analyzed"`
	Cached      int    `json:"cached"`
	Failed      int    `json:"failed"`
	Message     string `json:"message"`
	StartedAt   int64  `json:"startedAt,omitempty"`
}

// TrackResult is delivered to the completion callback once per file, the
// single message carrying either the result record or the failure.
type TrackResult struct {
	Path     string
	Result   *types.AnalysisResult
	FileHash string
	Cached   bool
	Err      error
}

// DecodeFunc produces a mono sample buffer for a file. The decoder is an
// external collaborator; the worker only requires that it honors the
// input contract of Analyzer.Analyze.
type DecodeFunc func(ctx context.Context, path string, sampleRate int) ([]float64, error)

// Worker fans batch analysis out over a bounded pool of goroutines. Each
// goroutine owns its own Analyzer so no two analyses ever interleave on
// shared state, and each file is a single cancellable unit of work: the
// pipeline is never stopped mid-run, its result is simply discarded.
type Worker struct {
	mu sync.Mutex

	maxWorkers int
	sampleRate int

	decode   DecodeFunc
	cfg      Config
	store    *ResultStore // optional
	onResult func(TrackResult)
	log      *zap.Logger

	status    BatchStatus
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	done      chan struct{}

	analyzedCount int64
	cachedCount   int64
	failedCount   int64
}

// WorkerConfig configures a batch analysis worker.
type WorkerConfig struct {
	MaxWorkers int        // concurrent analyses (0 = NumCPU - 1)
	SampleRate int        // decode target rate (0 = 22050)
	Decode     DecodeFunc // required
	Analysis   Config     // pipeline parameters
	Store      *ResultStore
	OnResult   func(TrackResult)
	Logger     *zap.Logger
}

// NewWorker creates a batch analysis worker.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Decode == nil {
		return nil, fmt.Errorf("decode function is required")
	}

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() - 1
		if maxWorkers < 1 {
			maxWorkers = 1
		}
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 22050
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Worker{
		maxWorkers: maxWorkers,
		sampleRate: sampleRate,
		decode:     cfg.Decode,
		cfg:        cfg.Analysis,
		store:      cfg.Store,
		onResult:   cfg.OnResult,
		log:        logger,
		status:     BatchStatus{Status: "idle"},
	}, nil
}

// Start begins analyzing the given files in the background. It returns an
// error if a batch is already running.
func (w *Worker) Start(ctx context.Context, paths []string) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("batch analysis already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.done = make(chan struct{})
	atomic.StoreInt64(&w.analyzedCount, 0)
	atomic.StoreInt64(&w.cachedCount, 0)
	atomic.StoreInt64(&w.failedCount, 0)

	w.status = BatchStatus{
		Status:      "running",
		TotalTracks: len(paths),
		StartedAt:   time.Now().Unix(),
	}
	w.mu.Unlock()

	go w.run(paths)
	return nil
}

// Wait blocks until the current batch finishes. Safe to call when no
// batch is running.
func (w *Worker) Wait() {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Stop cancels the current batch. In-flight files finish decoding or are
// abandoned by their context; their results are discarded.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.status.Status = "idle"
	w.status.Message = "Analysis stopped"
}

// GetStatus returns the current batch status.
func (w *Worker) GetStatus() BatchStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := w.status
	status.Analyzed = int(atomic.LoadInt64(&w.analyzedCount))
	status.Cached = int(atomic.LoadInt64(&w.cachedCount))
	status.Failed = int(atomic.LoadInt64(&w.failedCount))
	return status
}

// IsRunning reports whether a batch is in progress.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *Worker) run(paths []string) {
	defer func() {
		w.mu.Lock()
		w.isRunning = false
		if w.status.Status == "running" {
			w.status.Status = "complete"
			w.status.Message = fmt.Sprintf("analysis complete: %d analyzed, %d cached, %d failed",
				atomic.LoadInt64(&w.analyzedCount), atomic.LoadInt64(&w.cachedCount), atomic.LoadInt64(&w.failedCount))
		}
		done := w.done
		w.mu.Unlock()
		w.log.Info("batch finished",
			zap.Int64("analyzed", atomic.LoadInt64(&w.analyzedCount)),
			zap.Int64("cached", atomic.LoadInt64(&w.cachedCount)),
			zap.Int64("failed", atomic.LoadInt64(&w.failedCount)))
		close(done)
	}()

	w.log.Info("batch starting", zap.Int("tracks", len(paths)), zap.Int("workers", w.maxWorkers))

	jobs := make(chan string, len(paths))
	for _, p := range paths {
		jobs <- p
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < w.maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// One Analyzer per goroutine; Analyzer rejects interleaved use.
			analyzer := NewAnalyzer(w.cfg)
			for path := range jobs {
				select {
				case <-w.ctx.Done():
					return
				default:
				}

				result := w.analyzeTrack(analyzer, path)
				switch {
				case result.Err != nil:
					atomic.AddInt64(&w.failedCount, 1)
					w.log.Warn("track failed", zap.String("path", path), zap.Error(result.Err))
				case result.Cached:
					atomic.AddInt64(&w.cachedCount, 1)
				default:
					atomic.AddInt64(&w.analyzedCount, 1)
				}

				if w.onResult != nil {
					w.onResult(result)
				}
			}
		}()
	}
	wg.Wait()
}

// analyzeTrack decodes and analyzes a single file, consulting the result
// store first when one is configured.
func (w *Worker) analyzeTrack(analyzer *Analyzer, path string) TrackResult {
	result := TrackResult{Path: path}

	fileInfo, err := os.Stat(path)
	if err != nil {
		result.Err = fmt.Errorf("file not found: %w", err)
		return result
	}
	result.FileHash = computeFileHash(path, fileInfo.Size())

	if w.store != nil && w.store.Has(path, result.FileHash) {
		if cached, ok := w.store.Get(path); ok {
			result.Result = cached.Result
			result.Cached = true
			return result
		}
	}

	samples, err := w.decode(w.ctx, path, w.sampleRate)
	if err != nil {
		result.Err = fmt.Errorf("decode failed: %w", err)
		return result
	}

	res, err := analyzer.Analyze(samples, w.sampleRate)
	if err != nil {
		result.Err = err
		return result
	}
	result.Result = res

	if w.store != nil {
		w.store.Put(path, res, result.FileHash)
	}
	return result
}

// computeFileHash derives a change-detection hash from the path, size and
// the first and last 64KB of the file.
func computeFileHash(path string, size int64) string {
	hasher := sha256.New()
	hasher.Write([]byte(fmt.Sprintf("%s:%d", path, size)))

	f, err := os.Open(path)
	if err != nil {
		return hex.EncodeToString(hasher.Sum(nil))[:16]
	}
	defer f.Close()

	buf := make([]byte, 65536)
	n, _ := f.Read(buf)
	hasher.Write(buf[:n])

	if size > 65536 {
		f.Seek(-65536, io.SeekEnd)
		n, _ = f.Read(buf)
		hasher.Write(buf[:n])
	}

	return hex.EncodeToString(hasher.Sum(nil))[:16]
}
