package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/twtrace/pkg/extract"
	"github.com/gnana997/twtrace/pkg/parser"
	"github.com/gnana997/twtrace/pkg/util"
)

// FileJob represents a file to be processed by the worker pool.
type FileJob struct {
	FilePath string
	JobID    int
}

// JobResult carries the transform result of one job.
type JobResult struct {
	FilePath string
	Result   *extract.FileResult
	JobID    int
	// Cached is set when the result came from the content cache.
	Cached bool
}

// processor transforms one file: read through the file cache, consult the
// content-addressed result cache, then run the engine.
type processor struct {
	engine    *extract.Engine
	cache     util.FileCache
	index     *ClassIndex
	obfuscate bool
}

// process never panics; a panic inside the engine becomes an error so one
// file cannot take down a build.
func (p *processor) process(path string) (res *extract.FileResult, cached bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, cached = nil, false
			err = fmt.Errorf("panic while transforming: %v", r)
		}
	}()

	content, err := p.cache.Read(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read file: %w", err)
	}

	key := KeyFor(content, parser.DialectForPath(path), p.obfuscate)
	if hit, ok := p.index.CachedResult(key, path); ok {
		return hit, true, nil
	}

	res, err = p.engine.TransformFile(path, content, p.obfuscate)
	if err != nil {
		return nil, false, err
	}
	p.index.CacheResult(key, res)
	return res, false, nil
}

// WorkerPoolConfig configures a WorkerPool.
type WorkerPoolConfig struct {
	// Workers is the number of worker goroutines (0 = auto-detect).
	Workers   int
	Engine    *extract.Engine
	Cache     util.FileCache
	Index     *ClassIndex
	Obfuscate bool
	Logger    *slog.Logger
}

// WorkerPool manages a pool of goroutines transforming files in parallel.
//
// **Architecture:**
//   - Buffered job channel, separate result and error channels
//   - Workers stop on context cancellation, including while blocked on a send
//   - Graceful shutdown via FinishSubmitting + Stop
//
// **Usage:**
//
//	pool := NewWorkerPool(ctx, cfg)
//	pool.Start()
//	defer pool.Stop()
//
//	// start a consumer of pool.Results() and pool.Errors(), then:
//	for i, file := range files {
//	    pool.Submit(FileJob{FilePath: file, JobID: i})
//	}
//	pool.FinishSubmitting()
type WorkerPool struct {
	numWorkers int
	jobs       chan FileJob
	results    chan JobResult
	errors     chan FileError
	wg         sync.WaitGroup
	proc       *processor
	ownsCache  bool
	logger     *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
	cacheHits     atomic.Int64
}

// NewWorkerPool creates a new worker pool bound to ctx.
//
// Auto-detection uses util.PoolSize, which is also the parser
// pool size, so a worker never waits for a parser.
func NewWorkerPool(ctx context.Context, cfg WorkerPoolConfig) *WorkerPool {
	numWorkers := util.PoolSize(cfg.Workers)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cache, ownsCache := cfg.Cache, false
	if cache == nil {
		cache = util.NewFileCache(&util.FileCacheConfig{Logger: logger})
		ownsCache = true
	}
	index := cfg.Index
	if index == nil {
		index = NewClassIndex(DefaultClassIndexConfig(), logger)
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan FileJob, numWorkers*2),
		results:    make(chan JobResult, numWorkers),
		errors:     make(chan FileError, numWorkers),
		proc: &processor{
			engine:    cfg.Engine,
			cache:     cache,
			index:     index,
			obfuscate: cfg.Obfuscate,
		},
		ownsCache: ownsCache,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start spawns all worker goroutines.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("worker pool already started")
		return
	}

	wp.logger.Debug("starting worker pool", "workers", wp.numWorkers)

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return

		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(id, job)
		}
	}
}

func (wp *WorkerPool) processJob(workerID int, job FileJob) {
	res, cached, err := wp.proc.process(job.FilePath)
	if err != nil {
		wp.logger.Debug("job failed", "worker_id", workerID, "file", job.FilePath, "error", err)
		wp.jobsFailed.Add(1)
		select {
		case wp.errors <- FileError{FilePath: job.FilePath, Error: err}:
		case <-wp.ctx.Done():
		}
		return
	}

	wp.jobsProcessed.Add(1)
	if cached {
		wp.cacheHits.Add(1)
	}
	select {
	case wp.results <- JobResult{FilePath: job.FilePath, Result: res, JobID: job.JobID, Cached: cached}:
	case <-wp.ctx.Done():
	}
}

// Submit enqueues a job for processing. It blocks while the queue is full.
//
// **Thread Safety:** Safe for concurrent calls.
func (wp *WorkerPool) Submit(job FileJob) error {
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}

	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled: %w", wp.ctx.Err())
	case wp.jobs <- job:
		wp.jobsSubmitted.Add(1)
		return nil
	}
}

// Results returns the results channel.
func (wp *WorkerPool) Results() <-chan JobResult {
	return wp.results
}

// Errors returns the errors channel.
func (wp *WorkerPool) Errors() <-chan FileError {
	return wp.errors
}

// FinishSubmitting closes the jobs channel so workers exit once it drains.
// Safe to call multiple times.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
		wp.logger.Debug("jobs channel closed", "total_submitted", wp.jobsSubmitted.Load())
	}
}

// Cancel aborts in-flight work. Pending jobs are discarded.
func (wp *WorkerPool) Cancel() {
	wp.cancel()
}

// Wait blocks until all workers have finished.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Stop shuts the pool down: no new jobs, wait for workers, close the
// result and error channels. Safe to call multiple times.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}

	wp.FinishSubmitting()
	wp.wg.Wait()

	close(wp.results)
	close(wp.errors)
	wp.cancel()

	if wp.ownsCache {
		if err := wp.proc.cache.Close(); err != nil {
			wp.logger.Warn("failed to close file cache", "error", err)
		}
	}

	wp.logger.Debug("worker pool stopped",
		"jobs_submitted", wp.jobsSubmitted.Load(),
		"jobs_processed", wp.jobsProcessed.Load(),
		"jobs_failed", wp.jobsFailed.Load(),
		"cache_hits", wp.cacheHits.Load())
}

// GetStats returns current worker pool statistics.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
		CacheHits:     wp.cacheHits.Load(),
		QueueLength:   len(wp.jobs),
	}
}

// WorkerPoolStats contains statistics about the worker pool.
type WorkerPoolStats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
	CacheHits     int64
	QueueLength   int // Current jobs in queue
}
