package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/detection"
	"github.com/ironsheep/red-numbers/internal/errors"
	"github.com/ironsheep/red-numbers/internal/logging"
	"github.com/ironsheep/red-numbers/internal/ocr"
)

// ProgressFunc is called once per completed image with the number of images
// completed so far, the total, and the image's base name.
type ProgressFunc func(completed, total int, name string)

// Processor runs the pipeline on one image file.
type Processor interface {
	Process(path string) (detection.Result, error)
}

// ProcessorFunc builds the processor a worker uses with its own engine.
type ProcessorFunc func(engine ocr.Engine) (Processor, error)

// Options configures a Run.
type Options struct {
	// Workers bounds the pool. Zero uses cfg.Workers, then the CPU count.
	Workers int
	// Factory creates one OCR engine per worker. Required.
	Factory ocr.Factory
	// NewProcessor overrides how workers build their processor.
	NewProcessor ProcessorFunc
	Progress     ProgressFunc
	Logger       *logging.Logger
	Sink         detection.DebugSink
}

// Failure records an image whose processing failed.
type Failure struct {
	Path string
	Err  error
}

// Result holds the outcome of a batch: exactly one entry per distinct input
// path, whatever happened to it.
type Result struct {
	Images   map[string]detection.Result
	Order    []string // distinct input paths, in input order
	Failed   []Failure
	Elapsed  time.Duration
	Canceled []string // images never dispatched because the context ended
}

type job struct {
	path string
}

type outcome struct {
	path string
	res  detection.Result
	err  error
}

// Run processes paths on a fixed pool of workers. Each worker owns its own OCR
// engine, closed when the worker exits. Failures are isolated per image: the
// image is recorded with an empty result and listed in Failed.
//
// When ctx ends, no further images are dispatched; images already being
// processed finish, the rest are recorded empty, and ctx.Err() is returned
// along with the partial result.
func Run(ctx context.Context, cfg config.Config, paths []string, opts Options) (*Result, error) {
	if opts.Factory == nil && opts.NewProcessor == nil {
		return nil, errors.NewInvalidConfigError(fmt.Errorf("batch: no OCR engine factory"))
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	newProcessor := opts.NewProcessor
	if newProcessor == nil {
		newProcessor = func(engine ocr.Engine) (Processor, error) {
			return detection.NewProcessor(cfg, engine,
				detection.WithLogger(log), detection.WithDebugSink(opts.Sink))
		}
	}

	start := time.Now()
	order := distinct(paths)
	result := &Result{
		Images: make(map[string]detection.Result, len(order)),
		Order:  order,
	}
	if len(order) == 0 {
		return result, nil
	}

	workers := poolSize(opts.Workers, cfg.Workers, len(order))
	jobs := make(chan job)
	outcomes := make(chan outcome, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w := &worker{id: id, factory: opts.Factory, newProcessor: newProcessor, log: log}
			w.loop(jobs, outcomes)
		}(i + 1)
	}

	go func() {
		defer close(jobs)
		for _, p := range order {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- job{path: p}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	completed := 0
	for o := range outcomes {
		completed++
		result.Images[o.path] = o.res
		if o.err != nil {
			result.Failed = append(result.Failed, Failure{Path: o.path, Err: o.err})
			log.Error("image failed", "image", filepath.Base(o.path), "error", o.err)
		}
		if opts.Progress != nil {
			opts.Progress(completed, len(order), filepath.Base(o.path))
		}
	}

	for _, p := range order {
		if _, ok := result.Images[p]; !ok {
			result.Images[p] = detection.Empty()
			result.Canceled = append(result.Canceled, p)
		}
	}
	result.Elapsed = time.Since(start)

	if err := ctx.Err(); err != nil && len(result.Canceled) > 0 {
		log.Warn("batch canceled", "completed", completed, "skipped", len(result.Canceled))
		return result, err
	}
	return result, nil
}

func poolSize(requested, configured, jobs int) int {
	n := requested
	if n < 1 {
		n = configured
	}
	if n < 1 {
		n = runtime.NumCPU()
	}
	if n > jobs {
		n = jobs
	}
	return n
}

func distinct(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

type worker struct {
	id           int
	factory      ocr.Factory
	newProcessor ProcessorFunc
	log          *logging.Logger

	proc    Processor
	initErr error
}

func (w *worker) loop(jobs <-chan job, outcomes chan<- outcome) {
	engine := w.init()
	if engine != nil {
		defer func() {
			if err := engine.Close(); err != nil {
				w.log.Warn("failed to close OCR engine", "worker", w.id, "error", err)
			}
		}()
	}

	for j := range jobs {
		res, err := w.process(j.path)
		outcomes <- outcome{path: j.path, res: res, err: err}
	}
}

// init creates the worker's engine and processor. A failure is remembered and
// reported for every image the worker receives.
func (w *worker) init() ocr.Engine {
	var engine ocr.Engine
	if w.factory != nil {
		e, err := w.factory()
		if err != nil {
			w.initErr = errors.NewOCRUnavailableError(err)
			w.log.Error("worker could not start OCR engine", "worker", w.id, "error", err)
			return nil
		}
		engine = e
	}
	proc, err := w.newProcessor(engine)
	if err != nil {
		w.initErr = err
		w.log.Error("worker could not build processor", "worker", w.id, "error", err)
		return engine
	}
	w.proc = proc
	return engine
}

func (w *worker) process(path string) (res detection.Result, err error) {
	if w.initErr != nil {
		return detection.Empty(), errors.NewWorkerFailedError(path, w.initErr)
	}

	defer func() {
		if r := recover(); r != nil {
			res = detection.Empty()
			err = errors.NewWorkerFailedError(path, fmt.Errorf("panic: %v", r))
		}
	}()

	res, err = w.proc.Process(path)
	if err != nil {
		if _, ok := errors.CodeOf(err); !ok {
			err = errors.NewWorkerFailedError(path, err)
		}
		return detection.Empty(), err
	}
	if res.Numbers == nil {
		res.Numbers = []string{}
	}
	if res.MotorCodes == nil {
		res.MotorCodes = []string{}
	}
	return res, nil
}
