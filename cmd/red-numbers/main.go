package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ironsheep/red-numbers/internal/batch"
	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/detection"
	"github.com/ironsheep/red-numbers/internal/errors"
	"github.com/ironsheep/red-numbers/internal/export"
	"github.com/ironsheep/red-numbers/internal/imaging"
	"github.com/ironsheep/red-numbers/internal/logging"
	"github.com/ironsheep/red-numbers/internal/ocr/tesseract"
	"github.com/ironsheep/red-numbers/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	exitOK       = 0
	exitFatal    = 1
	exitUsage    = 2
	exitCanceled = 130
)

type options struct {
	input   string
	output  string
	name    string
	csv     bool
	db      string
	workers int
	preset  string
	sMin    int
	vMin    int
	top     float64
	debug   bool
	verbose bool
	version bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("red-numbers", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.input, "input", "", "folder with the sheet images (required)")
	fs.StringVar(&o.output, "output", ".", "folder for the spreadsheet and debug images")
	fs.StringVar(&o.name, "name", export.DefaultFileName, "output file name (.xlsx or .csv)")
	fs.BoolVar(&o.csv, "csv", false, "also write a CSV copy next to the spreadsheet")
	fs.StringVar(&o.db, "db", "", "SQLite file recording the run history")
	fs.IntVar(&o.workers, "workers", 0, "parallel workers (default: number of CPUs)")
	fs.StringVar(&o.preset, "preset", "", "saturation/brightness preset: very-strict, strict, medium, permissive, very-permissive")
	fs.IntVar(&o.sMin, "s-min", -1, "minimum saturation of red ink (0-255)")
	fs.IntVar(&o.vMin, "v-min", -1, "minimum brightness of red ink (0-255)")
	fs.Float64Var(&o.top, "top", 0, "fraction of the sheet height searched for motor codes")
	fs.BoolVar(&o.debug, "debug", false, "write intermediate images under <output>/debug/<run-id>")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.BoolVar(&o.version, "version", false, "print version information")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "red-numbers - extract red part numbers and motor codes from parts sheets")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage: red-numbers -input <folder> [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Environment variables:")
		fmt.Fprintln(stderr, "  RED_NUMBERS_LOG_LEVEL=debug    Enable debug logging")
		fmt.Fprintln(stderr, "  RED_NUMBERS_S_MIN, RED_NUMBERS_V_MIN, RED_NUMBERS_WORKERS, ...")
		fmt.Fprintln(stderr, "                                 Override detection parameters; a .env file is read if present")
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 && o.input == "" {
		o.input = fs.Arg(0)
	}
	return o, nil
}

// csvCopyPath returns where the -csv copy of outPath goes. ok is false when
// outPath is already a CSV file.
func csvCopyPath(outPath string) (path string, ok bool) {
	ext := filepath.Ext(outPath)
	if strings.EqualFold(ext, ".csv") {
		return "", false
	}
	return strings.TrimSuffix(outPath, ext) + ".csv", true
}

// buildConfig layers flags over the environment over the defaults.
func buildConfig(o options) (config.Config, error) {
	cfg := config.FromEnv(config.Default())

	if o.preset != "" {
		var err error
		if cfg, err = cfg.WithPreset(o.preset); err != nil {
			return cfg, err
		}
	}
	if o.sMin >= 0 || o.vMin >= 0 {
		s, v := cfg.Color.Range1.Lower.S, cfg.Color.Range1.Lower.V
		if o.sMin >= 0 {
			s = o.sMin
		}
		if o.vMin >= 0 {
			v = o.vMin
		}
		cfg = cfg.WithSaturationValue(s, v)
	}
	if o.top > 0 {
		cfg.Motor.TopFraction = o.top
	}
	if o.workers > 0 {
		cfg = cfg.WithWorkers(o.workers)
	}
	if o.debug {
		cfg = cfg.WithDebug(true)
	}
	return cfg, cfg.Validate()
}

func logLevel(verbose bool) logging.Level {
	if verbose {
		return logging.LevelDebug
	}
	return logging.ParseLevel(os.Getenv(config.EnvPrefix + "LOG_LEVEL"))
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}
	if o.version {
		fmt.Fprintf(stdout, "red-numbers %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return exitOK
	}

	loaded := config.LoadDotEnv(".env")
	log := logging.New(stderr, "red-numbers", logLevel(o.verbose))
	for _, f := range loaded {
		log.Debug("loaded environment file", "file", f)
	}

	if o.input == "" {
		fmt.Fprintln(stderr, "missing -input folder")
		return exitUsage
	}

	cfg, err := buildConfig(o)
	if err != nil {
		log.Error("invalid configuration", "error", errors.NewInvalidConfigError(err))
		return exitFatal
	}
	s, v := cfg.Color.Range1.Lower.S, cfg.Color.Range1.Lower.V
	log.Info("thresholds", "s_min", s, "v_min", v, "level", config.Level(s, v), "workers", cfg.Workers)

	paths, err := listInput(o.input, cfg.Extensions)
	if err != nil {
		log.Error("cannot start", "error", err)
		return exitFatal
	}

	ocrOpts := tesseract.Options{Language: cfg.OCR.Language, TessdataPrefix: cfg.OCR.TessdataPrefix}
	info, err := tesseract.Check(ocrOpts)
	if err != nil {
		log.Error("cannot start", "error", errors.NewOCRUnavailableError(err))
		return exitFatal
	}
	log.Debug("OCR engine ready", "backend", info.Backend, "version", info.Version)

	runID := store.NewRunID()
	started := time.Now()
	log.Info("processing images", "count", len(paths), "run", runID)

	var sink detection.DebugSink = detection.NopSink{}
	if cfg.Debug {
		dir := filepath.Join(o.output, "debug", runID)
		sink = detection.DirSink{Dir: dir}
		log.Info("debug images enabled", "dir", dir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := batch.Run(ctx, cfg, paths, batch.Options{
		Factory:  tesseract.Factory(ocrOpts),
		Progress: progressLogger(log, cfg.ProgressEvery),
		Logger:   log.With("batch"),
		Sink:     sink,
	})
	if res == nil {
		log.Error("batch failed", "error", runErr)
		return exitFatal
	}

	rows := batch.Rows(res)
	outPath := export.OutputPath(o.output, o.name)
	if err := export.Write(outPath, rows); err != nil {
		log.Error("export failed", "error", err)
		return exitFatal
	}
	log.Info("results written", "file", outPath, "rows", len(rows))

	if csvPath, ok := csvCopyPath(outPath); o.csv && ok {
		if err := export.Write(csvPath, rows); err != nil {
			log.Error("export failed", "error", err)
			return exitFatal
		}
		log.Info("results written", "file", csvPath)
	}

	if o.db != "" {
		if err := saveHistory(o, cfg, runID, started, outPath, res); err != nil {
			log.Warn("could not record run history", "db", o.db, "error", err)
		}
	}

	summarize(log, res, time.Since(started))

	if runErr != nil {
		log.Warn("run interrupted; results are partial", "error", runErr)
		return exitCanceled
	}
	return exitOK
}

// listInput returns the eligible images of dir, failing when the folder is
// missing or holds none.
func listInput(dir string, exts []string) ([]string, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, errors.NewInputMissingError(dir, err)
	}
	if !st.IsDir() {
		return nil, errors.NewInputMissingError(dir, fmt.Errorf("not a directory"))
	}
	paths, err := imaging.ListImages(dir, exts)
	if err != nil {
		return nil, errors.NewInputMissingError(dir, err)
	}
	if len(paths) == 0 {
		return nil, errors.NewNoImagesError(dir)
	}
	return paths, nil
}

// progressLogger logs every nth completed image and the last one.
func progressLogger(log *logging.Logger, every int) batch.ProgressFunc {
	if every < 1 {
		every = 1
	}
	return func(completed, total int, name string) {
		if completed%every == 0 || completed == total {
			log.Info("progress", "completed", completed, "total", total, "image", name)
		}
	}
}

func saveHistory(o options, cfg config.Config, runID string, started time.Time, outPath string, res *batch.Result) error {
	db, err := store.Open(o.db)
	if err != nil {
		return err
	}
	defer db.Close()

	input, _ := filepath.Abs(o.input)
	return db.SaveRun(store.Run{
		ID:        runID,
		InputDir:  input,
		Output:    outPath,
		StartedAt: started,
		Elapsed:   res.Elapsed,
		SatMin:    cfg.Color.Range1.Lower.S,
		ValMin:    cfg.Color.Range1.Lower.V,
	}, res)
}

func summarize(log *logging.Logger, res *batch.Result, total time.Duration) {
	sum := batch.Summarize(res)
	avg := 0.0
	if sum.Images > 0 {
		avg = total.Seconds() / float64(sum.Images)
	}
	log.Info("done",
		"rows", sum.Rows,
		"images", sum.Images,
		"failed", sum.Failed,
		"canceled", sum.Canceled,
		"with_motor_code", sum.WithCodes,
		"total_s", fmt.Sprintf("%.1f", total.Seconds()),
		"avg_s", fmt.Sprintf("%.2f", avg))
	for _, f := range res.Failed {
		log.Warn("image failed", "image", filepath.Base(f.Path), "error", f.Err)
	}
}
