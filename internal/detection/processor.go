package detection

import (
	"image"

	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/errors"
	"github.com/ironsheep/red-numbers/internal/imaging"
	"github.com/ironsheep/red-numbers/internal/logging"
	"github.com/ironsheep/red-numbers/internal/ocr"
)

// Result holds what was found on one image. Both slices are always non-nil.
type Result struct {
	Numbers    []string
	MotorCodes []string
}

// Empty returns a Result with no detections.
func Empty() Result {
	return Result{Numbers: []string{}, MotorCodes: []string{}}
}

// Processor runs the complete detection pipeline on single images.
//
// A Processor owns its OCR engine for the duration of its use and must not be
// shared between goroutines.
type Processor struct {
	segmenter *Segmenter
	filter    GeometryFilter
	numbers   *NumberExtractor
	motor     *MotorExtractor
	sink      DebugSink
	log       *logging.Logger
}

// Option customizes a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for per-region diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// WithDebugSink enables intermediate image output.
func WithDebugSink(s DebugSink) Option {
	return func(p *Processor) { p.sink = s }
}

// NewProcessor builds a Processor from cfg, recognizing text with engine.
func NewProcessor(cfg config.Config, engine ocr.Engine, opts ...Option) (*Processor, error) {
	p := &Processor{
		segmenter: NewSegmenter(cfg.Color),
		filter:    NewGeometryFilter(cfg.Geometry),
		sink:      NopSink{},
		log:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}

	motor, err := NewMotorExtractor(cfg.Motor, engine, p.log)
	if err != nil {
		return nil, errors.NewInvalidConfigError(err)
	}
	p.motor = motor
	numbers, err := NewNumberExtractor(cfg.Numbers, engine, p.log)
	if err != nil {
		return nil, errors.NewInvalidConfigError(err)
	}
	p.numbers = numbers
	return p, nil
}

// Process loads the image at path and runs the pipeline on it. A file that
// cannot be decoded yields an IMAGE_UNREADABLE error and an empty Result.
func (p *Processor) Process(path string) (Result, error) {
	img, err := imaging.Load(path)
	if err != nil {
		return Empty(), errors.NewImageUnreadableError(path, err)
	}
	return p.ProcessImage(imaging.FileID(path), img), nil
}

// ProcessImage runs the pipeline on a decoded image. name identifies the image
// in logs and debug output.
func (p *Processor) ProcessImage(name string, img image.Image) Result {
	stage := p.stageFunc(name)

	mask := p.segmenter.Segment(img)
	stage.save("mask", mask.Image())

	regions := p.filter.Filter(FindRegions(mask))
	if stage != nil {
		boxes := make([]image.Rectangle, len(regions))
		for i, r := range regions {
			boxes[i] = r.Rect
		}
		stage.save("regions", imaging.DrawBoxes(img, boxes, imaging.DefaultBoxColor, true))
	}

	res := Result{
		Numbers:    p.numbers.ExtractAll(img, regions, stage),
		MotorCodes: p.motor.Extract(img, stage),
	}
	p.log.Debug("image processed", "image", name, "regions", len(regions),
		"numbers", len(res.Numbers), "motor_codes", len(res.MotorCodes))
	return res
}

func (p *Processor) stageFunc(name string) StageFunc {
	if _, ok := p.sink.(NopSink); ok || p.sink == nil {
		return nil
	}
	return func(stage string, img image.Image) {
		if err := p.sink.Save(name, stage, img); err != nil {
			p.log.Warn("failed to save debug image", "image", name, "stage", stage, "error", err)
		}
	}
}
