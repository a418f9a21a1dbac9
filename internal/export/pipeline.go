// Package export turns a rendered card surface into a PNG or PDF artifact and
// hands it to a sink.
//
// An export is split in two phases. Prepare reads the source synchronously so
// the artifact reflects exactly the state at the moment of the request. The
// returned Job does the slow rasterize, encode and deliver work and may run on
// another goroutine.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"cardterm/internal/card"
	"cardterm/internal/surface"
)

// DefaultScale is the rasterization factor applied to the surface.
const DefaultScale = 3

// State is the pipeline stage currently in progress.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateEncoding
	StateDelivering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateEncoding:
		return "encoding"
	case StateDelivering:
		return "delivering"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Source yields the surface to export.
type Source interface {
	Capture() (surface.Surface, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (surface.Surface, error)

func (f SourceFunc) Capture() (surface.Surface, error) { return f() }

// CardSource composes the surface from a card value.
type CardSource struct {
	Card card.Card
}

func (c CardSource) Capture() (surface.Surface, error) { return surface.Compose(c.Card) }

// CaptureOptions describe the raster requested from a Capturer.
type CaptureOptions struct {
	Scale       int
	Width       int
	Height      int
	Transparent bool
}

// Capturer rasterizes a surface snapshot.
type Capturer interface {
	Capture(ctx context.Context, s surface.Surface, opts CaptureOptions) (image.Image, error)
}

// RasterCapturer draws the surface with the built-in rasterizer.
type RasterCapturer struct{}

func (RasterCapturer) Capture(ctx context.Context, s surface.Surface, opts CaptureOptions) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size := s.Size(); opts.Width != size.X || opts.Height != size.Y {
		return nil, fmt.Errorf("capture %dx%d does not match surface %dx%d", opts.Width, opts.Height, size.X, size.Y)
	}
	return surface.Rasterize(s, surface.RasterOptions{Scale: opts.Scale, Opaque: !opts.Transparent})
}

// Artifact is an encoded export ready for delivery.
type Artifact struct {
	Filename  string
	Format    Format
	MediaType string
	Data      []byte
	// Pixel dimensions of the captured raster.
	PixelWidth  int
	PixelHeight int
	// Page is set for PDF artifacts only.
	Page *Page
}

// Result describes a delivered export.
type Result struct {
	ID          string
	Artifact    Artifact
	Path        string
	Theme       string
	DeliveredAt time.Time
}

// Recorder is notified after every successful delivery.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, r Result) error

func (f RecorderFunc) Record(ctx context.Context, r Result) error { return f(ctx, r) }

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithScale overrides DefaultScale.
func WithScale(scale int) Option {
	return func(p *Pipeline) { p.scale = scale }
}

// WithCapturer replaces the built-in rasterizer.
func WithCapturer(c Capturer) Option {
	return func(p *Pipeline) { p.capturer = c }
}

// WithRecorder registers a delivery recorder. Recorder errors are logged and
// never fail the export.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithLogger sets the logger used for stage transitions and failures.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithObserver registers a callback invoked on every stage transition.
func WithObserver(fn func(State)) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// WithClock overrides time.Now for delivery timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline runs exports against a single sink.
type Pipeline struct {
	sink     Sink
	capturer Capturer
	recorder Recorder
	logger   *log.Logger
	observer func(State)
	now      func() time.Time
	scale    int
}

// New builds a pipeline delivering to sink.
func New(sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		sink:     sink,
		capturer: RasterCapturer{},
		logger:   log.New(io.Discard),
		now:      time.Now,
		scale:    DefaultScale,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Job is a captured export waiting to be encoded and delivered.
type Job struct {
	id       string
	pipeline *Pipeline
	snapshot surface.Surface
	format   Format
	ran      atomic.Bool
}

// ID identifies the job in logs and history.
func (j *Job) ID() string { return j.id }

// Surface is the snapshot the job will export.
func (j *Job) Surface() surface.Surface { return j.snapshot }

// Format is the requested output format.
func (j *Job) Format() Format { return j.format }

// Prepare validates the request and snapshots the source. Later changes to
// whatever backs the source do not affect the returned job.
func (p *Pipeline) Prepare(src Source, format Format) (*Job, error) {
	if !format.valid() {
		return nil, p.fail(format, StateIdle, CodeUnsupportedFormat, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format)))
	}
	p.transition(StateCapturing)
	if src == nil {
		p.transition(StateIdle)
		return nil, p.fail(format, StateCapturing, CodeCaptureUnavailable, ErrCaptureUnavailable)
	}
	snap, err := src.Capture()
	if err != nil {
		p.transition(StateIdle)
		return nil, p.fail(format, StateCapturing, classifyCapture(err), err)
	}
	return &Job{id: uuid.NewString(), pipeline: p, snapshot: snap, format: format}, nil
}

// Export prepares and runs a job in one call.
func (p *Pipeline) Export(ctx context.Context, src Source, format Format) (Result, error) {
	job, err := p.Prepare(src, format)
	if err != nil {
		return Result{}, err
	}
	return job.Run(ctx)
}

// Run rasterizes, encodes and delivers the snapshot. A job runs at most once.
// The pipeline is always back to StateIdle when Run returns.
func (j *Job) Run(ctx context.Context) (res Result, err error) {
	if !j.ran.CompareAndSwap(false, true) {
		return Result{}, ErrJobConsumed
	}
	p := j.pipeline
	stage := StateCapturing
	defer func() {
		if r := recover(); r != nil {
			code, sentinel := CodeEncodingFailure, ErrEncoding
			if stage == StateDelivering {
				code, sentinel = CodeDeliveryFailure, ErrDelivery
			}
			res = Result{}
			err = p.fail(j.format, stage, code, fmt.Errorf("%w: panic: %v", sentinel, r))
		}
		p.transition(StateIdle)
	}()

	size := j.snapshot.Size()
	img, cerr := p.capturer.Capture(ctx, j.snapshot, CaptureOptions{
		Scale:       p.scale,
		Width:       size.X,
		Height:      size.Y,
		Transparent: true,
	})
	if cerr != nil {
		return Result{}, p.fail(j.format, stage, CodeEncodingFailure, fmt.Errorf("%w: %w", ErrEncoding, cerr))
	}

	stage = StateEncoding
	p.transition(stage)
	art, eerr := j.encode(img)
	if eerr != nil {
		return Result{}, p.fail(j.format, stage, CodeEncodingFailure, fmt.Errorf("%w: %w", ErrEncoding, eerr))
	}

	stage = StateDelivering
	p.transition(stage)
	path, derr := p.sink.Deliver(ctx, art)
	if derr != nil {
		return Result{}, p.fail(j.format, stage, CodeDeliveryFailure, fmt.Errorf("%w: %w", ErrDelivery, derr))
	}

	res = Result{
		ID:          j.id,
		Artifact:    art,
		Path:        path,
		Theme:       j.snapshot.Card.Theme,
		DeliveredAt: p.now(),
	}
	p.logger.Info("export delivered", "job", j.id, "format", j.format, "path", path, "bytes", len(art.Data))

	if p.recorder != nil {
		if rerr := p.recorder.Record(ctx, res); rerr != nil {
			p.logger.Warn("record export", "job", j.id, "path", path, "err", rerr)
		}
	}
	return res, nil
}

func (j *Job) encode(img image.Image) (Artifact, error) {
	b := img.Bounds()
	art := Artifact{
		Filename:    Filename(j.snapshot.Card.Name, j.format),
		Format:      j.format,
		MediaType:   j.format.MediaType(),
		PixelWidth:  b.Dx(),
		PixelHeight: b.Dy(),
	}
	pngData, err := encodePNG(img)
	if err != nil {
		return Artifact{}, err
	}
	switch j.format {
	case FormatPNG:
		art.Data = pngData
	case FormatPDF:
		data, page, err := encodeDocument(pngData, j.snapshot.Card.Name)
		if err != nil {
			return Artifact{}, err
		}
		art.Data = data
		art.Page = &page
	default:
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(j.format))
	}
	return art, nil
}

func (p *Pipeline) transition(s State) {
	p.logger.Debug("export stage", "state", s)
	if p.observer != nil {
		p.observer(s)
	}
}

func (p *Pipeline) fail(format Format, stage State, code Code, err error) error {
	e := &Error{Code: code, Stage: stage, Format: format, Err: err}
	p.logger.Error("export failed", "code", code, "stage", stage, "format", format, "err", err)
	return e
}

// AsError extracts the export error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
