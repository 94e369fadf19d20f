// Package edgecmp decides whether two images show the same picture by
// comparing their edges instead of their bytes.
//
// Both images are edge-filtered, scaled to a common working size, and the
// edge points of the source image are sampled at a fixed stride. Each sample
// is looked up in the comparison image, with a small neighbourhood search to
// absorb misalignment between the two independently filtered images. The
// share of samples found decides the match.
package edgecmp

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/artyom/picsort/pixels"
)

var (
	// ErrConfig is returned for out-of-range configuration values.
	ErrConfig = errors.New("invalid comparison config")

	// ErrInvalidImage is returned for empty buffers.
	ErrInvalidImage = errors.New("invalid image")

	// ErrCoordinateOutOfBounds means a sampled point does not fit the
	// comparison buffer, which only happens if the buffers were not aligned.
	ErrCoordinateOutOfBounds = errors.New("coordinate out of bounds")
)

// ResizeFunc resamples a grayscale buffer to w×h.
type ResizeFunc func(img *image.Gray, w, h int) *image.Gray

// Result is the outcome of a single comparison.
type Result struct {
	Match   bool
	Percent int
	Samples int
	Hits    int
	Elapsed time.Duration
}

// Seconds returns the comparison wall-clock time in seconds.
func (r Result) Seconds() float64 { return r.Elapsed.Seconds() }

func (r Result) String() string {
	return fmt.Sprintf("Time taken %.2f seconds, with a %d%% match.", r.Seconds(), r.Percent)
}

// Comparator compares edge-filtered grayscale buffers. It holds no mutable
// state and may be shared between goroutines.
type Comparator struct {
	cfg    Config
	resize ResizeFunc
}

// New returns a Comparator using cfg. If resize is nil, pixels.Resize is
// used.
func New(cfg Config, resize ResizeFunc) (*Comparator, error) {
	if err := Configure(cfg); err != nil {
		return nil, err
	}
	if resize == nil {
		resize = pixels.Resize
	}
	return &Comparator{cfg: cfg, resize: resize}, nil
}

// Config returns the comparator configuration.
func (c *Comparator) Config() Config { return c.cfg }

// WithConfig returns a new Comparator sharing c's resampler but using cfg.
func (c *Comparator) WithConfig(cfg Config) (*Comparator, error) {
	return New(cfg, c.resize)
}

// Compare reports how much of the source edge structure is present in
// comparison. Both buffers must already be edge-filtered (see
// pixels.FindEdges); they are aligned to a common size before sampling.
func (c *Comparator) Compare(source, comparison *image.Gray) (Result, error) {
	start := time.Now()
	src, cmp, err := align(source, comparison, c.cfg.ScalePercent, c.resize)
	if err != nil {
		return Result{}, err
	}
	return c.compare(start, src, cmp)
}

// CompareAligned is Compare for buffers already scaled to the same size,
// usually with Scale. It lets callers comparing one image against many reuse
// its scaled buffer.
func (c *Comparator) CompareAligned(source, comparison *image.Gray) (Result, error) {
	start := time.Now()
	if empty(source) || empty(comparison) {
		return Result{}, fmt.Errorf("%w: empty buffer", ErrInvalidImage)
	}
	if source.Rect.Size() != comparison.Rect.Size() {
		return Result{}, fmt.Errorf("%w: buffers of size %v and %v are not aligned",
			ErrInvalidImage, source.Rect.Size(), comparison.Rect.Size())
	}
	return c.compare(start, source, comparison)
}

// WorkingSize returns the size both buffers are scaled to when source is
// compared against anything.
func (c *Comparator) WorkingSize(source *image.Gray) image.Point {
	return workingSize(source, c.cfg.ScalePercent)
}

// Scale resamples img to size with the comparator's resampler.
func (c *Comparator) Scale(img *image.Gray, size image.Point) (*image.Gray, error) {
	if empty(img) {
		return nil, fmt.Errorf("%w: empty buffer", ErrInvalidImage)
	}
	out := c.resize(img, size.X, size.Y)
	if out == nil || out.Rect.Size() != size {
		return nil, fmt.Errorf("%w: resampler did not return %dx%d", ErrInvalidImage, size.X, size.Y)
	}
	return out, nil
}

func (c *Comparator) compare(start time.Time, src, cmp *image.Gray) (Result, error) {
	edges := Extract(src, c.cfg.LineThreshold)
	if len(edges) == 0 {
		return Result{Elapsed: time.Since(start)}, nil
	}
	var res Result
	for _, pt := range Sample(edges, c.cfg.SamplePercent) {
		hit, err := c.probe(cmp, pt)
		if err != nil {
			return Result{}, err
		}
		res.Samples++
		if hit {
			res.Hits++
		}
	}
	res.Percent = 100 * res.Hits / res.Samples
	res.Match = res.Percent >= c.cfg.MatchPercent
	res.Elapsed = time.Since(start)
	return res, nil
}

// probe reports whether pt, or a point within NearMatchRadius of it, is an
// edge in img.
func (c *Comparator) probe(img *image.Gray, pt image.Point) (bool, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if pt.X < 0 || pt.X >= w || pt.Y < 0 || pt.Y >= h {
		return false, fmt.Errorf("%w: %v outside %dx%d", ErrCoordinateOutOfBounds, pt, w, h)
	}
	line := uint8(c.cfg.LineThreshold)
	if img.Pix[pt.Y*img.Stride+pt.X] >= line {
		return true, nil
	}
	return nearMatch(img, pt, c.cfg.NearMatchRadius, line), nil
}

// nearMatch scans the square of the given radius around pt, clipped to the
// buffer, row by row, and stops at the first edge pixel.
func nearMatch(img *image.Gray, pt image.Point, radius int, line uint8) bool {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	y0, y1 := max(pt.Y-radius, 0), min(pt.Y+radius, h-1)
	x0, x1 := max(pt.X-radius, 0), min(pt.X+radius, w-1)
	for y := y0; y <= y1; y++ {
		row := img.Pix[y*img.Stride:]
		for x := x0; x <= x1; x++ {
			if row[x] >= line {
				return true
			}
		}
	}
	return false
}
