package edgecmp

import "fmt"

// Default configuration values.
const (
	DefaultMatchPercent    = 90
	DefaultLineThreshold   = 128
	DefaultSamplePercent   = 10
	DefaultNearMatchRadius = 3
	DefaultScalePercent    = 50
)

// Config holds comparison parameters. A Config is a value: build it with
// NewConfig or DefaultConfig and derive changed copies with its With methods.
type Config struct {
	// MatchPercent is the share of sampled edge points (0-100) that must be
	// found in the comparison image for the two to be reported as a match.
	MatchPercent int

	// LineThreshold is the edge-filtered intensity (0-255) at or above which
	// a pixel counts as part of an edge.
	LineThreshold int

	// SamplePercent is the share of edge points (0-100) checked against the
	// comparison image.
	SamplePercent int

	// NearMatchRadius bounds the square neighbourhood searched when the exact
	// coordinate is not an edge in the comparison image.
	NearMatchRadius int

	// ScalePercent is the size (1-100) both images are scaled to, relative
	// to the source image, before edge extraction.
	ScalePercent int
}

// DefaultConfig returns the default comparison configuration.
func DefaultConfig() Config {
	return Config{
		MatchPercent:    DefaultMatchPercent,
		LineThreshold:   DefaultLineThreshold,
		SamplePercent:   DefaultSamplePercent,
		NearMatchRadius: DefaultNearMatchRadius,
		ScalePercent:    DefaultScalePercent,
	}
}

// Option changes a single Config field.
type Option func(*Config)

func WithMatchPercent(p int) Option    { return func(c *Config) { c.MatchPercent = p } }
func WithLineThreshold(v int) Option   { return func(c *Config) { c.LineThreshold = v } }
func WithSamplePercent(p int) Option   { return func(c *Config) { c.SamplePercent = p } }
func WithNearMatchRadius(r int) Option { return func(c *Config) { c.NearMatchRadius = r } }
func WithScalePercent(p int) Option    { return func(c *Config) { c.ScalePercent = p } }

// NewConfig applies opts on top of DefaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	return DefaultConfig().With(opts...)
}

// With returns a validated copy of c with opts applied; c itself is not
// modified.
func (c Config) With(opts ...Option) (Config, error) {
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first field that is out of range. Values are never
// clamped.
func (c Config) Validate() error {
	if c.MatchPercent < 0 || c.MatchPercent > 100 {
		return fmt.Errorf("%w: match percent must be between 0 and 100 (got %d)", ErrConfig, c.MatchPercent)
	}
	if c.LineThreshold < 0 || c.LineThreshold > 255 {
		return fmt.Errorf("%w: line threshold must be between 0 and 255 (got %d)", ErrConfig, c.LineThreshold)
	}
	if c.SamplePercent < 0 || c.SamplePercent > 100 {
		return fmt.Errorf("%w: sample percent must be between 0 and 100 (got %d)", ErrConfig, c.SamplePercent)
	}
	if c.NearMatchRadius < 0 {
		return fmt.Errorf("%w: near match radius cannot be negative (got %d)", ErrConfig, c.NearMatchRadius)
	}
	if c.ScalePercent < 1 || c.ScalePercent > 100 {
		return fmt.Errorf("%w: scale percent must be between 1 and 100 (got %d)", ErrConfig, c.ScalePercent)
	}
	return nil
}

// Configure validates c before it is used for comparisons.
func Configure(c Config) error { return c.Validate() }
