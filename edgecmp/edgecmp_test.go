package edgecmp

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artyom/picsort/pixels"
)

// identity is a resampler for tests that run at 100% scale, where the
// requested size always equals the input size.
func identity(img *image.Gray, w, h int) *image.Gray { return img }

func blocks(size, block int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/block+y/block)%2 == 0 {
				g.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return g
}

func mustComparator(t *testing.T, resize ResizeFunc, opts ...Option) *Comparator {
	t.Helper()
	cfg, err := NewConfig(opts...)
	require.NoError(t, err)
	c, err := New(cfg, resize)
	require.NoError(t, err)
	return c
}

func TestCompareSelfIsFullMatch(t *testing.T) {
	img := blocks(96, 16)
	for _, match := range []int{0, 50, 100} {
		for _, line := range []int{1, 128, 255} {
			for _, sample := range []int{1, 10, 100} {
				for _, radius := range []int{0, 3} {
					for _, scale := range []int{50, 100} {
						name := fmt.Sprintf("m%d_l%d_s%d_r%d_x%d", match, line, sample, radius, scale)
						t.Run(name, func(t *testing.T) {
							c := mustComparator(t, nil,
								WithMatchPercent(match), WithLineThreshold(line),
								WithSamplePercent(sample), WithNearMatchRadius(radius),
								WithScalePercent(scale))

							src, _, err := Align(img, img, scale, pixels.Resize)
							require.NoError(t, err)
							require.NotEmpty(t, Extract(src, line))

							res, err := c.Compare(img, img)
							require.NoError(t, err)
							assert.Equal(t, 100, res.Percent)
							assert.True(t, res.Match)
							assert.Equal(t, res.Samples, res.Hits)
						})
					}
				}
			}
		}
	}
}

func TestCompareUniformImagesHaveNoEdges(t *testing.T) {
	white := image.NewGray(image.Rect(0, 0, 1000, 1000))
	for i := range white.Pix {
		white.Pix[i] = 255
	}
	src := pixels.FindEdges(white)
	cmp := pixels.FindEdges(white)

	c := mustComparator(t, nil, WithLineThreshold(128))
	res, err := c.Compare(src, cmp)
	require.NoError(t, err)
	assert.False(t, res.Match)
	assert.Equal(t, 0, res.Percent)
	assert.Equal(t, 0, res.Samples)
}

func TestCompareNinetyFivePercent(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 1000, 8))
	cmp := image.NewGray(image.Rect(0, 0, 1000, 8))
	for i := 0; i < 100; i++ {
		src.SetGray(i*10, 4, color.Gray{Y: 255})
		if i < 95 {
			cmp.SetGray(i*10, 4, color.Gray{Y: 200})
		}
	}
	c := mustComparator(t, identity,
		WithMatchPercent(90), WithSamplePercent(100), WithScalePercent(100))

	res, err := c.Compare(src, cmp)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Samples)
	assert.Equal(t, 95, res.Hits)
	assert.Equal(t, 95, res.Percent)
	assert.True(t, res.Match)
}

func TestCompareBelowThreshold(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 100, 1))
	cmp := image.NewGray(image.Rect(0, 0, 100, 1))
	for x := 0; x < 100; x += 10 {
		src.SetGray(x, 0, color.Gray{Y: 255})
	}
	cmp.SetGray(0, 0, color.Gray{Y: 255})

	c := mustComparator(t, identity,
		WithMatchPercent(90), WithSamplePercent(100), WithScalePercent(100), WithNearMatchRadius(0))
	res, err := c.Compare(src, cmp)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Percent)
	assert.False(t, res.Match)
}

func TestCompareNearMatchRadius(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 20, 20))
	cmp := image.NewGray(image.Rect(0, 0, 20, 20))
	src.SetGray(10, 10, color.Gray{Y: 255})
	cmp.SetGray(12, 10, color.Gray{Y: 255})

	for radius, want := range []int{0, 0, 100, 100} {
		c := mustComparator(t, identity,
			WithSamplePercent(100), WithScalePercent(100), WithNearMatchRadius(radius))
		res, err := c.Compare(src, cmp)
		require.NoError(t, err)
		assert.Equal(t, want, res.Percent, "radius %d", radius)
	}
}

func TestComparePercentMonotonicInRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	random := func() *image.Gray {
		g := image.NewGray(image.Rect(0, 0, 64, 64))
		for i := range g.Pix {
			if rng.Intn(20) == 0 {
				g.Pix[i] = 255
			}
		}
		return g
	}
	for round := 0; round < 5; round++ {
		src, cmp := random(), random()
		prev := -1
		for radius := 0; radius <= 8; radius++ {
			c := mustComparator(t, identity,
				WithSamplePercent(100), WithScalePercent(100), WithNearMatchRadius(radius))
			res, err := c.Compare(src, cmp)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.Percent, 0)
			assert.LessOrEqual(t, res.Percent, 100)
			assert.GreaterOrEqual(t, res.Percent, prev, "radius %d", radius)
			prev = res.Percent
		}
	}
}

func TestCompareEmptyBuffer(t *testing.T) {
	c := mustComparator(t, nil)
	img := blocks(16, 4)

	_, err := c.Compare(image.NewGray(image.Rect(0, 0, 0, 10)), img)
	assert.True(t, errors.Is(err, ErrInvalidImage))

	_, err = c.Compare(img, nil)
	assert.True(t, errors.Is(err, ErrInvalidImage))
}

func TestProbeOutOfBounds(t *testing.T) {
	c := mustComparator(t, identity)
	img := image.NewGray(image.Rect(0, 0, 5, 5))

	for _, pt := range []image.Point{{5, 0}, {0, 5}, {-1, 2}, {2, -1}} {
		_, err := c.probe(img, pt)
		assert.True(t, errors.Is(err, ErrCoordinateOutOfBounds), "point %v", pt)
	}
	_, err := c.probe(img, image.Point{4, 4})
	assert.NoError(t, err)
}

func TestNearMatchClipsToBounds(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	img.SetGray(3, 3, color.Gray{Y: 255})
	assert.True(t, nearMatch(img, image.Point{0, 0}, 3, 128))

	img = image.NewGray(image.Rect(0, 0, 8, 8))
	img.SetGray(4, 0, color.Gray{Y: 255})
	assert.False(t, nearMatch(img, image.Point{0, 0}, 3, 128))
	assert.True(t, nearMatch(img, image.Point{7, 7}, 7, 128))
}

func TestAlignDimensions(t *testing.T) {
	var sizes [][2]int
	resize := func(img *image.Gray, w, h int) *image.Gray {
		sizes = append(sizes, [2]int{w, h})
		return image.NewGray(image.Rect(0, 0, w, h))
	}
	src := image.NewGray(image.Rect(0, 0, 101, 51))
	cmp := image.NewGray(image.Rect(0, 0, 640, 480))

	a, b, err := Align(src, cmp, 50, resize)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(50, 25), a.Rect.Size())
	assert.Equal(t, image.Pt(50, 25), b.Rect.Size())
	assert.Equal(t, [][2]int{{50, 25}, {50, 25}}, sizes)

	tiny := image.NewGray(image.Rect(0, 0, 1, 1))
	a, b, err = Align(tiny, cmp, 50, resize)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(1, 1), a.Rect.Size())
	assert.Equal(t, image.Pt(1, 1), b.Rect.Size())
}

func TestAlignRejectsBadResampler(t *testing.T) {
	bad := func(img *image.Gray, w, h int) *image.Gray { return img }
	src := image.NewGray(image.Rect(0, 0, 10, 10))
	_, _, err := Align(src, src, 50, bad)
	assert.True(t, errors.Is(err, ErrInvalidImage))

	_, _, err = Align(src, src, 0, bad)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestExtractRowMajor(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 3))
	img.SetGray(3, 0, color.Gray{Y: 128})
	img.SetGray(0, 1, color.Gray{Y: 200})
	img.SetGray(1, 1, color.Gray{Y: 127})
	img.SetGray(2, 2, color.Gray{Y: 255})

	want := []image.Point{{3, 0}, {0, 1}, {2, 2}}
	assert.Equal(t, want, Extract(img, 128))
	assert.Equal(t, want, Extract(img, 128))
	assert.Empty(t, Extract(img, 256))
	assert.Len(t, Extract(img, 0), 12)
}

func TestExtractSubImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	img.SetGray(6, 7, color.Gray{Y: 255})
	sub := img.SubImage(image.Rect(5, 5, 10, 10)).(*image.Gray)
	assert.Equal(t, []image.Point{{1, 2}}, Extract(sub, 128))
}

func TestSample(t *testing.T) {
	points := func(n int) []image.Point {
		out := make([]image.Point, n)
		for i := range out {
			out[i] = image.Point{X: i}
		}
		return out
	}

	assert.Nil(t, Sample(nil, 10))

	got := Sample(points(100), 10)
	require.Len(t, got, 10)
	for i, p := range got {
		assert.Equal(t, i*10, p.X)
	}

	assert.Len(t, Sample(points(100), 100), 100)
	assert.Len(t, Sample(points(10), 30), 4)
	assert.Equal(t, []image.Point{{X: 0}}, Sample(points(50), 0))

	for n := 1; n <= 50; n++ {
		for p := 1; p <= 100; p++ {
			require.NotEmpty(t, Sample(points(n), p), "n=%d p=%d", n, p)
		}
	}
}

func TestResultString(t *testing.T) {
	r := Result{Percent: 87, Elapsed: 1500 * time.Millisecond}
	assert.Equal(t, "Time taken 1.50 seconds, with a 87% match.", r.String())
	assert.InDelta(t, 1.5, r.Seconds(), 1e-9)
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocks.png")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, blocks(96, 16)))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	c := mustComparator(t, nil, WithScalePercent(100))
	res, err := c.CompareFiles(path, path)
	require.NoError(t, err)
	assert.True(t, res.Match)
	assert.Equal(t, 100, res.Percent)

	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("nope"), 0o644))
	_, err = c.CompareFiles(path, broken)
	assert.True(t, errors.Is(err, pixels.ErrDecode))
}

func TestCompareAligned(t *testing.T) {
	c := mustComparator(t, nil, WithScalePercent(50))
	img := pixels.FindEdges(blocks(96, 16))

	size := c.WorkingSize(img)
	assert.Equal(t, image.Pt(48, 48), size)
	scaled, err := c.Scale(img, size)
	require.NoError(t, err)

	want, err := c.Compare(img, img)
	require.NoError(t, err)
	got, err := c.CompareAligned(scaled, scaled)
	require.NoError(t, err)
	assert.Equal(t, want.Percent, got.Percent)
	assert.Equal(t, want.Samples, got.Samples)

	_, err = c.CompareAligned(scaled, img)
	assert.True(t, errors.Is(err, ErrInvalidImage))
	_, err = c.CompareAligned(image.NewGray(image.Rectangle{}), scaled)
	assert.True(t, errors.Is(err, ErrInvalidImage))
}

func TestScaleRejectsBadResampler(t *testing.T) {
	c := mustComparator(t, identity)
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	_, err := c.Scale(img, image.Pt(5, 5))
	assert.True(t, errors.Is(err, ErrInvalidImage))
	out, err := c.Scale(img, image.Pt(10, 10))
	require.NoError(t, err)
	assert.Same(t, img, out)
}
