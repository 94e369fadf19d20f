// Package pixels turns image files into the 8-bit grayscale buffers consumed
// by the edge comparator: decoding, grayscale conversion, edge filtering and
// resampling.
package pixels

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when file content cannot be decoded as an image.
var ErrDecode = errors.New("cannot decode image")

// findEdges is the 3x3 Laplacian kernel commonly called "find edges":
// uniform regions go to 0, intensity steps go bright.
var findEdges = [9]float64{
	-1, -1, -1,
	-1, 8, -1,
	-1, -1, -1,
}

// Open decodes image file at path, applies its EXIF orientation and returns
// its grayscale rendition.
func Open(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Decode reads an image from r and returns its grayscale rendition.
func Decode(r io.Reader) (*image.Gray, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Gray(img), nil
}

// Gray converts img to an 8-bit grayscale buffer using ITU-R 601 luma
// weights. Buffers that already are *image.Gray are returned as is.
func Gray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	return fromNRGBA(imaging.Grayscale(img))
}

// FindEdges applies the find-edges convolution to g.
func FindEdges(g *image.Gray) *image.Gray {
	return fromNRGBA(imaging.Convolve3x3(g, findEdges, nil))
}

// Resize resamples g to w×h using Catmull-Rom (bicubic) interpolation.
func Resize(g *image.Gray, w, h int) *image.Gray {
	return fromNRGBA(imaging.Resize(g, w, h, imaging.CatmullRom))
}

// Size reports pixel dimensions of the image file at path without decoding
// the whole image.
func Size(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w: %v", path, ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}

// fromNRGBA keeps the red channel of a gray-valued NRGBA image; imaging
// returns gray results with r == g == b.
func fromNRGBA(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		srow := src.Pix[y*src.Stride:]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()]
		for x := range drow {
			drow[x] = srow[x*4]
		}
	}
	return dst
}
