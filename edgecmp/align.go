package edgecmp

import (
	"fmt"
	"image"
)

// Align scales source and comparison to scale percent of the source
// dimensions so that coordinates taken from one are valid in the other.
func Align(source, comparison *image.Gray, scale int, resize ResizeFunc) (*image.Gray, *image.Gray, error) {
	if scale < 1 || scale > 100 {
		return nil, nil, fmt.Errorf("%w: scale percent must be between 1 and 100 (got %d)", ErrConfig, scale)
	}
	return align(source, comparison, scale, resize)
}

func align(source, comparison *image.Gray, scale int, resize ResizeFunc) (*image.Gray, *image.Gray, error) {
	if empty(source) {
		return nil, nil, fmt.Errorf("%w: empty source buffer", ErrInvalidImage)
	}
	if empty(comparison) {
		return nil, nil, fmt.Errorf("%w: empty comparison buffer", ErrInvalidImage)
	}
	size := workingSize(source, scale)
	w, h := size.X, size.Y
	src, cmp := resize(source, w, h), resize(comparison, w, h)
	if src.Rect.Dx() != w || src.Rect.Dy() != h || cmp.Rect.Dx() != w || cmp.Rect.Dy() != h {
		return nil, nil, fmt.Errorf("%w: resampler returned %v and %v, want %dx%d",
			ErrInvalidImage, src.Rect.Size(), cmp.Rect.Size(), w, h)
	}
	return src, cmp, nil
}

func workingSize(source *image.Gray, scale int) image.Point {
	return image.Pt(max(source.Rect.Dx()*scale/100, 1), max(source.Rect.Dy()*scale/100, 1))
}

func empty(img *image.Gray) bool {
	return img == nil || img.Rect.Dx() <= 0 || img.Rect.Dy() <= 0
}
