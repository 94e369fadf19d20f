package edgecmp

import (
	"image"

	"github.com/artyom/picsort/pixels"
)

// Prepare decodes the image file at path and returns its edge-filtered
// grayscale buffer, ready to be passed to Compare.
func Prepare(path string) (*image.Gray, error) {
	g, err := pixels.Open(path)
	if err != nil {
		return nil, err
	}
	return pixels.FindEdges(g), nil
}

// CompareFiles compares two image files.
func (c *Comparator) CompareFiles(source, comparison string) (Result, error) {
	src, err := Prepare(source)
	if err != nil {
		return Result{}, err
	}
	cmp, err := Prepare(comparison)
	if err != nil {
		return Result{}, err
	}
	return c.Compare(src, cmp)
}
