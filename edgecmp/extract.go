package edgecmp

import "image"

// Extract returns the points of img whose intensity is at least threshold,
// in row-major order. Points are relative to img.Rect.Min.
func Extract(img *image.Gray, threshold int) []image.Point {
	if threshold > 255 {
		return nil
	}
	line := uint8(max(threshold, 0))
	w, h := img.Rect.Dx(), img.Rect.Dy()
	var edges []image.Point
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x, v := range row {
			if v >= line {
				edges = append(edges, image.Point{X: x, Y: y})
			}
		}
	}
	return edges
}

// Sample picks every step-th edge point starting at the first one, where
// step = floor(n / (n*percent/100)) computed exactly, i.e. floor(100/percent).
// A zero percent selects only the first point. Sample never returns an empty
// slice for non-empty input.
func Sample(edges []image.Point, percent int) []image.Point {
	n := len(edges)
	if n == 0 {
		return nil
	}
	step := n
	if percent > 0 {
		step = 100 / percent
	}
	if step < 1 {
		step = 1
	}
	out := make([]image.Point, 0, (n+step-1)/step)
	for i := 0; i < n; i += step {
		out = append(out, edges[i])
	}
	return out
}
