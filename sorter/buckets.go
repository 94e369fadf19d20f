package sorter

// Bucket is a destination folder for images no larger than Width×Height.
type Bucket struct {
	Name   string
	Width  int
	Height int
}

// Fits reports whether a w×h image is within the bucket's bounds, inclusive.
func (b Bucket) Fits(w, h int) bool { return w <= b.Width && h <= b.Height }

// DefaultBuckets are checked in order; the first that fits wins.
var DefaultBuckets = []Bucket{
	{Name: "Low Res", Width: 1440, Height: 900},
	{Name: "Mid Res", Width: 1920, Height: 1440},
	{Name: "High Res", Width: 2560, Height: 1600},
	{Name: "UHD Res", Width: 3840, Height: 2160},
	{Name: "Phone Res", Width: 1080, Height: 2400},
}

const (
	// DefaultFallback receives images that fit no bucket.
	DefaultFallback = "UHDP Res"
	// WallpaperDir receives wide images when wallpaper sorting is on.
	WallpaperDir = "Wallpapers"
)

// Classifier picks a destination folder name for an image by its size.
type Classifier struct {
	Buckets  []Bucket
	Fallback string

	// Wallpapers routes images whose width/height ratio exceeds
	// ScaleFactor to WallpaperDir before buckets are considered.
	Wallpapers  bool
	ScaleFactor float64
}

// DefaultClassifier uses DefaultBuckets and DefaultFallback with wallpaper
// routing off.
func DefaultClassifier() Classifier {
	return Classifier{
		Buckets:     DefaultBuckets,
		Fallback:    DefaultFallback,
		ScaleFactor: 1.3,
	}
}

// Classify returns the folder name for a w×h image.
func (c Classifier) Classify(w, h int) string {
	if c.Wallpapers && h > 0 && float64(w)/float64(h) > c.ScaleFactor {
		return WallpaperDir
	}
	for _, b := range c.Buckets {
		if b.Fits(w, h) {
			return b.Name
		}
	}
	return c.Fallback
}

// Names lists every folder Classify may return.
func (c Classifier) Names() []string {
	names := make([]string, 0, len(c.Buckets)+2)
	for _, b := range c.Buckets {
		names = append(names, b.Name)
	}
	names = append(names, c.Fallback)
	if c.Wallpapers {
		names = append(names, WallpaperDir)
	}
	return names
}
