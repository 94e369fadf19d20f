// Package settings loads and saves the picsort settings file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/artyom/picsort/digest"
	"github.com/artyom/picsort/edgecmp"
)

// ErrInvalid is returned for settings that fail validation.
var ErrInvalid = errors.New("invalid settings")

// EnvPath names the environment variable holding the default settings path.
const EnvPath = "PICSORT_SETTINGS"

// DefaultFile is the settings path used when EnvPath is unset.
const DefaultFile = "picsort.toml"

type Directories struct {
	Source       string `toml:"source"`
	Destination  string `toml:"destination"`
	HashDatabase string `toml:"hash_database"`
}

type Wallpapers struct {
	Sort        bool    `toml:"sort"`
	ScaleFactor float64 `toml:"scale_factor"`
}

type Scan struct {
	Recursive     bool     `toml:"recursive"`
	Hash          bool     `toml:"hash"`
	HashAlgorithm string   `toml:"hash_algorithm"`
	FileTypes     []string `toml:"file_types"`
	IgnoreDirs    []string `toml:"ignore_dirs"`
}

type Compare struct {
	MatchPercent    int `toml:"match_percent"`
	LineThreshold   int `toml:"line_threshold"`
	SamplePercent   int `toml:"sample_percent"`
	NearMatchRadius int `toml:"near_match_radius"`
	ScalePercent    int `toml:"scale_percent"`
}

// Config returns the validated comparator configuration.
func (c Compare) Config() (edgecmp.Config, error) {
	return edgecmp.NewConfig(
		edgecmp.WithMatchPercent(c.MatchPercent),
		edgecmp.WithLineThreshold(c.LineThreshold),
		edgecmp.WithSamplePercent(c.SamplePercent),
		edgecmp.WithNearMatchRadius(c.NearMatchRadius),
		edgecmp.WithScalePercent(c.ScalePercent),
	)
}

type Settings struct {
	Directories Directories `toml:"directories"`
	Wallpapers  Wallpapers  `toml:"wallpapers"`
	Scan        Scan        `toml:"scan"`
	Compare     Compare     `toml:"compare"`
}

// Default returns the built-in settings.
func Default() Settings {
	cmp := edgecmp.DefaultConfig()
	return Settings{
		Directories: Directories{HashDatabase: "hashdatabase.yaml"},
		Wallpapers:  Wallpapers{ScaleFactor: 1.3},
		Scan: Scan{
			HashAlgorithm: digest.SHA256,
			FileTypes:     []string{".png", ".jpg", ".webp", ".jpeg"},
			IgnoreDirs:    []string{"Low Res", "Mid Res", "High Res", "UHD Res", "Phone Res", "UHDP Res", "Wallpapers"},
		},
		Compare: Compare{
			MatchPercent:    cmp.MatchPercent,
			LineThreshold:   cmp.LineThreshold,
			SamplePercent:   cmp.SamplePercent,
			NearMatchRadius: cmp.NearMatchRadius,
			ScalePercent:    cmp.ScalePercent,
		},
	}
}

// DefaultPath returns the settings path named by EnvPath, or DefaultFile.
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultFile
}

// Load reads settings from path. Keys missing from the file keep their
// default values.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings file '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse TOML in '%s': %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path.
func (s Settings) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks value ranges. It does not touch the file system; see
// CheckDirectories.
func (s Settings) Validate() error {
	if s.Wallpapers.ScaleFactor <= 0 {
		return fmt.Errorf("%w: wallpaper scale_factor must be positive (got %v)", ErrInvalid, s.Wallpapers.ScaleFactor)
	}
	if _, err := digest.New(s.Scan.HashAlgorithm); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(s.Scan.FileTypes) == 0 {
		return fmt.Errorf("%w: file_types cannot be empty", ErrInvalid)
	}
	for _, ext := range s.Scan.FileTypes {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: file type %q must start with a dot", ErrInvalid, ext)
		}
	}
	if _, err := s.Compare.Config(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// CheckDirectories verifies that the source and destination directories
// exist.
func (s Settings) CheckDirectories() error {
	for _, d := range []struct{ name, path string }{
		{"source", s.Directories.Source},
		{"destination", s.Directories.Destination},
	} {
		if d.path == "" {
			return fmt.Errorf("%w: %s directory not set", ErrInvalid, d.name)
		}
		fi, err := os.Stat(d.path)
		if err != nil {
			return fmt.Errorf("%w: the %s path you provided is not valid: %v", ErrInvalid, d.name, err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("%w: the %s path %q is not a directory", ErrInvalid, d.name, d.path)
		}
	}
	return nil
}
