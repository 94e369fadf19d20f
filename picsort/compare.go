package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/artyom/picsort/edgecmp"
)

var compareCmd = &cobra.Command{
	Use:   "compare SOURCE COMPARISON",
	Short: "Compare two images by their edges",
	Long: `Compare two images by sampling the edges of the first and looking for
them in the second. Both images are scaled to the same size first.

Examples:
  picsort compare a.jpg b.jpg
  picsort compare a.jpg b.jpg --match 80 --radius 5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmp, err := comparatorFromFlags(cmd)
		if err != nil {
			return err
		}
		res, err := cmp.CompareFiles(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(res)
		if res.Match {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s %s and %s match\n", green("✓"), args[0], args[1])
		} else {
			fmt.Printf("%s and %s differ\n", args[0], args[1])
		}
		return nil
	},
}

func init() {
	addCompareFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}

func addCompareFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("match", edgecmp.DefaultMatchPercent, "percentage of sampled edges that must match")
	f.Int("line", edgecmp.DefaultLineThreshold, "intensity at which a pixel counts as an edge")
	f.Int("sample", edgecmp.DefaultSamplePercent, "percentage of edge pixels to sample")
	f.Int("radius", edgecmp.DefaultNearMatchRadius, "distance searched around a missed edge pixel")
	f.Int("scale", edgecmp.DefaultScalePercent, "percentage the source is scaled to before comparing")
}

// comparatorFromFlags starts from the settings file's [compare] table and
// applies any flags given.
func comparatorFromFlags(cmd *cobra.Command) (*edgecmp.Comparator, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	cfg, err := s.Compare.Config()
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	var opts []edgecmp.Option
	for name, opt := range map[string]func(int) edgecmp.Option{
		"match":  edgecmp.WithMatchPercent,
		"line":   edgecmp.WithLineThreshold,
		"sample": edgecmp.WithSamplePercent,
		"radius": edgecmp.WithNearMatchRadius,
		"scale":  edgecmp.WithScalePercent,
	} {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetInt(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt(v))
	}
	if cfg, err = cfg.With(opts...); err != nil {
		return nil, err
	}
	return edgecmp.New(cfg, nil)
}
