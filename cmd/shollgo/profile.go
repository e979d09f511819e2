package main

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"shollgo/internal/swc"
	"shollgo/pkg/arbor"
	"shollgo/pkg/config"
	"shollgo/pkg/sampler"
)

var (
	stepSize   float64
	centerName string
	customX    float64
	customY    float64
	customZ    float64
	skipSoma   bool
	withVolume bool
	trimZeros  bool
)

var profileCmd = &cobra.Command{
	Use:   "profile [file]",
	Short: "Compute the radial shell profile of a reconstruction",
	Long: `Sample the reconstruction with concentric shells and print one row per
shell: radius, intersection count, cable length and (optionally) cable
volume. A step size of 0 selects continuous sampling with one entry per
node distance.`,
	Args: cobra.ExactArgs(1),
	Run:  runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().Float64Var(&stepSize, "step", -1, "Shell step size (0 = continuous; negative = use config)")
	profileCmd.Flags().StringVar(&centerName, "center", "", "Center strategy (any, soma, soma-any, axon, dendrite, apical-dendrite, undefined, custom)")
	profileCmd.Flags().Float64Var(&customX, "cx", 0, "X coordinate of explicit center")
	profileCmd.Flags().Float64Var(&customY, "cy", 0, "Y coordinate of explicit center")
	profileCmd.Flags().Float64Var(&customZ, "cz", 0, "Z coordinate of explicit center")
	profileCmd.Flags().BoolVar(&skipSoma, "skip-soma", false, "Skip segments leaving a single-point soma root")
	profileCmd.Flags().BoolVar(&withVolume, "volume", false, "Record frustum-based cable volume per shell")
	profileCmd.Flags().BoolVar(&trimZeros, "trim-zeros", false, "Drop leading and trailing zero-count entries before printing")

	profileCmd.MarkFlagsRequiredTogether("cx", "cy", "cz")
}

func runProfile(cmd *cobra.Command, args []string) {
	s, err := buildSampler(cmd, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := s.Parse(); err != nil {
		fmt.Fprintf(os.Stderr, "Error sampling reconstruction: %v\n", err)
		os.Exit(1)
	}

	prof := s.Profile()
	if trimZeros {
		prof.TrimZeroCounts()
	}

	fmt.Println("Shell Profile")
	fmt.Println("=============")
	fmt.Printf("Reconstruction: %s\n", prof.Identifier())
	if c, ok := prof.Center(); ok {
		fmt.Printf("Center: (%.4f, %.4f, %.4f)\n", c.X, c.Y, c.Z)
	}
	fmt.Printf("Dimensions: %dD\n", prof.Dimensions())
	fmt.Printf("Entries: %d\n", prof.Size())
	fmt.Printf("Radial range: %.4f to %.4f\n", prof.StartRadius(), prof.EndRadius())
	fmt.Printf("Effective step size: %.4f\n\n", prof.EffectiveStepSize())

	if withVolume {
		fmt.Printf("%12s %8s %12s %12s\n", "radius", "count", "length", "volume")
	} else {
		fmt.Printf("%12s %8s %12s\n", "radius", "count", "length")
	}
	for _, e := range prof.Entries() {
		if withVolume {
			fmt.Printf("%12.4f %8.0f %12.4f %12.4f\n", e.Radius, e.Count, e.Length, e.Extra)
		} else {
			fmt.Printf("%12.4f %8.0f %12.4f\n", e.Radius, e.Count, e.Length)
		}
	}

	fmt.Printf("\nMax count: %.0f\n", prof.MaxCount())
	fmt.Printf("Zero-count entries: %d\n", prof.ZeroCounts())
}

// buildSampler loads the configuration, reads the reconstruction and
// applies all settings, with command-line flags overriding the file.
func buildSampler(cmd *cobra.Command, filename string) (*sampler.Sampler, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("step") {
		cfg.Sampling.StepSize = stepSize
	}
	if cmd.Flags().Changed("center") {
		cfg.Sampling.Center = centerName
	}
	if cmd.Flags().Changed("skip-soma") {
		cfg.Sampling.SkipSomaticSegments = skipSoma
	}
	if cmd.Flags().Changed("volume") {
		cfg.Sampling.IncludeVolume = withVolume
	}

	tree, err := swc.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	s := sampler.New(tree)
	if cmd.Flags().Changed("cx") {
		if err := s.SetCenter(centerPoint()); err != nil {
			return nil, err
		}
	} else {
		strategy, err := cfg.CenterStrategy()
		if err != nil {
			return nil, err
		}
		if err := s.SetCenterStrategy(strategy); err != nil {
			return nil, err
		}
	}
	if err := s.SetStepSize(math.Max(cfg.Sampling.StepSize, 0)); err != nil {
		return nil, err
	}
	if err := s.SetSkipSomaticSegments(cfg.Sampling.SkipSomaticSegments); err != nil {
		return nil, err
	}
	if err := s.SetIncludeVolume(cfg.Sampling.IncludeVolume); err != nil {
		return nil, err
	}
	if cfg.Sampling.GroupingScale > 0 {
		if err := s.SetGroupingScale(cfg.Sampling.GroupingScale); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func centerPoint() arbor.Point {
	return arbor.Point{X: customX, Y: customY, Z: customZ}
}
