package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shollgo/pkg/config"
	"shollgo/pkg/polar"
)

var (
	angleStep   float64
	dataMode    string
	uniformFill bool
	maxPeaks    int
	minProm     float64
	showMatrix  bool
)

var polarCmd = &cobra.Command{
	Use:   "polar [file]",
	Short: "Compute the angular distribution and circular statistics",
	Long: `Bin the sampled intersections (or cable length) of a reconstruction
into angular sectors and report coherence, preferred direction and
orientation, circular peaks and von Mises fits.`,
	Args: cobra.ExactArgs(1),
	Run:  runPolar,
}

func init() {
	rootCmd.AddCommand(polarCmd)

	polarCmd.Flags().Float64Var(&angleStep, "angle-step", -1, "Angular bin width in degrees (must divide 360; negative = use config)")
	polarCmd.Flags().StringVar(&dataMode, "mode", "", "Distributed quantity: intersections or length")
	polarCmd.Flags().BoolVar(&uniformFill, "uniform-fallback", false, "Spread entries without located points evenly across bins")
	polarCmd.Flags().IntVar(&maxPeaks, "max-peaks", 0, "Maximum number of reported peaks (0 = no cap)")
	polarCmd.Flags().Float64Var(&minProm, "min-prominence", polar.AutoProminence, "Peak prominence threshold (negative = data-driven)")
	polarCmd.Flags().BoolVar(&showMatrix, "matrix", false, "Print the full radius-by-angle matrix")

	polarCmd.Flags().Float64Var(&stepSize, "step", -1, "Shell step size (0 = continuous; negative = use config)")
	polarCmd.Flags().StringVar(&centerName, "center", "", "Center strategy (any, soma, soma-any, axon, dendrite, apical-dendrite, undefined, custom)")
	polarCmd.Flags().BoolVar(&skipSoma, "skip-soma", false, "Skip segments leaving a single-point soma root")
}

func runPolar(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cmd.Flags().Changed("angle-step") {
		cfg.Polar.AngleStep = angleStep
	}
	if cmd.Flags().Changed("mode") {
		cfg.Polar.DataMode = dataMode
	}
	if cmd.Flags().Changed("uniform-fallback") {
		cfg.Polar.AllowUniformFallback = uniformFill
	}
	if cmd.Flags().Changed("max-peaks") {
		cfg.Peaks.MaxPeaks = maxPeaks
	}
	if cmd.Flags().Changed("min-prominence") {
		cfg.Peaks.MinProminence = minProm
	}

	s, err := buildSampler(cmd, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := s.Parse(); err != nil {
		fmt.Fprintf(os.Stderr, "Error sampling reconstruction: %v\n", err)
		os.Exit(1)
	}

	mode, err := cfg.PolarDataMode()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	an, err := polar.NewAnalyzer(s.Profile(), mode, cfg.Polar.AngleStep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	an.SetAllowUniformFallback(cfg.Polar.AllowUniformFallback)

	rep, err := an.Report()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing distribution: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Polar Analysis")
	fmt.Println("==============")
	fmt.Printf("Reconstruction: %s\n", s.Profile().Identifier())
	fmt.Printf("Data mode: %s\n", an.DataMode())
	fmt.Printf("Angle step: %.1f degrees (%d bins)\n\n", an.AngleStep(), an.BinCount())

	fmt.Println("Angular distribution:")
	dist, err := an.AngularDistribution()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	centers := an.BinCenters()
	for i, v := range dist {
		fmt.Printf("  %6.1f deg: %10.4f\n", centers[i], v)
	}

	fmt.Printf("\nCoherence:\n")
	fmt.Printf("  ADC: %.4f\n", rep.ADC)
	fmt.Printf("  ODC: %.4f\n", rep.ODC)
	fmt.Printf("Preferred direction: %.2f degrees\n", rep.PreferredDirection)
	fmt.Printf("Preferred orientation: %.2f degrees\n", rep.PreferredOrientation)

	peaks, err := an.DirectionPeaksBand(s.Profile().StartRadius(), s.Profile().EndRadius(), peakCap(cfg), cfg.Peaks.MinProminence)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error detecting peaks: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDirectional peaks: %d\n", len(peaks))
	for _, p := range peaks {
		fmt.Printf("  %6.1f deg (height %.4f)\n", p.AngleDeg, p.Value)
	}

	if rep.DirectionalFit != nil {
		fmt.Printf("\nDirectional von Mises fit: mu=%.2f deg, kappa=%.3f, rbar=%.4f\n",
			rep.DirectionalFit.MuDeg, rep.DirectionalFit.Kappa, rep.DirectionalFit.RBar)
	}
	if rep.AxialFit != nil {
		fmt.Printf("Axial von Mises fit: mu=%.2f deg, kappa=%.3f, rbar=%.4f\n",
			rep.AxialFit.MuDeg, rep.AxialFit.Kappa, rep.AxialFit.RBar)
	}

	fmt.Printf("\nSummary: %s\n", rep)

	if showMatrix {
		m, err := an.Matrix()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\nRadius-by-angle matrix:")
		radii := s.Profile().Radii()
		for i, row := range m {
			fmt.Printf("  r=%10.4f:", radii[i])
			for _, v := range row {
				fmt.Printf(" %8.3f", v)
			}
			fmt.Println()
		}
	}
}

// peakCap translates the config cap (0 means unlimited) into the
// analyzer's convention.
func peakCap(cfg *config.Config) int {
	if cfg.Peaks.MaxPeaks <= 0 {
		return int(^uint(0) >> 1)
	}
	return cfg.Peaks.MaxPeaks
}
