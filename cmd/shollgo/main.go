package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shollgo",
	Short: "A CLI tool for Sholl and polar analysis of traced neuronal arbors",
	Long: `shollgo samples a traced reconstruction (SWC) with concentric shells
around a chosen center and reports the radial profile of intersection
counts, cable length and volume, plus the angular distribution of the
arbor with circular statistics and peak detection.`,
	Version: "1.0.0",
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "shollgo.yaml", "Path to YAML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
