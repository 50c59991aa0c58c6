package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "mudra",
	Short: "Hand gesture media control",
	Long: `Mudra watches the webcam for hand postures and turns them into
player shortcuts for YouTube or OTT players. Leaving the frame pauses
playback.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./mudra.yaml or ~/.mudra/mudra.yaml)")
	flags.String("mode", "youtube", "Player mode: youtube or ott")
	flags.Int("confirm-threshold", 3, "Repeats of a gesture needed before it fires")
	flags.Float64("cooldown", 1.0, "Minimum seconds between two actions")
	flags.Int("hand-limit", 1, "Maximum hands tracked per frame")
	flags.Int("camera", 0, "Camera device index")
	flags.Bool("no-mirror", false, "Do not mirror frames")
	flags.String("face-cascade", "", "Haar cascade XML for local face detection")
	flags.String("plugin-dir", "", "Directory holding the keyboard plugin")
	flags.Bool("dry-run", false, "Log actions instead of sending keystrokes")
	flags.String("db", "", "Session journal database path")
	flags.String("log-level", "info", "Log level")
	flags.String("log-file", "", "Also write logs to this file, rotated")
}
