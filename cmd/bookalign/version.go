package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// versionString is overridden at build time via -ldflags "-X main.versionString=...".
var versionString = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bookalign %s\n", versionString)
		fmt.Printf("  Go: %s\n", runtime.Version())
	},
}
