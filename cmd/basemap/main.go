// Command basemap renders maps described by YAML specs and manages the
// dataset cache.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "basemap",
	Short: "Draw geographic data onto projected map images",
	Long: `basemap renders coastlines, borders, filled land and water, contours,
and wind barbs onto projected map images. Vector datasets (Natural Earth
and Census cartographic boundaries) download on first use and are cached
under the user cache directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the console logger shared by the subcommands.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
