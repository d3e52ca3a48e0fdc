// Package cli contains the imagekit command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	logger  zerolog.Logger
	version = "dev"
)

// rootCmd is the base command; imagekit is single-purpose, so the batch run
// lives on the root itself.
var rootCmd = &cobra.Command{
	Use:   "imagekit",
	Short: "Batch image resize and watermark tool",
	Long: `imagekit batch-transforms a directory tree of images: every supported
file is resized, optionally stamped with a text watermark, re-encoded and
written to the mirrored path under the output directory.

Supported formats: jpg, jpeg, png, gif, bmp, webp (webp is read-only and is
written out as png).

Example usage:
  imagekit -i ./photos -o ./resized --width 1000
  imagekit -i ./photos -o ./branded --watermark-text "(c) example.com" \
      --watermark-position se --watermark-color FFFFFF80 --font-size 24`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: runBatch,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .imagekit.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().StringP("input-dir", "i", "", "input directory containing images to process (required)")
	rootCmd.Flags().StringP("output-dir", "o", "", "output directory for processed images (required)")
	rootCmd.Flags().Int("width", 0, "target width in pixels (height derived when unset)")
	rootCmd.Flags().Int("height", 0, "target height in pixels (width derived when unset)")
	rootCmd.Flags().String("watermark-text", "", "watermark text; empty disables watermarking")
	rootCmd.Flags().String("watermark-position", "se", "watermark position: nw, north, ne, west, center, east, sw, south, se")
	rootCmd.Flags().Int("font-size", 24, "watermark font size in pixels (upper bound; auto-shrunk to fit)")
	rootCmd.Flags().String("watermark-color", "FFFFFF80", "watermark color as RRGGBB or RRGGBBAA hex")
	rootCmd.Flags().Int("quality", 85, "JPEG output quality (1-100)")
	rootCmd.Flags().StringSlice("font", nil, "font file (.ttf/.otf); repeatable, priority order for script fallback")
	rootCmd.Flags().Int("workers", 0, "concurrent workers (default: number of CPUs)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("input_dir", rootCmd.Flags().Lookup("input-dir"))
	_ = viper.BindPFlag("output_dir", rootCmd.Flags().Lookup("output-dir"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("height", rootCmd.Flags().Lookup("height"))
	_ = viper.BindPFlag("watermark.text", rootCmd.Flags().Lookup("watermark-text"))
	_ = viper.BindPFlag("watermark.position", rootCmd.Flags().Lookup("watermark-position"))
	_ = viper.BindPFlag("watermark.font_size", rootCmd.Flags().Lookup("font-size"))
	_ = viper.BindPFlag("watermark.color", rootCmd.Flags().Lookup("watermark-color"))
	_ = viper.BindPFlag("watermark.fonts", rootCmd.Flags().Lookup("font"))
	_ = viper.BindPFlag("quality", rootCmd.Flags().Lookup("quality"))
	_ = viper.BindPFlag("workers", rootCmd.Flags().Lookup("workers"))
}

// initConfig sets up the logger and reads the optional config file.
func initConfig() error {
	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		viper.SetConfigName(".imagekit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		var notFound viper.ConfigFileNotFoundError
		if err := viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debug().Str("config", f).Msg("configuration loaded")
	}
	return nil
}
