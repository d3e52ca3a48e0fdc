package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hzbd/imagekit/internal/batch"
	"github.com/hzbd/imagekit/internal/fontchain"
	"github.com/hzbd/imagekit/internal/geometry"
	"github.com/hzbd/imagekit/internal/hexcolor"
	"github.com/hzbd/imagekit/internal/pipeline"
	"github.com/hzbd/imagekit/internal/watermark"
)

// options is the fully resolved run configuration, merged from flags and
// the optional config file.
type options struct {
	inputDir  string
	outputDir string
	width     int
	height    int
	text      string
	position  string
	fontSize  int
	colorHex  string
	quality   int
	fonts     []string
	workers   int
}

func optionsFromViper() options {
	return options{
		inputDir:  viper.GetString("input_dir"),
		outputDir: viper.GetString("output_dir"),
		width:     viper.GetInt("width"),
		height:    viper.GetInt("height"),
		text:      viper.GetString("watermark.text"),
		position:  viper.GetString("watermark.position"),
		fontSize:  viper.GetInt("watermark.font_size"),
		colorHex:  viper.GetString("watermark.color"),
		quality:   viper.GetInt("quality"),
		fonts:     viper.GetStringSlice("watermark.fonts"),
		workers:   viper.GetInt("workers"),
	}
}

func (o options) validate() error {
	if o.inputDir == "" {
		return errors.New("--input-dir is required")
	}
	if o.outputDir == "" {
		return errors.New("--output-dir is required")
	}
	info, err := os.Stat(o.inputDir)
	if err != nil {
		return fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path %s is not a directory", o.inputDir)
	}
	if o.width < 0 || o.height < 0 {
		return errors.New("--width and --height must not be negative")
	}
	if o.quality < 1 || o.quality > 100 {
		return fmt.Errorf("--quality must be between 1 and 100, got %d", o.quality)
	}
	if o.text != "" && o.fontSize < 1 {
		return fmt.Errorf("--font-size must be at least 1, got %d", o.fontSize)
	}
	return nil
}

// runBatch is the root command: validate inputs, build the shared pipeline
// configuration and drive the batch. Per-file failures are reported in the
// summary and do not fail the command; only a broken run configuration or a
// failed traversal does.
func runBatch(cmd *cobra.Command, args []string) error {
	opts := optionsFromViper()
	if err := opts.validate(); err != nil {
		return err
	}

	var comp *watermark.Compositor
	if opts.text != "" {
		pos, err := watermark.ParsePosition(opts.position)
		if err != nil {
			return err
		}
		col, err := hexcolor.Parse(opts.colorHex)
		if err != nil {
			return fmt.Errorf("watermark color: %w", err)
		}
		chain, err := loadFonts(opts.fonts)
		if err != nil {
			return err
		}
		comp = watermark.NewCompositor(watermark.Spec{
			Text:     opts.text,
			Position: pos,
			FontSize: opts.fontSize,
			Color:    col,
		}, chain)
	}

	pipe := pipeline.New(
		geometry.ResizeSpec{Width: opts.width, Height: opts.height},
		comp,
		opts.quality,
		logger,
	)
	orch := batch.New(opts.inputDir, opts.outputDir, opts.workers, pipe, logger)

	results, err := orch.Run()
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), batch.Summarize(results))
	return nil
}

// loadFonts reads the operator-supplied font files in priority order. With
// none given the embedded Go Regular face is the whole chain. A named font
// that cannot be read or parsed aborts the run; every job would fail the
// same way.
func loadFonts(paths []string) (*fontchain.Chain, error) {
	if len(paths) == 0 {
		return fontchain.Default(), nil
	}
	sources := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", p, err)
		}
		sources = append(sources, data)
	}
	return fontchain.Load(sources, paths)
}

func printSummary(w io.Writer, s batch.Summary) {
	if s.Succeeded+s.Failed == 0 {
		fmt.Fprintln(w, "No images found.")
		return
	}
	color.New(color.FgGreen).Fprintf(w, "Processed %d image(s)\n", s.Succeeded)
	if s.Failed > 0 {
		color.New(color.FgRed).Fprintf(w, "Failed %d image(s):\n", s.Failed)
		for _, r := range s.Failures {
			fmt.Fprintf(w, "  %s: %s: %v\n", r.Job.InputPath, r.Kind, r.Err)
		}
	}
}
