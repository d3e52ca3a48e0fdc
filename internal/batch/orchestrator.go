// Package batch discovers image files under an input root, mirrors their
// relative paths into an output root and drives the per-image pipeline
// across a bounded worker pool. One file's failure never affects another;
// the run as a whole succeeds as long as the traversal itself did.
package batch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hzbd/imagekit/internal/pipeline"
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// Orchestrator runs one batch over a file tree.
type Orchestrator struct {
	inputDir  string
	outputDir string
	workers   int
	pipe      *pipeline.Pipeline
	log       zerolog.Logger
}

// New builds an orchestrator. workers <= 0 selects one worker per CPU.
func New(inputDir, outputDir string, workers int, pipe *pipeline.Pipeline, log zerolog.Logger) *Orchestrator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Orchestrator{inputDir: inputDir, outputDir: outputDir, workers: workers, pipe: pipe, log: log}
}

// Run enumerates the input tree and processes every supported file,
// returning one Result per job. The returned error covers the traversal
// only; per-file failures live in the results.
func (o *Orchestrator) Run() ([]pipeline.Result, error) {
	jobs, err := o.discover()
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		o.log.Info().Str("dir", o.inputDir).Msg("no images found in input directory")
		return nil, nil
	}
	o.log.Info().Int("count", len(jobs)).Int("workers", o.workers).Msg("processing images")

	results := make([]pipeline.Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(o.workers)
	for i := range jobs {
		i := i
		g.Go(func() error {
			results[i] = o.pipe.Process(jobs[i])
			if r := results[i]; !r.OK() {
				o.log.Error().Err(r.Err).Str("path", r.Job.InputPath).Str("reason", string(r.Kind)).Msg("job failed")
			}
			return nil
		})
	}
	// Workers never return errors; failures are job-local results.
	_ = g.Wait()
	return results, nil
}

// discover walks the input root and builds one Job per supported file, with
// the output path mirroring the input's relative path.
func (o *Orchestrator) discover() ([]pipeline.Job, error) {
	var jobs []pipeline.Job
	err := filepath.WalkDir(o.inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(o.inputDir, path)
		if err != nil {
			return err
		}
		jobs = append(jobs, pipeline.Job{
			InputPath:  path,
			OutputPath: filepath.Join(o.outputDir, mirrorName(rel)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan input directory %s: %w", o.inputDir, err)
	}
	return jobs, nil
}

// mirrorName keeps the relative path and extension as-is, except for WebP:
// no encoder is available for it, so WebP inputs are written out as
// lossless PNG.
func mirrorName(rel string) string {
	if strings.EqualFold(filepath.Ext(rel), ".webp") {
		return strings.TrimSuffix(rel, filepath.Ext(rel)) + ".png"
	}
	return rel
}

// Summary aggregates a result set for reporting.
type Summary struct {
	Succeeded int
	Failed    int
	Failures  []pipeline.Result
}

// Summarize splits results into success and failure counts.
func Summarize(results []pipeline.Result) Summary {
	var s Summary
	for _, r := range results {
		if r.OK() {
			s.Succeeded++
		} else {
			s.Failed++
			s.Failures = append(s.Failures, r)
		}
	}
	return s
}
