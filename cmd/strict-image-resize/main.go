package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"github.com/yuya-takeyama/strict-image-resize/internal/watcher"
	"github.com/yuya-takeyama/strict-image-resize/pkg/config"
	"github.com/yuya-takeyama/strict-image-resize/pkg/errs"
	"github.com/yuya-takeyama/strict-image-resize/pkg/logger"
	"github.com/yuya-takeyama/strict-image-resize/pkg/pipeline"
	"github.com/yuya-takeyama/strict-image-resize/pkg/publisher"
	"github.com/yuya-takeyama/strict-image-resize/pkg/s3client"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

var (
	configFile      string
	sizes           []string
	exts            []string
	excludes        []string
	concurrency     int
	dryRun          bool
	quiet           bool
	verbose         bool
	jpegQuality     int
	webpQuality     int
	animatedCommand string
	s3URI           string
	profile         string
	region          string
	planJSONFile    string
	resultJSONFile  string
	watch           bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "strict-image-resize [<InputDir> <OutputDir>]",
		Short: "Incremental multi-resolution image resizer",
		Long: `strict-image-resize mirrors an image tree into an output tree, writing one
derivative per configured width plus a full-size copy, and only re-renders
inputs that are newer than their outputs.`,
		Version: fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:    cobra.MaximumNArgs(2),
		RunE:    run,
	}

	rootCmd.Flags().StringVar(&configFile, "config", "", "Path to YAML config file")
	rootCmd.Flags().StringSliceVar(&sizes, "sizes", nil, "Output widths, e.g. 500,1000 (empty for full-size copies only)")
	rootCmd.Flags().StringSliceVar(&exts, "ext", nil, "Input extensions (default jpg,webp,png,jpeg,gif)")
	rootCmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Maximum concurrent operations (0 for unbounded)")
	rootCmd.Flags().BoolVar(&dryRun, "dryrun", false, "Shows operations without executing")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress non-error output")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Also print skipped files and debug messages")
	rootCmd.Flags().IntVar(&jpegQuality, "jpeg-quality", 0, "JPEG encoding quality (1-100)")
	rootCmd.Flags().IntVar(&webpQuality, "webp-quality", 0, "WebP encoding quality (1-100)")
	rootCmd.Flags().StringVar(&animatedCommand, "animated-command", "", "Command used to resize animated images (default gifsicle)")
	rootCmd.Flags().StringVar(&s3URI, "s3-uri", "", "Also upload rendered outputs to this S3 URI (s3://bucket/prefix)")
	rootCmd.Flags().StringVar(&profile, "profile", "", "AWS profile to use")
	rootCmd.Flags().StringVar(&region, "region", "", "AWS region (uses default if not specified)")
	rootCmd.Flags().StringVar(&planJSONFile, "plan-json-file", "", "Path to output plan as JSON file")
	rootCmd.Flags().StringVar(&resultJSONFile, "result-json-file", "", "Path to output result as JSON file")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "Keep running and re-render when the input tree changes")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type target struct {
	bucket string
	prefix string
	pub    *publisher.Publisher
}

func run(cmd *cobra.Command, args []string) error {
	opts, uri, err := buildOptions(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderLogger := &logger.RenderLogger{
		IsDryRun: dryRun,
		IsQuiet:  quiet,
		Verbose:  verbose,
	}
	opts.Logger = renderLogger

	var dest *target
	if uri != "" {
		bucket, prefix, err := s3client.ParseS3URI(uri)
		if err != nil {
			return err
		}

		// Build config options
		var configOpts []func(*awsconfig.LoadOptions) error
		if profile != "" {
			configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(profile))
		}
		if region != "" {
			configOpts = append(configOpts, awsconfig.WithRegion(region))
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}

		dest = &target{
			bucket: bucket,
			prefix: prefix,
			pub:    publisher.NewPublisher(s3client.NewAWSClient(cfg), renderLogger, opts.Concurrency),
		}
	}

	err = runOnce(ctx, opts, dest, renderLogger)
	if !watch {
		return err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	watchExts := opts.Exts
	if watchExts == nil {
		watchExts = pipeline.DefaultExts
	}
	w, err := watcher.NewWatcher(opts.InputDir, watchExts, opts.OutputDir)
	if err != nil {
		return err
	}
	defer w.Close()

	renderLogger.Debug(fmt.Sprintf("watching %s", opts.InputDir))
	return w.Run(ctx, func(ctx context.Context) error {
		return runOnce(ctx, opts, dest, renderLogger)
	})
}

func runOnce(ctx context.Context, opts pipeline.Options, dest *target, log *logger.RenderLogger) error {
	start := time.Now()

	report, err := pipeline.Run(ctx, opts)
	if report == nil {
		return err
	}
	if err != nil && !errors.Is(err, errs.ErrProbe) && !errors.Is(err, errs.ErrRender) {
		// aborted after planning
		return err
	}

	if planJSONFile != "" {
		if err := writePlanResult(planJSONFile, report); err != nil {
			return fmt.Errorf("failed to write plan JSON: %w", err)
		}
	}

	var uploads []publisher.Result
	if dest != nil {
		if dryRun {
			for _, task := range report.Stale {
				for _, out := range task.Outputs {
					log.Upload(out.Path, formatS3Path(dest.bucket, uploadKey(opts.OutputDir, dest.prefix, out.Path)))
				}
			}
		} else {
			uploads = dest.pub.Publish(ctx, opts.OutputDir, dest.bucket, dest.prefix, renderedPaths(report))
		}
	}

	result := buildSyncResult(report, uploads, dest)
	if resultJSONFile != "" && !dryRun {
		if err := writeSyncResult(resultJSONFile, result); err != nil {
			return fmt.Errorf("failed to write result JSON: %w", err)
		}
	}

	failed := result.Summary.Failed
	if !quiet || failed > 0 {
		logger.PrintSummary(os.Stdout, logger.Summary{
			Files:    len(report.Tasks),
			Stale:    len(report.Stale),
			Rendered: result.Summary.Rendered,
			Uploaded: result.Summary.Uploaded,
			Failed:   failed,
			Duration: time.Since(start),
		})
	}

	if failed > 0 {
		return fmt.Errorf("%d operations failed", failed)
	}
	return nil
}

// buildOptions merges the config file, positional arguments and flags, in
// increasing order of precedence.
func buildOptions(cmd *cobra.Command, args []string) (pipeline.Options, string, error) {
	var opts pipeline.Options
	uri := ""

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return opts, "", err
		}
		opts = pipeline.Options{
			InputDir:        cfg.InputDir,
			OutputDir:       cfg.OutputDir,
			OutputSizes:     config.NormalizedSizes(cfg.OutputSizes),
			Exts:            cfg.Exts,
			Excludes:        cfg.Excludes,
			Concurrency:     cfg.Concurrency,
			JPEGQuality:     cfg.JPEGQuality,
			WebPQuality:     cfg.WebPQuality,
			AnimatedCommand: cfg.AnimatedCommand,
		}
		uri = cfg.S3URI
	}

	switch len(args) {
	case 0:
	case 2:
		opts.InputDir = args[0]
		opts.OutputDir = args[1]
	default:
		return opts, "", fmt.Errorf("both <InputDir> and <OutputDir> must be given")
	}

	flags := cmd.Flags()
	if flags.Changed("sizes") {
		parsed, err := parseSizes(sizes)
		if err != nil {
			return opts, "", err
		}
		opts.OutputSizes = parsed
	}
	if flags.Changed("ext") {
		opts.Exts = exts
	}
	if flags.Changed("exclude") {
		opts.Excludes = excludes
	}
	if flags.Changed("concurrency") {
		opts.Concurrency = concurrency
	}
	if flags.Changed("jpeg-quality") {
		opts.JPEGQuality = jpegQuality
	}
	if flags.Changed("webp-quality") {
		opts.WebPQuality = webpQuality
	}
	if flags.Changed("animated-command") {
		opts.AnimatedCommand = animatedCommand
	}
	if flags.Changed("s3-uri") {
		uri = s3URI
	}
	opts.DryRun = dryRun

	if err := opts.Validate(); err != nil {
		return opts, "", err
	}
	return opts, uri, nil
}

// parseSizes turns the --sizes values into widths. An empty list is valid and
// means full-size copies only.
func parseSizes(values []string) ([]int, error) {
	out := make([]int, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errs.Configf("invalid output size %q", v)
		}
		out = append(out, n)
	}
	if err := config.ValidateSizes(out); err != nil {
		return nil, errs.Configf("%v", err)
	}
	return config.NormalizedSizes(out), nil
}
