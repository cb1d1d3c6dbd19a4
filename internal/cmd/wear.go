package cmd

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/MeKo-Tech/wsm/internal/history"
	"github.com/MeKo-Tech/wsm/internal/noise"
	"github.com/MeKo-Tech/wsm/internal/pipeline"
	"github.com/MeKo-Tech/wsm/internal/wear"
	"github.com/MeKo-Tech/wsm/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// seedStride separates the point distributions of images in one batch.
const seedStride = 1000

var wearCmd = &cobra.Command{
	Use:   "wear <image> [image...]",
	Short: "Wear one or more textures",
	Long: `Scatter erosion points over each image and fade its alpha with layered noise.

Modes:
  default              wear the texture
  --debug              visualise noise (green), points (red) and eroded pixels (blue)
  --transparency-test  replace the image with a white horizontal alpha ramp
  --set-black          paint every pixel opaque black before the selected mode`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWear,
}

func init() {
	rootCmd.AddCommand(wearCmd)

	// Modes
	wearCmd.Flags().BoolP("debug", "d", false, "Show noise, points and erosion instead of wearing")
	wearCmd.Flags().BoolP("transparency-test", "t", false, "Write a horizontal alpha ramp")
	wearCmd.Flags().BoolP("set-black", "s", false, "Paint the image opaque black first")

	// Processor tuning
	wearCmd.Flags().Int64("seed", 0, "Seed for noise and erosion points (0 derives one from the clock)")
	wearCmd.Flags().Int("point-frequency", wear.DefaultPointFrequency, "One erosion point per this many pixels")
	wearCmd.Flags().Int("min-radius", wear.DefaultMinRadius, "Minimum erosion radius (inclusive)")
	wearCmd.Flags().Int("max-radius", wear.DefaultMaxRadius, "Maximum erosion radius (exclusive)")
	wearCmd.Flags().Float64("noise-division", wear.DefaultNoiseDivision, "Pixel to noise coordinate divisor")
	wearCmd.Flags().Float64("resolution-division", wear.DefaultResolutionDivision, "Image side that samples noise at scale 1")
	wearCmd.Flags().Bool("simple", false, "Disable resolution scaling and darkening")
	wearCmd.Flags().String("noise", string(noise.KindOpenSimplex), "Noise backend (opensimplex, perlin, simplex)")
	wearCmd.Flags().Float64("soften", 0, "Gaussian sigma applied to the worn alpha channel (0 disables)")

	// Batch and output
	wearCmd.Flags().IntP("workers", "w", 0, "Images processed in parallel (default: number of CPUs)")
	wearCmd.Flags().Int("image-workers", 0, "Rows processed in parallel per image (default: number of CPUs)")
	wearCmd.Flags().Bool("progress", true, "Show progress bar when wearing several images")
	wearCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some images fail")
	wearCmd.Flags().String("output-dir", "", "Write results here instead of overwriting the input")
	wearCmd.Flags().String("suffix", "", "Suffix appended to the output file name (e.g. _worn)")
	wearCmd.Flags().String("ext", "", "Output extension, selecting the encoder (png, jpg, bmp, tiff)")
	wearCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"wear.debug", "debug"},
		{"wear.transparency_test", "transparency-test"},
		{"wear.set_black", "set-black"},
		{"wear.seed", "seed"},
		{"wear.point_frequency", "point-frequency"},
		{"wear.min_radius", "min-radius"},
		{"wear.max_radius", "max-radius"},
		{"wear.noise_division", "noise-division"},
		{"wear.resolution_division", "resolution-division"},
		{"wear.simple", "simple"},
		{"wear.noise", "noise"},
		{"wear.soften", "soften"},
		{"wear.workers", "workers"},
		{"wear.image_workers", "image-workers"},
		{"wear.progress", "progress"},
		{"wear.allow_failures", "allow-failures"},
		{"wear.output_dir", "output-dir"},
		{"wear.suffix", "suffix"},
		{"wear.ext", "ext"},
		{"wear.png_compression", "png-compression"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, wearCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// wearSettings is the resolved configuration of one wear invocation.
type wearSettings struct {
	debug            bool
	transparencyTest bool
	setBlack         bool

	seed               int64
	pointFrequency     int
	minRadius          int
	maxRadius          int
	noiseDivision      float64
	resolutionDivision float64
	simple             bool
	noise              string
	soften             float64

	workers        int
	imageWorkers   int
	progress       bool
	allowFailures  bool
	outputDir      string
	suffix         string
	ext            string
	pngCompression string
	historyPath    string
}

func loadWearSettings() wearSettings {
	return wearSettings{
		debug:              viper.GetBool("wear.debug"),
		transparencyTest:   viper.GetBool("wear.transparency_test"),
		setBlack:           viper.GetBool("wear.set_black"),
		seed:               viper.GetInt64("wear.seed"),
		pointFrequency:     viper.GetInt("wear.point_frequency"),
		minRadius:          viper.GetInt("wear.min_radius"),
		maxRadius:          viper.GetInt("wear.max_radius"),
		noiseDivision:      viper.GetFloat64("wear.noise_division"),
		resolutionDivision: viper.GetFloat64("wear.resolution_division"),
		simple:             viper.GetBool("wear.simple"),
		noise:              viper.GetString("wear.noise"),
		soften:             viper.GetFloat64("wear.soften"),
		workers:            viper.GetInt("wear.workers"),
		imageWorkers:       viper.GetInt("wear.image_workers"),
		progress:           viper.GetBool("wear.progress"),
		allowFailures:      viper.GetBool("wear.allow_failures"),
		outputDir:          viper.GetString("wear.output_dir"),
		suffix:             viper.GetString("wear.suffix"),
		ext:                viper.GetString("wear.ext"),
		pngCompression:     viper.GetString("wear.png_compression"),
		historyPath:        viper.GetString("history"),
	}
}

// processorConfig builds the wear settings shared by every image. The seed is
// filled in per image.
func (s wearSettings) processorConfig() (wear.Config, error) {
	kind, err := noise.ParseKind(s.noise)
	if err != nil {
		return wear.Config{}, err
	}

	cfg := wear.DefaultConfig(0)
	if s.simple {
		cfg = cfg.Simple()
	}
	cfg.PointFrequency = s.pointFrequency
	cfg.MinRadius = s.minRadius
	cfg.MaxRadius = s.maxRadius
	cfg.NoiseDivision = s.noiseDivision
	cfg.ResolutionDivision = s.resolutionDivision
	cfg.NoiseKind = kind

	if err := cfg.Validate(); err != nil {
		return wear.Config{}, err
	}
	return cfg, nil
}

// resolveSeed returns seed, or a clock-derived seed when seed is 0.
func resolveSeed(seed int64, now time.Time) int64 {
	if seed != 0 {
		return seed
	}
	return now.UnixNano()
}

func taskSeed(base int64, i int) int64 {
	return base + int64(i)*seedStride
}

func buildTasks(paths []string, s wearSettings, base int64) []worker.Task {
	tasks := make([]worker.Task, 0, len(paths))
	for i, p := range paths {
		tasks = append(tasks, worker.Task{
			Input:  p,
			Output: pipeline.OutputPath(p, s.outputDir, s.suffix, s.ext),
			Seed:   taskSeed(base, i),
		})
	}
	return tasks
}

func runWear(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	s := loadWearSettings()

	logger.Info("wsm creates worn textures!")

	mode, conflict := wear.ResolveMode(s.debug, s.transparencyTest)
	if conflict {
		logger.Warn("Both debug and transparency test requested, using debug")
	}

	cfg, err := s.processorConfig()
	if err != nil {
		return err
	}
	if mode == wear.ModeDebug && logger.Enabled(context.Background(), slog.LevelDebug) {
		cfg.Diagnostics = func(pos image.Point, green uint8) {
			logger.Debug("Debug pixel", "x", pos.X, "y", pos.Y, "green", green)
		}
	}

	imageWorkers := s.imageWorkers
	if imageWorkers <= 0 {
		imageWorkers = runtime.NumCPU()
	}
	wearer, err := pipeline.NewWearer(cfg, pipeline.Options{
		Apply: pipeline.ApplyOptions{
			Mode:     mode,
			SetBlack: s.setBlack,
			Workers:  imageWorkers,
		},
		Soften:         float32(s.soften),
		PNGCompression: s.pngCompression,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to init wearer: %w", err)
	}

	workers := s.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	seed := resolveSeed(s.seed, time.Now())
	tasks := buildTasks(args, s, seed)

	logger.Info("Starting wear",
		"images", len(tasks),
		"mode", mode.String(),
		"set_black", s.setBlack,
		"seed", seed,
		"noise", cfg.NoiseKind,
		"simple", s.simple,
		"workers", workers,
	)

	var store *history.Store
	if s.historyPath != "" {
		store, err = history.Open(s.historyPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close history", "path", s.historyPath, "error", err)
			}
		}()
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	progress := worker.NewProgress(len(tasks), s.progress && len(tasks) > 1)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Wearer:     wearer,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Wear failed", "input", r.Task.Input, "error", r.Err)
		} else {
			logger.Info("Image worn",
				"input", r.Task.Input,
				"output", r.Report.Output,
				"points", r.Report.Points,
				"seed", r.Report.Seed,
			)
		}
		if store != nil {
			if err := store.Add(historyRecord(r, mode, cfg)); err != nil {
				logger.Warn("Failed to record run", "input", r.Task.Input, "error", err)
			}
		}
	}

	if len(tasks) > 1 {
		logger.Info(progress.Summary())
	}

	if failedCount > 0 {
		if s.allowFailures {
			logger.Warn("Some images failed, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d of %d images failed", failedCount, len(tasks))
	}
	return nil
}

func historyRecord(r worker.Result, mode wear.Mode, cfg wear.Config) history.Record {
	rec := history.Record{
		Input:              r.Task.Input,
		Output:             r.Task.Output,
		Width:              r.Report.Width,
		Height:             r.Report.Height,
		Points:             r.Report.Points,
		Seed:               r.Task.Seed,
		Mode:               mode.String(),
		Noise:              string(cfg.NoiseKind),
		Elapsed:            r.Elapsed,
		PointFrequency:     cfg.PointFrequency,
		MinRadius:          cfg.MinRadius,
		MaxRadius:          cfg.MaxRadius,
		NoiseDivision:      cfg.NoiseDivision,
		ResolutionDivision: cfg.ResolutionDivision,
		Simple:             !cfg.ResolutionScaling && !cfg.Darken,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}
