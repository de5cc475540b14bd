package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/engine"
	"github.com/noah-isme/sma-adp-api/pkg/export"
	"github.com/noah-isme/sma-adp-api/pkg/jobs"
	"github.com/noah-isme/sma-adp-api/pkg/schoolconfig"
)

// timetable-cli solves one or more school configurations and writes the
// result to disk. It never opens a database connection or HTTP listener;
// the constraint engine, pkg/schoolconfig, the job queue, the export
// package and zap are the only production dependencies it pulls in. Each configuration owns its
// own Grid for the duration of its solve, so running several concurrently
// through the worker pool never shares mutable state across jobs.

type configPaths []string

func (p *configPaths) String() string { return strings.Join(*p, ",") }

func (p *configPaths) Set(value string) error {
	*p = append(*p, value)
	return nil
}

func main() {
	var configs configPaths
	flag.Var(&configs, "config", "path to a school configuration file (yaml or json); repeat for batch mode")
	mode := flag.String("mode", "strict", "solver mode: strict or tolerant")
	backtrackLimit := flag.Int("backtrack-limit", 5000, "max backtrack steps before giving up (strict mode)")
	outFormat := flag.String("format", "csv", "export format: csv or pdf")
	outDir := flag.String("out-dir", ".", "directory receiving one export file per configuration")
	workers := flag.Int("workers", 4, "concurrent solves in batch mode")
	flag.Parse()

	logr, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck
	sugar := logr.Sugar()

	if len(configs) == 0 {
		sugar.Fatal("at least one -config is required")
	}

	engineMode := engine.StrictMode
	if *mode == "tolerant" {
		engineMode = engine.TolerantMode
	}

	runner := &batchRunner{
		mode:           engineMode,
		backtrackLimit: *backtrackLimit,
		outFormat:      *outFormat,
		outDir:         *outDir,
		logger:         sugar,
	}

	if len(configs) == 1 {
		if err := runner.solveOne(context.Background(), configs[0]); err != nil {
			sugar.Fatalw("solve failed", "path", configs[0], "error", err)
		}
		return
	}

	const batchMaxRetries = 1

	var mu sync.Mutex
	var failedPaths []string
	var pending sync.WaitGroup

	// job.Attempt only reaches batchMaxRetries on the last retry the queue
	// will grant, so pending is only released once a job has either
	// succeeded or run out of retries. Releasing it on every invocation
	// would let Wait return before a scheduled retry actually runs, since
	// retries fire from a separate, delayed goroutine inside the queue.
	queue := jobs.NewQueue("timetable-batch", func(ctx context.Context, job jobs.Job) error {
		path, _ := job.Payload.(string)
		err := runner.solveOne(ctx, path)
		if err == nil {
			pending.Done()
			return nil
		}
		if job.Attempt >= batchMaxRetries {
			mu.Lock()
			failedPaths = append(failedPaths, path)
			mu.Unlock()
			pending.Done()
		}
		return err
	}, jobs.QueueConfig{Workers: *workers, BufferSize: len(configs), MaxRetries: batchMaxRetries, Logger: logr})

	queue.Start(context.Background())
	pending.Add(len(configs))
	for i, path := range configs {
		if err := queue.Enqueue(jobs.Job{ID: fmt.Sprintf("solve-%d", i), Type: "solve", Payload: path}); err != nil {
			sugar.Fatalw("failed to enqueue solve", "path", path, "error", err)
		}
	}
	pending.Wait()
	queue.Stop()

	if len(failedPaths) > 0 {
		sugar.Fatalw("batch completed with failures", "failed", failedPaths)
	}
	sugar.Infow("batch completed", "configurations", len(configs))
}

// batchRunner solves one configuration end to end: load, solve, export.
type batchRunner struct {
	mode           engine.Mode
	backtrackLimit int
	outFormat      string
	outDir         string
	logger         *zap.SugaredLogger
}

func (r *batchRunner) solveOne(ctx context.Context, path string) error {
	cfg, err := schoolconfig.Load(path)
	if err != nil {
		return fmt.Errorf("load school configuration: %w", err)
	}

	input := engine.Input{
		Settings:   cfg.Settings,
		Teachers:   cfg.Teachers,
		Subjects:   cfg.Subjects,
		Classrooms: cfg.Classrooms,
		Mode:       r.mode,
		Options: engine.Options{
			BacktrackLimit: r.backtrackLimit,
			Context:        ctx,
		},
	}

	r.logger.Infow("solving school configuration", "path", path, "grades", len(cfg.Settings.Grades))

	output, err := engine.Solve(input)
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}

	r.logger.Infow("solve finished",
		"path", path,
		"status", output.Status,
		"assigned", output.Statistics.AssignedSlots,
		"total", output.Statistics.TotalSlots,
		"backtracks", output.Statistics.BacktrackCount,
	)
	for _, diag := range output.Diagnostics {
		r.logger.Warnw("diagnostic", "path", path, "kind", diag.Kind, "message", diag.Message)
	}

	dataset := schoolconfig.BuildDataset(output.Timetable)

	var rendered []byte
	switch r.outFormat {
	case "pdf":
		rendered, err = export.NewPDFExporter().Render(dataset, "Weekly Timetable")
	default:
		rendered, err = export.NewCSVExporter().Render(dataset)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	ext := "csv"
	if r.outFormat == "pdf" {
		ext = "pdf"
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(r.outDir, base+"."+ext)

	if err := os.WriteFile(outPath, rendered, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	r.logger.Infow("wrote timetable export", "path", outPath, "format", r.outFormat)
	return nil
}
