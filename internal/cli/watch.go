package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/quizgen/internal/async"
	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/ingest"
)

var (
	watchQuiz       quizFlags
	watchOutDir     string
	watchDebounce   time.Duration
	watchInitial    bool
	watchSkipHidden bool
	watchWorkers    int
	watchXLSX       bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Generate quizzes for PDFs as they appear",
	Long: `Watch one or more directories recursively and generate a quiz for every
new or rewritten PDF. Files with content already seen in this session are
skipped. Runs until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchQuiz.bind(watchCmd)
	watchCmd.Flags().StringVar(&watchOutDir, "out-dir", "", "directory for the generated quizzes (default <first dir>/quizzes)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "wait this long after the last write before processing")
	watchCmd.Flags().BoolVar(&watchInitial, "initial-scan", false, "also process PDFs already present")
	watchCmd.Flags().BoolVar(&watchSkipHidden, "skip-hidden", true, "skip hidden files and directories")
	watchCmd.Flags().IntVarP(&watchWorkers, "workers", "w", 0, "concurrent runs (default from QUEUE_WORKERS)")
	watchCmd.Flags().BoolVar(&watchXLSX, "xlsx", false, "also write a spreadsheet per quiz")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	qc, err := watchQuiz.config()
	if err != nil {
		return describeFailure(err)
	}

	ctx := cmd.Context()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	outDir := watchOutDir
	if outDir == "" {
		outDir = filepath.Join(args[0], "quizzes")
	}

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       args,
		SkipHidden:  watchSkipHidden,
		InitialScan: watchInitial,
		Debounce:    watchDebounce,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Watching %v, press Ctrl+C to stop\n", args)
	q := newQueue(a, watchWorkers)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range q.Results() {
			if r.Err != nil {
				cmd.Printf("FAILED %s: %v\n", r.Job.Label, describeFailure(r.Err))
				continue
			}
			path, err := saveResult(a.export, outDir, r, watchXLSX)
			if err != nil {
				cmd.Printf("FAILED %s: %v\n", r.Job.Label, err)
				continue
			}
			cmd.Printf("%s -> %s (%d questions)\n", r.Job.Label, path, len(r.Run.Questions))
		}
	}()

	seen := ingest.NewDeduper()
	for events != nil || errs != nil {
		select {
		case path, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			submit(ctx, q, seen, path, qc)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("cli.watch.error", "error", err)
		}
	}

	// the watcher stops when ctx ends, let in-flight runs finish
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Queue.ProcessTimeout)
	defer cancel()
	q.Shutdown(shutdownCtx)
	<-done
	return nil
}

func submit(ctx context.Context, q async.Queue, seen *ingest.Deduper, path string, qc entity.QuizConfig) {
	hash, err := ingest.HashFile(path)
	if err != nil {
		logger.Warn("cli.watch.hash_error", "path", path, "error", err)
		return
	}
	if !seen.First(hash) {
		logger.Debug("cli.watch.duplicate", "path", path)
		return
	}
	job, err := jobFor(path, qc)
	if err != nil {
		logger.Warn("cli.watch.load_error", "path", path, "error", err)
		return
	}
	if err := q.Enqueue(ctx, job); err != nil {
		logger.Warn("cli.watch.enqueue_error", "path", path, "error", err)
	}
}
