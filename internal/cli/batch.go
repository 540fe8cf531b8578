package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/quizgen/internal/async"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/export"
	"github.com/joseph-ayodele/quizgen/internal/ingest"
)

var (
	batchQuiz       quizFlags
	batchOutDir     string
	batchSkipHidden bool
	batchWorkers    int
	batchXLSX       bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Generate a quiz for every PDF under a directory",
	Long: `Walk a directory, skip duplicate files by content hash, and generate one
quiz per PDF with a pool of workers. Each quiz is written as <name>.json
into --out-dir (default <dir>/quizzes).`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchQuiz.bind(batchCmd)
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "directory for the generated quizzes")
	batchCmd.Flags().BoolVar(&batchSkipHidden, "skip-hidden", true, "skip hidden files and directories")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "concurrent runs (default from QUEUE_WORKERS)")
	batchCmd.Flags().BoolVar(&batchXLSX, "xlsx", false, "also write a spreadsheet per quiz")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	root := args[0]
	qc, err := batchQuiz.config()
	if err != nil {
		return describeFailure(err)
	}

	ctx := cmd.Context()
	docs, stats, err := ingest.CollectDocuments(ctx, root, batchSkipHidden)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		cmd.Printf("No PDF documents found under %s\n", root)
		return nil
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	outDir := batchOutDir
	if outDir == "" {
		outDir = filepath.Join(root, "quizzes")
	}

	q := newQueue(a, batchWorkers)

	var (
		results []async.Result
		wg      sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range q.Results() {
			results = append(results, r)
		}
	}()

	var failed []string
	for _, d := range docs {
		if d.Err != "" {
			failed = append(failed, fmt.Sprintf("%s: %s", d.Path, d.Err))
			continue
		}
		job, err := jobFor(d.Path, qc)
		if err != nil {
			failed = append(failed, err.Error())
			continue
		}
		if err := q.Enqueue(ctx, job); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", d.Path, err))
			break
		}
	}
	q.Shutdown(ctx)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Job.Label < results[j].Job.Label })

	generated := 0
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", r.Job.Label, describeFailure(r.Err)))
			continue
		}
		path, err := saveResult(a.export, outDir, r, batchXLSX)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", r.Job.Label, err))
			continue
		}
		generated++
		cmd.Printf("%s -> %s (%d questions)\n", r.Job.Label, path, len(r.Run.Questions))
	}

	cmd.Printf("Scanned %d, matched %d, duplicates %d; generated %d, failed %d\n",
		stats.Scanned, stats.Matched, stats.Duplicates, generated, len(failed))
	for _, f := range failed {
		cmd.Printf("  FAILED %s\n", f)
	}
	return nil
}

func newQueue(a *app, workers int) *async.ProcessorQueue {
	if workers <= 0 {
		workers = cfg.Queue.Workers
	}
	return async.NewProcessorQueue(a.proc, logger,
		async.WithWorkers(workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)
}

// saveResult writes <name>.json (and .xlsx) for a successful job and returns the JSON path.
func saveResult(svc *export.Service, outDir string, r async.Result, xlsx bool) (string, error) {
	base := strings.TrimSuffix(filepath.Base(r.Job.Label), filepath.Ext(r.Job.Label))
	title := r.Job.Config.Title
	if title == "" {
		title = base
	}
	doc := export.QuizDocument{Title: title, Course: r.Job.Config.Course, Questions: r.Run.Questions}

	b, err := encodeQuiz(svc, doc, "json")
	if err != nil {
		return "", err
	}
	path := filepath.Join(outDir, base+".json")
	if err := writeOutput(nil, path, b); err != nil {
		return "", err
	}
	if xlsx {
		if err := writeXLSX(svc, filepath.Join(outDir, base+".xlsx"), doc); err != nil {
			return "", err
		}
	}
	return path, nil
}

func jobFor(path string, qc entity.QuizConfig) (async.Job, error) {
	src, err := ingest.LoadDocument(path, cfg.Extract.MaxDocumentBytes)
	if err != nil {
		return async.Job{}, common.WrapError(err, "load "+path)
	}
	return async.Job{
		ID:          uuid.New(),
		Label:       path,
		Source:      src,
		Config:      qc,
		SubmittedAt: time.Now(),
	}, nil
}
