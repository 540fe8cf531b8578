package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/export"
	"github.com/joseph-ayodele/quizgen/internal/ingest"
	"github.com/joseph-ayodele/quizgen/internal/pipeline"
)

var (
	genQuiz     quizFlags
	genURL      string
	genFormat   string
	genOut      string
	genXLSX     string
	genProgress bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [file.pdf]",
	Short: "Generate a quiz from one PDF",
	Long: `Generate a quiz from a local PDF file or, with --url, from a PDF on the web.

The questions are written to stdout (or --out) as JSON or YAML.
Progress is reported on stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	genQuiz.bind(generateCmd)
	generateCmd.Flags().StringVar(&genURL, "url", "", "fetch the PDF from this URL instead of a file")
	generateCmd.Flags().StringVarP(&genFormat, "format", "f", "json", "output format: json or yaml")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "write the quiz to this file instead of stdout")
	generateCmd.Flags().StringVar(&genXLSX, "xlsx", "", "also write the quiz as a spreadsheet to this path")
	generateCmd.Flags().BoolVar(&genProgress, "progress", true, "print progress on stderr")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if (len(args) == 0) == (genURL == "") {
		return fmt.Errorf("provide either a PDF file or --url")
	}
	format := strings.ToLower(genFormat)
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unsupported format %q (use json or yaml)", genFormat)
	}
	qc, err := genQuiz.config()
	if err != nil {
		return describeFailure(err)
	}

	ctx := cmd.Context()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var src entity.DocumentSource
	if genURL != "" {
		src = entity.NewRemoteSource(genURL)
	} else {
		src, err = ingest.LoadDocument(args[0], cfg.Extract.MaxDocumentBytes)
		if err != nil {
			return err
		}
	}

	var onProgress pipeline.ProgressFunc
	if genProgress {
		stderr := cmd.ErrOrStderr()
		onProgress = func(ev entity.ProcessingStage) {
			_, _ = fmt.Fprintf(stderr, "[%3d%%] %s\n", ev.Progress, ev.Message)
		}
	}

	res, err := a.proc.RunWithResult(ctx, src, qc, onProgress)
	if err != nil {
		return describeFailure(err)
	}

	doc := export.QuizDocument{Title: qc.Title, Course: qc.Course, Questions: res.Questions}
	out, err := encodeQuiz(a.export, doc, format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), genOut, out); err != nil {
		return err
	}

	if genXLSX != "" {
		if err := writeXLSX(a.export, genXLSX, doc); err != nil {
			return err
		}
	}

	logger.Info("cli.generate.ok",
		"run_id", res.RunID,
		"questions", len(res.Questions),
		"model", res.Model,
		"attempts", res.Attempts,
		"truncated", res.Truncated,
	)
	return nil
}

func encodeQuiz(svc *export.Service, doc export.QuizDocument, format string) ([]byte, error) {
	if format == "yaml" {
		return svc.QuestionsYAML(doc)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode quiz: %w", err)
	}
	return append(b, '\n'), nil
}

// writeOutput writes b to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, b []byte) error {
	if path == "" {
		_, err := w.Write(b)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeXLSX(svc *export.Service, path string, doc export.QuizDocument) error {
	title := doc.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	b, err := svc.QuestionsXLSX(title, doc.Questions)
	if err != nil {
		return err
	}
	return writeOutput(nil, path, b)
}
