package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/repository"
)

// Service turns generated quizzes and the run journal into downloadable files.
type Service struct {
	runs   repository.RunRepository
	logger *slog.Logger
}

// NewService builds an export service. runs may be nil when only quiz exports are needed.
func NewService(runs repository.RunRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{runs: runs, logger: logger}
}

// QuizDocument is the YAML/JSON shape of an exported quiz.
type QuizDocument struct {
	Title     string            `json:"title,omitempty" yaml:"title,omitempty"`
	Course    string            `json:"course,omitempty" yaml:"course,omitempty"`
	Questions []entity.Question `json:"questions" yaml:"questions"`
}

// QuestionsXLSX returns a workbook with one row per question: the question text,
// one column per option, the correct answer and the explanation.
func (s *Service) QuestionsXLSX(title string, questions []entity.Question) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetName(title, "Quiz")
	if err := useSheet(f, sheet); err != nil {
		return nil, err
	}

	maxOpts := 0
	for _, q := range questions {
		maxOpts = max(maxOpts, len(q.Options))
	}

	headers := []string{"#", "Question"}
	for i := 1; i <= maxOpts; i++ {
		headers = append(headers, fmt.Sprintf("Option %d", i))
	}
	headers = append(headers, "Correct Answer", "Explanation")
	writeRow(f, sheet, 1, headers)

	for i, q := range questions {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, i+1)
		write(2, q.Text)
		for j, o := range q.Options {
			write(3+j, o.Text)
		}
		correct := ""
		if o, ok := q.CorrectOption(); ok {
			correct = o.Text
		}
		write(3+maxOpts, correct)
		write(4+maxOpts, truncate(q.Explanation, 500))
	}

	lastOpt, _ := excelize.ColumnNumberToName(2 + maxOpts)
	correctCol, _ := excelize.ColumnNumberToName(3 + maxOpts)
	explCol, _ := excelize.ColumnNumberToName(4 + maxOpts)
	_ = f.SetColWidth(sheet, "A", "A", 5)
	_ = f.SetColWidth(sheet, "B", "B", 60)
	if maxOpts > 0 {
		_ = f.SetColWidth(sheet, "C", lastOpt, 28)
	}
	_ = f.SetColWidth(sheet, correctCol, correctCol, 28)
	_ = f.SetColWidth(sheet, explCol, explCol, 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sheet", sheet,
		"rows", len(questions),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// QuestionsYAML renders the quiz as a YAML document.
func (s *Service) QuestionsYAML(doc QuizDocument) ([]byte, error) {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("yaml write: %w", err)
	}
	s.logger.Debug("export.yaml.ok", "questions", len(doc.Questions), "bytes", len(b))
	return b, nil
}

// RunsXLSX returns the most recent journal rows as a workbook.
func (s *Service) RunsXLSX(ctx context.Context, limit int) ([]byte, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("run journal is not configured")
	}
	start := time.Now()

	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	const sheet = "Runs"
	if err := useSheet(f, sheet); err != nil {
		return nil, err
	}

	writeRow(f, sheet, 1, []string{
		"Run ID", "Started", "Status", "Source", "Difficulty", "Types",
		"Requested", "Questions", "Model", "Attempts", "Elapsed (ms)", "Error",
	})
	for i, r := range runs {
		model, errMsg := "", ""
		if r.Model != nil {
			model = *r.Model
		}
		if r.ErrorMessage != nil {
			errMsg = *r.ErrorMessage
			if r.ErrorKind != nil {
				errMsg = *r.ErrorKind + ": " + errMsg
			}
		}
		writeRow(f, sheet, i+2, []any{
			r.ID.String(),
			r.StartedAt.UTC().Format(time.RFC3339),
			string(r.Status),
			truncate(r.SourceRef, 120),
			r.Difficulty,
			r.QuestionTypes,
			r.QuestionCount,
			r.Questions,
			model,
			r.Attempts,
			r.ElapsedMS,
			truncate(errMsg, 200),
		})
	}

	_ = f.SetColWidth(sheet, "A", "A", 38)
	_ = f.SetColWidth(sheet, "B", "B", 22)
	_ = f.SetColWidth(sheet, "D", "D", 40)
	_ = f.SetColWidth(sheet, "L", "L", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.runs.xlsx.ok", "rows", len(runs), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// useSheet renames the default sheet so the workbook has exactly one, active sheet.
func useSheet(f *excelize.File, sheet string) error {
	if sheet == "Sheet1" {
		return nil
	}
	return f.SetSheetName("Sheet1", sheet)
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// sheetName makes title usable as an Excel sheet name (max 31 chars, no []:*?/\).
func sheetName(title, fallback string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return -1
		}
		return r
	}, strings.Trim(strings.TrimSpace(title), "'"))
	if name == "" {
		return fallback
	}
	if utf8.RuneCountInString(name) > 31 {
		name = string([]rune(name)[:31])
	}
	return name
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 1 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-1]) + "…"
}
