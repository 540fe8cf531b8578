package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quizgen/constants"
	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
	"github.com/joseph-ayodele/quizgen/internal/extract"
	"github.com/joseph-ayodele/quizgen/internal/llm"
	"github.com/joseph-ayodele/quizgen/internal/repository"
)

var samplePDF = []byte("%PDF-1.4\n%%EOF")

const parisResponse = "```json\n" +
	`[{"id":"q1","text":"What is the capital of France?","options":[{"id":"a","text":"Paris","isCorrect":true},{"id":"b","text":"Lyon","isCorrect":false}],"explanation":"Paris is stated directly in the text."}]` +
	"\n```"

type stubRunner struct {
	stdout string
}

func (s stubRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
	return []byte(s.stdout), nil, nil
}

type harness struct {
	proc   *Processor
	runs   repository.RunRepository
	calls  atomic.Int32
	events []entity.ProcessingStage
}

func newHarness(t *testing.T, pdfText string, complete llm.CompleterFunc, cfg Config) *harness {
	t.Helper()
	h := &harness{}

	db, err := repository.Open(context.Background(), common.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, nil) })
	h.runs = repository.NewRunRepository(db, nil)
	require.NoError(t, h.runs.EnsureSchema(context.Background()))

	counting := llm.CompleterFunc(func(ctx context.Context, model, prompt string) (string, error) {
		h.calls.Add(1)
		return complete(ctx, model, prompt)
	})
	noSleep := func(context.Context, time.Duration) error { return nil }

	ex := extract.NewExtractorWithRunner(extract.Config{}, stubRunner{stdout: pdfText}, nil)
	gen := llm.NewGenerator(counting, llm.GeneratorConfig{Models: []string{"primary", "secondary"}}, nil, llm.WithSleeper(noSleep))
	h.proc = NewProcessor(nil, cfg, NewExtractStage(ex, nil), NewGenerateStage(gen, nil), h.runs)
	return h
}

func (h *harness) record(ev entity.ProcessingStage) {
	h.events = append(h.events, ev)
}

func (h *harness) progress() []int {
	out := make([]int, 0, len(h.events))
	for _, ev := range h.events {
		out = append(out, ev.Progress)
	}
	return out
}

func fixed(text string) llm.CompleterFunc {
	return func(context.Context, string, string) (string, error) { return text, nil }
}

func parisConfig() entity.QuizConfig {
	return entity.QuizConfig{
		QuestionCount: 1,
		Difficulty:    constants.DifficultyEasy,
		QuestionTypes: []constants.QuestionType{constants.MultipleChoice},
	}
}

func TestProcessor_ParisScenario(t *testing.T) {
	var gotPrompt string
	h := newHarness(t, "Paris is the capital of France.\f", func(_ context.Context, _ string, prompt string) (string, error) {
		gotPrompt = prompt
		return parisResponse, nil
	}, Config{})

	res, err := h.proc.RunWithResult(context.Background(), entity.NewBinarySource("paris.pdf", samplePDF), parisConfig(), h.record)

	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
	q := res.Questions[0]
	assert.Equal(t, "What is the capital of France?", q.Text)
	require.Len(t, q.Options, 2)
	assert.True(t, q.Options[0].IsCorrect)
	assert.Equal(t, "Paris is stated directly in the text.", q.Explanation)

	assert.Equal(t, "primary", res.Model)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, res.Pages)
	assert.False(t, res.Truncated)
	assert.Contains(t, gotPrompt, "Paris is the capital of France.")
	assert.Contains(t, gotPrompt, "Generate exactly 1 questions.")

	assert.Equal(t, []int{10, 35, 60, 90, 100}, h.progress())
	assert.Equal(t, "Quiz ready", h.events[4].Message)
	assert.Equal(t, constants.StageFormatting, h.events[4].Stage)

	run, err := h.runs.Get(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusSucceeded, run.Status)
	assert.Equal(t, 1, run.Questions)
	assert.Equal(t, "paris.pdf", run.SourceRef)
	assert.Equal(t, "multiple-choice", run.QuestionTypes)
}

func TestProcessor_Run(t *testing.T) {
	h := newHarness(t, "Paris is the capital of France.", fixed(parisResponse), Config{})

	qs, err := h.proc.Run(context.Background(), entity.NewBinarySource("", samplePDF), parisConfig(), nil)

	require.NoError(t, err)
	assert.Len(t, qs, 1)
}

func TestProcessor_ExtractionFailureStopsRun(t *testing.T) {
	h := newHarness(t, "\f\f", fixed(parisResponse), Config{})

	_, err := h.proc.Run(context.Background(), entity.NewBinarySource("scan.pdf", samplePDF), parisConfig(), h.record)

	var pe *common.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, common.KindExtraction, pe.Kind)
	assert.ErrorIs(t, err, common.ErrEmptyDocument)
	assert.Contains(t, pe.UserMessage(), "document could not be read")
	assert.Equal(t, []int{10}, h.progress())
	assert.Zero(t, h.calls.Load())

	runs, err := h.runs.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, constants.RunStatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].ErrorKind)
	assert.Equal(t, "extraction", *runs[0].ErrorKind)
}

func TestProcessor_NotAPDF(t *testing.T) {
	h := newHarness(t, "text", fixed(parisResponse), Config{})

	_, err := h.proc.Run(context.Background(), entity.NewBinarySource("a.docx", []byte("PK\x03\x04")), parisConfig(), nil)

	assert.Equal(t, common.KindExtraction, common.KindOf(err))
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
}

func TestProcessor_RemoteNotFoundIsNetworkKind(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	h := newHarness(t, "text", fixed(parisResponse), Config{})

	_, err := h.proc.Run(context.Background(), entity.NewRemoteSource(srv.URL+"/missing.pdf"), parisConfig(), h.record)

	var pe *common.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, common.KindNetwork, pe.Kind)
	assert.Equal(t, "the document was not found at the given URL", pe.Message)
	assert.Equal(t, []int{10}, h.progress())
}

func TestProcessor_ParseFailure(t *testing.T) {
	h := newHarness(t, "Some text.", fixed("I'm sorry, I can't produce a quiz for that."), Config{})

	_, err := h.proc.Run(context.Background(), entity.NewBinarySource("x.pdf", samplePDF), parisConfig(), h.record)

	var pe *common.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, common.KindParse, pe.Kind)
	assert.Equal(t, "AI returned invalid format, please try again", pe.UserMessage())
	assert.Equal(t, []int{10, 35, 60, 90}, h.progress())
}

func TestProcessor_NoValidQuestions(t *testing.T) {
	h := newHarness(t, "Some text.", fixed(`[{"id":"q2","options":[]}]`), Config{})

	_, err := h.proc.Run(context.Background(), entity.NewBinarySource("x.pdf", samplePDF), parisConfig(), nil)

	assert.Equal(t, common.KindValidation, common.KindOf(err))
	assert.ErrorIs(t, err, common.ErrNoQuestions)
}

func TestProcessor_GenerationFailure(t *testing.T) {
	h := newHarness(t, "Some text.", func(_ context.Context, model, _ string) (string, error) {
		return "", &llm.ProviderError{Provider: "test", Model: model, StatusCode: http.StatusUnauthorized, Message: "invalid api key"}
	}, Config{})

	_, err := h.proc.Run(context.Background(), entity.NewBinarySource("x.pdf", samplePDF), parisConfig(), h.record)

	var pe *common.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, common.KindGeneration, pe.Kind)
	assert.Contains(t, pe.Message, "API key")
	assert.Equal(t, int32(2), h.calls.Load(), "one call per model, no retries on auth errors")
	assert.Equal(t, []int{10, 35, 60}, h.progress())
}

func TestProcessor_InvalidConfig(t *testing.T) {
	h := newHarness(t, "Some text.", fixed(parisResponse), Config{})
	cfg := parisConfig()
	cfg.QuestionTypes = nil

	_, err := h.proc.Run(context.Background(), entity.NewBinarySource("x.pdf", samplePDF), cfg, h.record)

	assert.Equal(t, common.KindValidation, common.KindOf(err))
	assert.Empty(t, h.events)

	runs, err := h.runs.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestProcessor_CancelledDuringAnalyze(t *testing.T) {
	h := newHarness(t, "Some text.", fixed(parisResponse), Config{AnalyzeDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	onProgress := func(ev entity.ProcessingStage) {
		h.record(ev)
		if ev.Stage == constants.StageAnalyzing {
			cancel()
		}
	}

	_, err := h.proc.Run(ctx, entity.NewBinarySource("x.pdf", samplePDF), parisConfig(), onProgress)

	assert.Equal(t, common.KindGeneration, common.KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.calls.Load())

	runs, err := h.runs.ListRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, constants.RunStatusFailed, runs[0].Status)
}

func TestProcessor_TruncatesLongDocuments(t *testing.T) {
	var gotPrompt string
	h := newHarness(t, "abcdefghijklmnopqrstuvwxyz", func(_ context.Context, _ string, prompt string) (string, error) {
		gotPrompt = prompt
		return parisResponse, nil
	}, Config{MaxPromptChars: 5})

	res, err := h.proc.RunWithResult(context.Background(), entity.NewBinarySource("x.pdf", samplePDF), parisConfig(), nil)

	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Contains(t, gotPrompt, "abcde\n…(truncated)")
	assert.NotContains(t, gotPrompt, "abcdef")
}
