package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/quizgen/internal/common"
	"github.com/joseph-ayodele/quizgen/internal/entity"
)

const noExplanation = "No explanation provided"

// Report describes what Normalize had to change.
type Report struct {
	Strict   bool     // input matched the schema as-is
	Dropped  []string // questions removed, with the reason
	Repaired []string // fields filled or coerced
}

// Normalize converts an untyped JSON array into validated questions.
//
// Conforming input is taken as-is. Anything else goes through a lenient pass:
// non-object elements are skipped, missing option ids/texts get placeholders,
// isCorrect is coerced to a bool, missing ids and explanations get defaults.
// Questions left without text or options are dropped. An empty result is a
// validation-kind error.
func Normalize(raw []any, logger *slog.Logger) ([]entity.Question, Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var rep Report
	rep.Strict = ValidateQuestions(raw) == nil

	out := make([]entity.Question, 0, len(raw))
	for i, el := range raw {
		q, ok := normalizeQuestion(i, el, &rep)
		if ok {
			out = append(out, q)
		}
	}

	if len(out) == 0 {
		logger.Warn("llm.normalize.no_questions", "input", len(raw), "dropped", rep.Dropped)
		return nil, rep, common.ValidationError(common.ErrNoQuestions.Error(), common.ErrNoQuestions)
	}

	if !rep.Strict {
		// the lenient pass must always yield schema-conformant output
		b, err := json.Marshal(out)
		if err == nil {
			err = ValidateJSONAgainstSchema(BuildQuestionsJSONSchema(), b)
		}
		if err != nil {
			logger.Error("llm.normalize.schema_validation_failed", "error", err)
			return nil, rep, common.ValidationError(common.ErrNoQuestions.Error(), err)
		}
		logger.Warn("llm.normalize.lenient_applied",
			"input", len(raw),
			"kept", len(out),
			"dropped", rep.Dropped,
			"repaired", len(rep.Repaired),
		)
	}
	return out, rep, nil
}

func normalizeQuestion(i int, el any, rep *Report) (entity.Question, bool) {
	m, ok := el.(map[string]any)
	if !ok {
		rep.Dropped = append(rep.Dropped, fmt.Sprintf("#%d: not an object", i+1))
		return entity.Question{}, false
	}

	id, ok := scalarString(m["id"])
	if !ok {
		id = fmt.Sprintf("q_%d", i+1)
		rep.Repaired = append(rep.Repaired, fmt.Sprintf("#%d: id", i+1))
	}

	text, hasText := scalarString(m["text"])

	rawOpts, _ := m["options"].([]any)
	opts := make([]entity.Option, 0, len(rawOpts))
	for j, ro := range rawOpts {
		opts = append(opts, normalizeOption(id, j, ro, rep))
	}
	markFirstCorrect(id, opts, rep)

	if !hasText {
		rep.Dropped = append(rep.Dropped, fmt.Sprintf("#%d (%s): missing text", i+1, id))
		return entity.Question{}, false
	}
	if len(opts) == 0 {
		rep.Dropped = append(rep.Dropped, fmt.Sprintf("#%d (%s): no options", i+1, id))
		return entity.Question{}, false
	}

	explanation, ok := scalarString(m["explanation"])
	if !ok {
		explanation = noExplanation
		rep.Repaired = append(rep.Repaired, fmt.Sprintf("%s: explanation", id))
	}

	return entity.Question{ID: id, Text: text, Options: opts, Explanation: explanation}, true
}

func normalizeOption(parentID string, j int, ro any, rep *Report) entity.Option {
	placeholder := entity.Option{
		ID:   fmt.Sprintf("%s_%d", parentID, j),
		Text: fmt.Sprintf("Option %d", j+1),
	}
	m, ok := ro.(map[string]any)
	if !ok {
		rep.Repaired = append(rep.Repaired, fmt.Sprintf("%s: option %d placeholder", parentID, j))
		return placeholder
	}

	opt := placeholder
	if id, ok := scalarString(m["id"]); ok {
		opt.ID = id
	} else {
		rep.Repaired = append(rep.Repaired, fmt.Sprintf("%s: option %d id", parentID, j))
	}
	if text, ok := scalarString(m["text"]); ok {
		opt.Text = text
	} else {
		rep.Repaired = append(rep.Repaired, fmt.Sprintf("%s: option %d text", parentID, j))
	}
	opt.IsCorrect = coerceBool(m["isCorrect"])
	return opt
}

// markFirstCorrect keeps the first isCorrect=true and clears any later ones.
func markFirstCorrect(parentID string, opts []entity.Option, rep *Report) {
	seen := false
	for k := range opts {
		if !opts[k].IsCorrect {
			continue
		}
		if seen {
			opts[k].IsCorrect = false
			rep.Repaired = append(rep.Repaired, fmt.Sprintf("%s: extra correct option %s", parentID, opts[k].ID))
			continue
		}
		seen = true
	}
}

// scalarString returns a trimmed, non-empty string for string, number or bool values.
func scalarString(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1", "correct":
			return true
		}
		return false
	case float64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}
