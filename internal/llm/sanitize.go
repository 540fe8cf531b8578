package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/quizgen/internal/common"
)

var (
	// "id": "X": "Y"  ->  "id": "X", "text": "Y"
	reStrayColon = regexp.MustCompile(`"id"\s*:\s*"([^"]*)"\s*:\s*"([^"]*)"`)
	// "id": "a": MongoDB  (unquoted value after the stray colon)
	reStrayColonBare = regexp.MustCompile(`"id"\s*:\s*"([^"]*)"\s*:\s*([^\s",{}\[\]][^",{}\[\]\n]*)`)
	reTrailingComma  = regexp.MustCompile(`,\s*([}\]])`)
	reAdjacentObject = regexp.MustCompile(`}\s*{`)
	reAdjacentArray  = regexp.MustCompile(`]\s*\[`)
)

var errNotArray = errors.New("expected an array of questions")

// RepairAndParse turns a raw model response into a decoded JSON array.
// The repair sequence is fixed and bounded: fence strip, array slice, one parse,
// then only if that fails four regex repairs, one parse, one targeted correction
// and one more parse. It never panics; every failure is a parse-kind PipelineError.
func RepairAndParse(raw string) ([]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, common.ParseError("the AI response was empty", common.ErrEmptyResponse)
	}

	s := StripCodeFence(raw)

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return nil, common.ParseError("no JSON array found in the AI response", errNotArray)
	}
	s = s[start : end+1]

	// well-formed input is never rewritten; repairs would touch string contents
	v, err := decode(s)
	if err != nil {
		s = RepairJSON(s)
		v, err = decode(s)
	}
	if err != nil {
		corrected := fixBareStrayColon(s)
		if corrected == s {
			return nil, common.ParseError("the AI response is not valid JSON", err)
		}
		v, err = decode(corrected)
		if err != nil {
			return nil, common.ParseError("the AI response is not valid JSON", err)
		}
	}

	arr, ok := v.([]any)
	if !ok {
		return nil, common.ParseError(errNotArray.Error(), errNotArray)
	}
	return arr, nil
}

// StripCodeFence removes one enclosing Markdown code fence (``` or ```json).
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string (json, JSON, javascript...) up to the first newline
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "[{") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// RepairJSON applies the regex repairs in order. Each step is idempotent.
func RepairJSON(s string) string {
	s = reStrayColon.ReplaceAllString(s, `"id": "$1", "text": "$2"`)
	s = reTrailingComma.ReplaceAllString(s, "$1")
	s = reAdjacentObject.ReplaceAllString(s, "},{")
	s = reAdjacentArray.ReplaceAllString(s, "],[")
	return s
}

func fixBareStrayColon(s string) string {
	return reStrayColonBare.ReplaceAllStringFunc(s, func(m string) string {
		sub := reStrayColonBare.FindStringSubmatch(m)
		id, _ := json.Marshal(sub[1])
		text, _ := json.Marshal(strings.TrimSpace(sub[2]))
		return `"id": ` + string(id) + `, "text": ` + string(text)
	})
}

func decode(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
