package entity

// Option is one answer choice of a question.
type Option struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"isCorrect" yaml:"isCorrect"`
}

// Question is a validated quiz question. Text is never empty and Options has at least one entry.
type Question struct {
	ID          string   `json:"id" yaml:"id"`
	Text        string   `json:"text" yaml:"text"`
	Options     []Option `json:"options" yaml:"options"`
	Explanation string   `json:"explanation" yaml:"explanation"`
}

// CorrectOption returns the first option marked correct.
func (q Question) CorrectOption() (Option, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o, true
		}
	}
	return Option{}, false
}
