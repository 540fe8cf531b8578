package llm

import "context"

// Completer is one upstream call: a prompt sent to a named model, text back.
// Backends return *ProviderError for upstream failures so the generator can
// tell overloads apart from terminal errors.
type Completer interface {
	Name() string
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, model, prompt string) (string, error)

func (f CompleterFunc) Name() string { return "func" }

func (f CompleterFunc) Complete(ctx context.Context, model, prompt string) (string, error) {
	return f(ctx, model, prompt)
}
