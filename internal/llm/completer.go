// Package llm provides the language-model capability consumed by the
// workflow executor and the agent round scheduler: a single
// "complete(system, user) -> text" contract backed by the Anthropic API.
package llm

import "context"

// Completer is the text-in, text-out capability the engine depends on.
// Implementations fail with a *CompletionError carrying a classified kind
// and the provider status code.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
