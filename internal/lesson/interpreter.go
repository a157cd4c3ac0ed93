package lesson

import (
	"context"
	"fmt"
	"strings"

	"github.com/hanweng/lingtutor/internal/llm"
)

// IntentInterpreter summarizes what the learner is trying to say so
// they can confirm or correct the understanding.
type IntentInterpreter interface {
	Interpret(ctx context.Context, situation, statedIntent, clarification string) (string, error)
}

// Interpreter implements IntentInterpreter on top of an LLM provider.
// It is stateless; each call is an independent request/response.
type Interpreter struct {
	provider llm.Provider
	model    string
}

// NewInterpreter creates an intent interpreter using the given provider and model.
func NewInterpreter(provider llm.Provider, model string) *Interpreter {
	return &Interpreter{provider: provider, model: model}
}

const interpreterSystemPrompt = `You are a Mandarin language tutor helping an advanced learner. You summarize the learner's intent, tone, and situation back to them so they can confirm you understood correctly.`

// Interpret combines the situation and stated intent (and, when present,
// a clarification) into a second-person English summary ending with an
// explicit yes/no question. Fails with a generation error when the
// backend is unreachable or returns an empty result; the caller's state
// must not change in that case.
func (i *Interpreter) Interpret(ctx context.Context, situation, statedIntent, clarification string) (string, error) {
	prompt := buildInterpretPrompt(situation, statedIntent, clarification)

	resp, err := i.provider.Complete(ctx, llm.CompletionRequest{
		Model: i.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: interpreterSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   300,
		Temperature: 0.4,
	})
	if err != nil {
		return "", NewGenerationError("interpreting intent", err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", NewGenerationError("empty response from AI backend", nil)
	}

	return text, nil
}

func buildInterpretPrompt(situation, statedIntent, clarification string) string {
	var b strings.Builder

	b.WriteString("The student has provided:\n\n")
	fmt.Fprintf(&b, "Context: %s\n", situation)
	fmt.Fprintf(&b, "What they want to say: %s\n", statedIntent)
	if clarification != "" {
		fmt.Fprintf(&b, "Additional clarification: %s\n", clarification)
	}

	b.WriteString(`
Task: Summarize the student's intent, tone, and context in English in at most 300 tokens, in a conversational second-person voice. Start with "I see that you are trying to..." and end with "Is this correct?". Focus on:
1. The specific situation and cultural context`)
	if clarification != "" {
		b.WriteString(" (including the clarification)")
	}
	b.WriteString(`
2. The exact meaning they want to convey`)
	if clarification != "" {
		b.WriteString(" (as clarified)")
	}
	b.WriteString(`
3. Any nuances, formality levels, or cultural considerations needed

Provide a clear, concise summary of their intent.`)

	return b.String()
}
