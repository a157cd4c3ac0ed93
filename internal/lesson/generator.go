package lesson

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hanweng/lingtutor/internal/llm"
)

// CorrectionGenerator produces the corrected Mandarin rendering plus
// alternatives for a resolved intent.
type CorrectionGenerator interface {
	Generate(ctx context.Context, situation, resolvedIntent string) (Correction, error)
}

// Generator implements CorrectionGenerator on top of an LLM provider.
// It owns response-format validation: the backend's reply must parse as
// the expected JSON shape even when wrapped in a markdown code fence.
type Generator struct {
	provider llm.Provider
	model    string
}

// NewGenerator creates a correction generator using the given provider and model.
func NewGenerator(provider llm.Provider, model string) *Generator {
	return &Generator{provider: provider, model: model}
}

const generatorSystemPrompt = `You are an expert Mandarin language tutor. You produce corrected Mandarin renderings with pinyin and concise teaching notes, always as a single JSON object.`

// Generate asks the backend for a correction of the resolved intent in
// the given situation. resolvedIntent is the learner's stated intent if
// they confirmed the AI understanding, or their latest clarification if
// they did not. Missing alternatives are returned empty, not as errors;
// a missing corrected field is a malformed response.
func (g *Generator) Generate(ctx context.Context, situation, resolvedIntent string) (Correction, error) {
	prompt := buildGeneratePrompt(situation, resolvedIntent)

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: generatorSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   800,
		Temperature: 0.3,
		JSONMode:    true,
	})
	if err != nil {
		return Correction{}, NewGenerationError("generating corrections", err)
	}

	return parseCorrection(resp.Content)
}

func buildGeneratePrompt(situation, resolvedIntent string) string {
	var b strings.Builder

	b.WriteString("A student wants to express the following:\n\n")
	fmt.Fprintf(&b, "Context: %s\n", situation)
	fmt.Fprintf(&b, "Intent: %s\n", resolvedIntent)

	b.WriteString(`
Generate corrections and alternatives following these requirements:
1. CORRECTED: The correct Mandarin translation (keep original nouns intact when possible) with pinyin
2. NOTES: Brief explanation of mistakes, ambiguities, grammar, and cultural context (2-3 sentences)
3. ALTERNATIVE1: A different phrasing with pinyin
4. ALTERNATIVE1_NOTES: Explanation of grammar/vocab choices for this alternative (1-2 sentences)
5. ALTERNATIVE2: Another alternative phrasing with pinyin
6. ALTERNATIVE2_NOTES: Explanation of grammar/vocab choices for this alternative (1-2 sentences)

Format your response as JSON:
{
  "corrected": "Mandarin text (pinyin)",
  "notes": "explanation of mistakes and corrections",
  "alternative1": "alternative version (pinyin)",
  "alternative1_notes": "grammar/vocab explanation",
  "alternative2": "alternative version (pinyin)",
  "alternative2_notes": "grammar/vocab explanation"
}`)

	return b.String()
}

// parseCorrection extracts the correction JSON from an LLM reply.
// Backends sometimes wrap JSON in markdown code fences or pad it with
// prose; both are tolerated. An unparsable payload or a missing
// corrected field is a malformed response.
func parseCorrection(content string) (Correction, error) {
	jsonStr := strings.TrimSpace(content)

	if strings.HasPrefix(jsonStr, "```") {
		jsonStr = strings.TrimPrefix(jsonStr, "```json")
		jsonStr = strings.TrimPrefix(jsonStr, "```")
		jsonStr = strings.TrimSuffix(strings.TrimSpace(jsonStr), "```")
		jsonStr = strings.TrimSpace(jsonStr)
	}

	if idx := strings.Index(jsonStr, "{"); idx >= 0 {
		jsonStr = jsonStr[idx:]
	}
	if idx := strings.LastIndex(jsonStr, "}"); idx >= 0 {
		jsonStr = jsonStr[:idx+1]
	}

	var c Correction
	if err := json.Unmarshal([]byte(jsonStr), &c); err != nil {
		return Correction{}, NewMalformedResponseError("correction response did not parse as JSON", err)
	}

	if strings.TrimSpace(c.Corrected) == "" {
		return Correction{}, NewMalformedResponseError("correction response is missing the corrected field", nil)
	}

	return c, nil
}
