package summary

import (
	"call-server/internal/observability"
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrGenerationFailed is returned when the external text-generation service
// fails or times out. Callers finalize with a placeholder instead of blocking.
var ErrGenerationFailed = errors.New("summary generation failed")

// TextGenerator is the capability interface over an external LLM; the Gemini
// and OpenAI clients both satisfy it.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Turn is one speaker turn to include in the analyzed transcript.
type Turn struct {
	Role string
	Text string
}

const promptTemplate = `You are an expert in analyzing human conversations. Please analyze the following transcript between two individuals and generate a **high-quality, insightful summary** in markdown format. Focus on extracting the **most relevant information**, including tone, intent, emotions, topics discussed, outcomes, and actionable insights.

Please structure your response using the following format:

# Summary
A brief overview capturing the essence of the conversation — who is involved, what the context is, and the primary outcome or unresolved point.

## Key Topics Discussed
- Bullet points summarizing the main subjects covered
- Any decisions made or proposals offered
- Conflicts, misunderstandings, or breakthroughs

## Tone & Sentiment Analysis
- Emotional tone of each speaker (e.g., calm, frustrated, cooperative)
- Overall sentiment of the conversation (positive / negative / neutral)
- Any notable shifts in mood or tension during the conversation

## Speaker Intent & Behavior
- Speaker 1: Intent, key motivations, communication style
- Speaker 2: Intent, key motivations, communication style
- Any signs of manipulation, persuasion, empathy, or defensiveness

## Outcomes & Next Steps
- Agreed actions, follow-ups, or unresolved issues
- Suggestions for how the conversation could proceed or improve in future

---

### Transcript:
%s

Please return the analysis in the markdown format as structured above.`

// Generator renders call transcripts into an analytical prompt and asks an
// external LLM for a structured summary.
type Generator struct {
	textGen TextGenerator
	logger  *observability.Logger
}

func New(textGen TextGenerator, logger *observability.Logger) *Generator {
	return &Generator{
		textGen: textGen,
		logger:  logger,
	}
}

// FormatTranscript renders turns as "ROLE: text" lines in original order.
func FormatTranscript(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(turn.Role), turn.Text))
	}
	return strings.Join(lines, "\n")
}

// Summarize generates a structured summary for the given turns. An empty turn
// list still produces a well-formed prompt with an empty transcript body.
func (g *Generator) Summarize(ctx context.Context, turns []Turn) (string, error) {
	prompt := fmt.Sprintf(promptTemplate, FormatTranscript(turns))

	text, err := g.textGen.GenerateText(ctx, prompt)
	if err != nil {
		g.logger.Error(ctx, "failed to generate call summary", err)
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return text, nil
}
