package summary

import (
	"call-server/internal/observability"
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeTextGenerator struct {
	prompt string
	text   string
	err    error
}

func (f *fakeTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

func TestFormatTranscript(t *testing.T) {
	turns := []Turn{
		{Role: "agent", Text: "Hello"},
		{Role: "callee", Text: "Who is this"},
	}

	got := FormatTranscript(turns)
	want := "AGENT: Hello\nCALLEE: Who is this"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatTranscriptEmpty(t *testing.T) {
	if got := FormatTranscript(nil); got != "" {
		t.Errorf("expected empty transcript, got %q", got)
	}
}

func TestSummarizeEmbedsTranscriptInOrder(t *testing.T) {
	gen := &fakeTextGenerator{text: "# Summary\nA call."}
	g := New(gen, observability.NewLogger())

	summaryText, err := g.Summarize(context.Background(), []Turn{
		{Role: "agent", Text: "Hello"},
		{Role: "callee", Text: "Who is this"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summaryText != "# Summary\nA call." {
		t.Errorf("expected generated text returned verbatim, got %q", summaryText)
	}

	first := strings.Index(gen.prompt, "AGENT: Hello")
	second := strings.Index(gen.prompt, "CALLEE: Who is this")
	if first == -1 || second == -1 {
		t.Fatalf("prompt missing transcript lines: %q", gen.prompt)
	}
	if first > second {
		t.Error("transcript lines out of order in prompt")
	}
}

func TestSummarizeEmptyTranscriptStillWellFormed(t *testing.T) {
	gen := &fakeTextGenerator{text: "Nothing was said."}
	g := New(gen, observability.NewLogger())

	if _, err := g.Summarize(context.Background(), nil); err != nil {
		t.Fatalf("expected no error for empty transcript, got %v", err)
	}
	if !strings.Contains(gen.prompt, "### Transcript:") {
		t.Errorf("expected prompt to contain transcript section, got %q", gen.prompt)
	}
}

func TestSummarizeWrapsGenerationFailure(t *testing.T) {
	gen := &fakeTextGenerator{err: errors.New("quota exceeded")}
	g := New(gen, observability.NewLogger())

	_, err := g.Summarize(context.Background(), []Turn{{Role: "agent", Text: "hi"}})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected underlying cause in error, got %v", err)
	}
}
