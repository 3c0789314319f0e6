package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperjump/vaxguide/internal/apperr"
	"github.com/hyperjump/vaxguide/internal/config"
	"github.com/hyperjump/vaxguide/internal/prompt"
)

var travelChunks = []string{
	"Yellow fever vaccination is required for travelers to Brazil. The vaccine should be given at least 10 days before travel.",
	"Typhoid vaccination is recommended for travelers to India, especially those visiting rural areas.",
}

func TestExtractiveGenerator_Generate(t *testing.T) {
	g := NewExtractiveGenerator()
	b := prompt.NewBuilder()
	tests := []struct {
		question string
		want     []string
		notWant  []string
	}{
		{
			question: "Is yellow fever vaccine required for Brazil?",
			want:     []string{"Yellow fever", "required", "Brazil"},
			notWant:  []string{"Typhoid"},
		},
		{
			question: "Do I need typhoid shots for India?",
			want:     []string{"Typhoid vaccination is recommended"},
			notWant:  []string{"Brazil"},
		},
		{
			question: "What is the capital of France?",
			want:     []string{DontKnowAnswer},
		},
		{
			question: "???",
			want:     []string{DontKnowAnswer},
		},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			p := b.Build(travelChunks, tt.question)
			got, err := g.Generate(context.Background(), p.Text)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("answer %q missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("answer %q should not contain %q", got, w)
				}
			}
		})
	}
}

func TestExtractiveGenerator_onlyQuotesContext(t *testing.T) {
	p := prompt.NewBuilder().Build(travelChunks, "When should the yellow fever vaccine be given before travel?")
	got, err := NewExtractiveGenerator().Generate(context.Background(), p.Text)
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(travelChunks, " ")
	for _, s := range strings.SplitAfter(got, ". ") {
		if !strings.Contains(joined, strings.TrimSpace(s)) {
			t.Errorf("sentence %q is not from the context", s)
		}
	}
}

func TestExtractiveGenerator_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExtractiveGenerator().Generate(ctx, "Context:\nx\n\nQuestion:\ny\n\nAnswer:")
	if !apperr.IsKind(err, apperr.KindGeneration) {
		t.Errorf("error = %v, want GenerationError", err)
	}
}

func TestSentences(t *testing.T) {
	got := sentences("One fact. Two facts! Is it three?\nLine without stop\n\nOne fact.")
	want := []string{"One fact.", "Two facts!", "Is it three?", "Line without stop"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("sentences = %q, want %q", got, want)
	}
}

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator(&config.LLMConfig{Provider: config.LLMExtractive}, "", nil)
	if err != nil || g.Name() != "extractive" {
		t.Errorf("extractive: %v, %v", g, err)
	}
	g, err = NewGenerator(&config.LLMConfig{Provider: config.LLMOpenAI, Model: "gpt-4o"}, "key", nil)
	if err != nil || g.Name() != "openai-gpt-4o" {
		t.Errorf("openai: %v, %v", g, err)
	}
	if _, err := NewGenerator(&config.LLMConfig{Provider: config.LLMOpenAI}, "", nil); !apperr.IsKind(err, apperr.KindConfiguration) {
		t.Errorf("openai without key: %v", err)
	}
	if _, err := NewGenerator(&config.LLMConfig{Provider: "claude"}, "k", nil); !apperr.IsKind(err, apperr.KindConfiguration) {
		t.Errorf("unknown provider: %v", err)
	}
}
