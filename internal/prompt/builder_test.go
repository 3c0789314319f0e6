package prompt

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder()
	chunks := []string{
		"Yellow fever vaccination is required for travelers to Brazil.",
		"The vaccine should be given at least 10 days before travel.",
	}
	q := "Is yellow fever vaccine required for Brazil?"
	p := b.Build(chunks, q)

	if p.EmptyContext {
		t.Error("EmptyContext set for non-empty chunks")
	}
	for _, c := range chunks {
		if !strings.Contains(p.Text, c) {
			t.Errorf("prompt missing chunk %q", c)
		}
	}
	if !strings.Contains(p.Text, "Question:\n"+q+"\n") {
		t.Errorf("prompt missing question section:\n%s", p.Text)
	}
	if p.Context != chunks[0]+"\n\n"+chunks[1] {
		t.Errorf("Context = %q", p.Context)
	}
	if !strings.HasPrefix(p.Text, "You are an assistant for question-answering tasks.") || !strings.HasSuffix(p.Text, "Answer:") {
		t.Errorf("unexpected prompt frame:\n%s", p.Text)
	}
	if strings.Index(p.Text, chunks[0]) > strings.Index(p.Text, chunks[1]) {
		t.Error("chunk order not preserved")
	}
}

func TestBuilder_Build_emptyContext(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := NewBuilder(WithLogger(zap.New(core)))

	for _, chunks := range [][]string{nil, {}, {"", "  \n "}} {
		p := b.Build(chunks, "What is the capital of France?")
		if !p.EmptyContext {
			t.Errorf("Build(%q) EmptyContext = false", chunks)
		}
		if !strings.Contains(p.Text, "What is the capital of France?") {
			t.Error("question missing from prompt")
		}
	}
	if logs.Len() != 3 {
		t.Errorf("warnings logged = %d, want 3", logs.Len())
	}
}

func TestBuilder_placeholdersInInputAreLiteral(t *testing.T) {
	p := NewBuilder().Build([]string{"chunk mentions {question}"}, "what about {context}?")
	if !strings.Contains(p.Text, "chunk mentions {question}") || !strings.Contains(p.Text, "what about {context}?") {
		t.Errorf("placeholders in input were substituted:\n%s", p.Text)
	}
}

func TestWithTemplate(t *testing.T) {
	p := NewBuilder(WithTemplate("Q={question} C={context}")).Build([]string{"a", "b"}, "why")
	if p.Text != "Q=why C=a\n\nb" {
		t.Errorf("Text = %q", p.Text)
	}
	p = NewBuilder(WithTemplate("  ")).Build([]string{"a"}, "why")
	if !strings.HasPrefix(p.Text, "You are an assistant") {
		t.Error("blank template should keep the default")
	}
}
