package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/vaxguide/internal/apperr"
	"github.com/hyperjump/vaxguide/internal/models"
	"github.com/hyperjump/vaxguide/internal/pipeline"
)

const (
	replPrompt = "Ask a question (or type 'exit' to quit): "
	separator  = "----------------------------------------"
)

// Asker answers a single question.
type Asker interface {
	Answer(ctx context.Context, question string) (*models.Answer, error)
}

// REPL reads questions line by line and prints answers.
type REPL struct {
	asker       Asker
	in          io.Reader
	out         io.Writer
	format      OutputFormat
	showContext bool
	source      string
}

// REPLOption configures a REPL.
type REPLOption func(*REPL)

// WithFormat sets the answer format.
func WithFormat(f OutputFormat) REPLOption {
	return func(r *REPL) { r.format = f }
}

// WithContext prints the retrieved context below each answer.
func WithContext(show bool) REPLOption {
	return func(r *REPL) { r.showContext = show }
}

// WithSource names the indexed document in the banner.
func WithSource(source string) REPLOption {
	return func(r *REPL) { r.source = source }
}

// NewREPL creates a REPL over in and out.
func NewREPL(asker Asker, in io.Reader, out io.Writer, opts ...REPLOption) *REPL {
	r := &REPL{asker: asker, in: in, out: out, format: OutputText}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loops until "exit", end of input, or ctx is done. Query failures are
// reported and the loop continues. Cancelling ctx returns immediately even
// while a read is pending.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, "\nvaxguide is ready!")
	if r.source != "" {
		fmt.Fprintf(r.out, "Ask a question about the content in '%s'. Type 'exit' to quit.\n", r.source)
	}
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.out, "\n"+replPrompt)
		in, ok := r.readLine(ctx, scanner)
		if !ok {
			return nil
		}
		if !in.ok {
			fmt.Fprintln(r.out)
			return in.err
		}
		line := strings.TrimSpace(in.text)
		if strings.EqualFold(line, "exit") {
			return nil
		}
		if line == "" {
			fmt.Fprintln(r.out, "Please enter a question.")
			continue
		}
		fmt.Fprintln(r.out, "Thinking...")
		r.answer(ctx, line)
		fmt.Fprintln(r.out, separator)
	}
}

type scanResult struct {
	text string
	ok   bool
	err  error
}

// readLine scans one line on its own goroutine so ctx can interrupt the wait.
// It returns false when ctx is done first; the pending scan then finishes in
// the background and is dropped.
func (r *REPL) readLine(ctx context.Context, scanner *bufio.Scanner) (scanResult, bool) {
	done := make(chan scanResult, 1)
	go func() {
		ok := scanner.Scan()
		done <- scanResult{text: scanner.Text(), ok: ok, err: scanner.Err()}
	}()
	select {
	case <-ctx.Done():
		return scanResult{}, false
	case res := <-done:
		return res, true
	}
}

func (r *REPL) answer(ctx context.Context, question string) {
	a, err := r.asker.Answer(ctx, question)
	if err != nil {
		fmt.Fprintln(r.out, ErrorMessage(err))
		return
	}
	if err := WriteAnswer(r.out, a, r.format, r.showContext); err != nil {
		fmt.Fprintf(r.out, "Error writing answer: %v\n", err)
	}
}

// ErrorMessage turns a query failure into the text shown to a user.
func ErrorMessage(err error) string {
	switch {
	case apperr.IsKind(err, apperr.KindGeneration):
		return pipeline.UnableToAnswer
	case apperr.IsKind(err, apperr.KindRetrieval):
		return "Error: could not search the document. Please try again."
	case errors.Is(err, pipeline.ErrNotReady):
		return "Error: the document index is not ready yet."
	case errors.Is(err, pipeline.ErrEmptyQuestion):
		return "Please enter a question."
	default:
		return "Error: something went wrong while answering."
	}
}
