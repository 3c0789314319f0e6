package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/vaxguide/internal/apperr"
)

func TestText_plain(t *testing.T) {
	got, err := Text([]byte("Hello world\nLine 2"), ".txt")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestText_plainBOMAndInvalidUTF8(t *testing.T) {
	got, err := Text([]byte("\xef\xbb\xbfhello\x80world"), ".md")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "hello\uFFFDworld" {
		t.Errorf("got %q", got)
	}
}

func TestText_unknownExtension(t *testing.T) {
	got, err := Text([]byte("raw content"), ".xyz")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "raw content" {
		t.Errorf("got %q", got)
	}
	if Supported(".xyz") {
		t.Error(".xyz should not be reported as supported")
	}
	if !Supported(".PDF") {
		t.Error(".PDF should be supported")
	}
}

func TestText_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Country")
	f.SetCellValue("Sheet1", "B1", "Vaccine")
	f.SetCellValue("Sheet1", "A2", "Brazil")
	f.SetCellValue("Sheet1", "B2", "Yellow fever")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	got, err := Text(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "Country\tVaccine\nBrazil\tYellow fever" {
		t.Errorf("got %q", got)
	}
}

// docxWithBody returns .docx bytes whose word/document.xml holds body.
func docxWithBody(body string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestText_docxParagraphs(t *testing.T) {
	content := docxWithBody(
		`<w:p w:rsidR="00AB"><w:r><w:t>Yellow fever vaccine</w:t></w:r><w:r><w:t xml:space="preserve"> is required.</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>Take it 10 days before travel.</w:t></w:r></w:p>`)
	got, err := Text(content, ".docx")
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	want := "Yellow fever vaccine is required.\n\nTake it 10 days before travel."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestText_docxInvalid(t *testing.T) {
	if _, err := Text([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, _ = w.Create("other.xml")
	_ = w.Close()
	if _, err := Text(buf.Bytes(), ".docx"); err == nil {
		t.Error("expected error when word/document.xml is missing")
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my_document.txt")
	text := "Yellow fever vaccine is required for travel to Brazil. Take it 10 days before travel."
	if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		t.Fatal(err)
	}
	doc, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Content != text || doc.Source != path || doc.ID == "" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestLoader_LoadFailures(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, []byte(" \n\t\n"), 0600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name      string
		path      string
		wantEmpty bool
	}{
		{"missing", filepath.Join(dir, "missing.txt"), false},
		{"whitespace only", empty, true},
		{"directory", dir, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Load(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !apperr.IsKind(err, apperr.KindConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
			if tt.wantEmpty && !errors.Is(err, ErrEmptyDocument) {
				t.Errorf("expected ErrEmptyDocument, got %v", err)
			}
		})
	}
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  a  b  ", "a b"},
		{"line one\r\nline two", "line one\nline two"},
		{"para one\n\n\n\n para two ", "para one\n\npara two"},
		{"\ufefftabs\t\there", "tabs here"},
		{"   ", ""},
		{"trailing   \r\nspaces \r\n", "trailing\nspaces"},
	}
	for _, tt := range tests {
		if got := Preprocess(tt.in); got != tt.want {
			t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewDocument_normalizesContent(t *testing.T) {
	raw := "\ufeffLine one.   \r\nYellow fever vaccine is required for Brazil.\r\n"
	doc := NewDocument("crlf.txt", raw)
	want := "Line one.\nYellow fever vaccine is required for Brazil."
	if doc.Content != want {
		t.Errorf("Content = %q, want %q", doc.Content, want)
	}
}

func TestLoader_LoadNormalizesLineEndings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crlf.txt")
	if err := os.WriteFile(path, []byte("Typhoid vaccine is recommended.  \r\n\r\n\r\nHepatitis A too.\r\n"), 0600); err != nil {
		t.Fatal(err)
	}
	doc, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := "Typhoid vaccine is recommended.\n\nHepatitis A too."; doc.Content != want {
		t.Errorf("Content = %q, want %q", doc.Content, want)
	}
}
