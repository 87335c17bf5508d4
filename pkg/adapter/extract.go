package adapter

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrExtraction indicates the source document could not be converted to text.
var ErrExtraction = goerr.New("failed to extract text from source")

// Extractor converts an uploaded document into plain text. The extraction
// itself is a capability boundary: the rest of the pipeline only ever sees
// the returned text.
type Extractor interface {
	Extract(ctx context.Context, filename string, r io.Reader) (string, error)
}

// CommandRunner executes an external command and returns its stdout. It
// exists so tests can stub out the pdftotext invocation.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// TextExtractor extracts plain text from PDF and text sources. PDF
// conversion shells out to pdftotext; anything else is treated as UTF-8
// text and passed through as-is.
type TextExtractor struct {
	runner CommandRunner
}

type ExtractorOption func(*TextExtractor)

// WithRunner replaces the command runner used for PDF conversion
func WithRunner(r CommandRunner) ExtractorOption {
	return func(e *TextExtractor) {
		e.runner = r
	}
}

func NewExtractor(opts ...ExtractorOption) *TextExtractor {
	e := &TextExtractor{
		runner: execRunner{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *TextExtractor) Extract(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read source", goerr.Value("filename", filename))
	}

	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return e.extractPDF(ctx, filename, data)
	}

	return string(data), nil
}

func (e *TextExtractor) extractPDF(ctx context.Context, filename string, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "refundo-*.pdf")
	if err != nil {
		return "", goerr.Wrap(err, "failed to create temporary file")
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", goerr.Wrap(err, "failed to write temporary file")
	}
	if err := tmp.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to close temporary file")
	}

	// "-" sends the extracted text to stdout
	out, err := e.runner.Run(ctx, "pdftotext", "-layout", tmp.Name(), "-")
	if err != nil {
		return "", goerr.Wrap(ErrExtraction, "pdftotext failed",
			goerr.Value("filename", filename), goerr.Value("cause", err.Error()))
	}

	return string(out), nil
}
