package pdfvalidation

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var (
	ErrEmpty         = errors.New("empty PDF content")
	ErrMissingHeader = errors.New("invalid PDF file: missing PDF header")
	ErrNoPages       = errors.New("PDF has no pages")
)

// Limits bounds the documents the API is willing to parse
type Limits struct {
	MaxFileSizeMB int
	MaxPages      int
	Label         string // used in error messages, e.g. "submission"
}

// SubmissionLimits applies to learner uploads that are parsed for grading
var SubmissionLimits = Limits{
	MaxFileSizeMB: 20,
	MaxPages:      200,
	Label:         "submission",
}

// LimitError reports a document over one of its limits
type LimitError struct {
	Message string
}

func (e *LimitError) Error() string {
	return e.Message
}

// Open sanitizes content, checks it against limits and returns a reader over it
func Open(content []byte, limits Limits) (*pdf.Reader, error) {
	if len(content) == 0 {
		return nil, ErrEmpty
	}
	if limits.MaxFileSizeMB > 0 && int64(len(content)) > int64(limits.MaxFileSizeMB)<<20 {
		return nil, &LimitError{Message: fmt.Sprintf("File size exceeds maximum allowed size of %dMB", limits.MaxFileSizeMB)}
	}
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return nil, ErrMissingHeader
	}

	content = Sanitize(content)
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	pages := reader.NumPage()
	switch {
	case pages == 0:
		return nil, ErrNoPages
	case limits.MaxPages > 0 && pages > limits.MaxPages:
		return nil, &LimitError{Message: fmt.Sprintf("PDF has %d pages, which exceeds the maximum of %d pages for %s",
			pages, limits.MaxPages, limits.Label)}
	}
	return reader, nil
}

// Sanitize drops trailing garbage some generators append after the last %%EOF
func Sanitize(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("%PDF-")) {
		return content
	}

	eofMarker := []byte("%%EOF")
	lastEOF := bytes.LastIndex(content, eofMarker)
	if lastEOF == -1 {
		return content
	}

	pdfEnd := lastEOF + len(eofMarker)
	for pdfEnd < len(content) && (content[pdfEnd] == '\n' || content[pdfEnd] == '\r') {
		pdfEnd++
	}

	if len(content)-pdfEnd > 10 {
		return content[:pdfEnd]
	}
	return content
}
