package services

import (
	"errors"
	"strings"

	"github.com/gamifylearn/gamification-api/utils/pdfvalidation"
	"github.com/gofiber/fiber/v2/log"
)

var ErrNoPDFText = errors.New("no text could be extracted from PDF")

// PDFExtractor handles PDF text extraction using ledongthuc/pdf
type PDFExtractor struct {
	limits pdfvalidation.Limits
}

// NewPDFExtractor creates a new PDF extractor bounded by the submission limits
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{limits: pdfvalidation.SubmissionLimits}
}

// ExtractText returns the text of every page, one row per line
func (p *PDFExtractor) ExtractText(content []byte) (string, error) {
	pdfReader, err := pdfvalidation.Open(content, p.limits)
	if err != nil {
		return "", err
	}

	numPages := pdfReader.NumPage()

	var textBuilder strings.Builder
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			// fall back to plain text when rows cannot be rebuilt
			text, plainErr := page.GetPlainText(nil)
			if plainErr != nil {
				log.Warnf("PDF extractor: page %d unreadable: %v", i, plainErr)
				continue
			}
			textBuilder.WriteString(text)
			textBuilder.WriteString("\n")
			continue
		}

		for _, row := range rows {
			var rowText strings.Builder
			for _, word := range row.Content {
				rowText.WriteString(word.S)
			}
			if line := strings.TrimSpace(rowText.String()); line != "" {
				textBuilder.WriteString(line)
				textBuilder.WriteString("\n")
			}
		}
	}

	extracted := strings.TrimSpace(textBuilder.String())
	if extracted == "" {
		return "", ErrNoPDFText
	}
	return extracted, nil
}
