package extract

import (
	"bytes"
	"fmt"
	"strings"

	"resumegrade/internal/errors"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates the plain text of every page, one page per line group
func extractPDF(content []byte) (result *Extraction, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = pdfFailure(fmt.Errorf("pdf parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, pdfFailure(err)
	}

	totalPages := reader.NumPage()
	pages := make([]string, 0, totalPages)
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, pdfFailure(fmt.Errorf("page %d: %w", pageIndex, err))
		}
		pages = append(pages, text)
	}

	text := cleanText(strings.Join(pages, "\n"))
	if text == "" {
		return nil, pdfFailure(fmt.Errorf("no text content found in PDF"))
	}

	return &Extraction{
		Text:      text,
		Format:    FormatPDF,
		PageCount: totalPages,
	}, nil
}

func pdfFailure(cause error) error {
	return errors.NewExtractionError(errors.ErrCodePDFExtraction, MsgPDFFailed, cause)
}
