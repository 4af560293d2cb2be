package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"resumegrade/internal/errors"
)

const docxDocumentPart = "word/document.xml"

// WordprocessingML element names that affect raw text
const (
	wordParagraph = "p"
	wordText      = "t"
	wordTab       = "tab"
	wordBreak     = "br"
	wordCarriage  = "cr"
	wordParaProps = "pPr"
)

// extractDOCX returns the raw text of the main document part. Paragraphs are
// separated by a blank line.
func extractDOCX(content []byte) (*Extraction, error) {
	archive, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, docxFailure(err)
	}

	var part *zip.File
	for _, f := range archive.File {
		if f.Name == docxDocumentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, docxFailure(fmt.Errorf("%s not found in archive", docxDocumentPart))
	}

	rc, err := part.Open()
	if err != nil {
		return nil, docxFailure(err)
	}
	defer func() { _ = rc.Close() }()

	text, err := documentText(rc)
	if err != nil {
		return nil, docxFailure(err)
	}

	text = cleanText(text)
	if text == "" {
		return nil, docxFailure(fmt.Errorf("no text content found in DOCX"))
	}

	return &Extraction{
		Text:   text,
		Format: FormatDOCX,
	}, nil
}

// documentText walks document.xml collecting w:t runs
func documentText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		out       strings.Builder
		paragraph strings.Builder
		inText    bool
		inProps   bool
		started   bool
	)

	flush := func() {
		if started {
			out.WriteString("\n\n")
		}
		out.WriteString(paragraph.String())
		paragraph.Reset()
		started = true
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case wordText:
				inText = true
			case wordParaProps:
				inProps = true
			case wordTab:
				// tab stops declared in paragraph properties are not content
				if inProps {
					continue
				}
				paragraph.WriteByte('\t')
			case wordBreak, wordCarriage:
				if inProps {
					continue
				}
				paragraph.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case wordText:
				inText = false
			case wordParaProps:
				inProps = false
			case wordParagraph:
				flush()
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}

	if paragraph.Len() > 0 {
		flush()
	}
	return out.String(), nil
}

func docxFailure(cause error) error {
	return errors.NewExtractionError(errors.ErrCodeDOCXExtraction, MsgDOCXFailed, cause)
}
