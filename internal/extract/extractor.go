// Package extract validates uploaded resumes and turns them into plain text.
package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"resumegrade/internal/errors"
)

// Supported upload MIME types
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Format names used in logs and metrics
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
)

var supportedTypes = map[string]string{
	MIMETypePDF:  FormatPDF,
	MIMETypeDOCX: FormatDOCX,
}

// Defaults applied when the extractor is built with zero limits
const (
	DefaultMaxFileSize   int64 = 5 * 1024 * 1024
	DefaultMinTextLength       = 50
)

// User-facing failure messages
const (
	MsgNoFile          = "No file selected"
	MsgUnsupportedType = "Unsupported file type. Please upload a PDF or DOCX file."
	MsgPDFFailed       = "Failed to extract text from PDF. Please ensure the file is not corrupted."
	MsgDOCXFailed      = "Failed to extract text from DOCX. Please ensure the file is not corrupted."
	MsgTextTooShort    = "Extracted text is too short. Please ensure your resume has readable content."
)

// UploadedFile is a resume as received from the user. It is not retained after processing.
type UploadedFile struct {
	Name     string
	MIMEType string
	Size     int64
	Content  []byte
}

// NewUploadedFile builds an UploadedFile, taking its size from content
func NewUploadedFile(name, mimeType string, content []byte) *UploadedFile {
	return &UploadedFile{
		Name:     name,
		MIMEType: mimeType,
		Size:     int64(len(content)),
		Content:  content,
	}
}

// Extraction is the outcome of a successful extraction
type Extraction struct {
	Text      string
	Format    string
	PageCount int
}

// Extractor validates uploads and delegates to the format-specific parsers
type Extractor struct {
	maxFileSize   int64
	minTextLength int
	logger        *errors.Logger
}

// NewExtractor creates an extractor. Zero or negative limits fall back to the defaults.
func NewExtractor(maxFileSize int64, minTextLength int, logger *errors.Logger) *Extractor {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	if minTextLength <= 0 {
		minTextLength = DefaultMinTextLength
	}
	return &Extractor{
		maxFileSize:   maxFileSize,
		minTextLength: minTextLength,
		logger:        logger,
	}
}

// MaxFileSize returns the upload size ceiling in bytes
func (e *Extractor) MaxFileSize() int64 {
	return e.maxFileSize
}

// IsSupportedType reports whether mimeType can be extracted
func IsSupportedType(mimeType string) bool {
	_, ok := supportedTypes[mimeType]
	return ok
}

// FormatFor returns the short format name for mimeType, or "" when unsupported
func FormatFor(mimeType string) string {
	return supportedTypes[mimeType]
}

// Validate checks the file's type and then its size
func (e *Extractor) Validate(file *UploadedFile) error {
	if file == nil {
		return errors.NewValidationError(errors.ErrCodeNoFile, MsgNoFile, nil)
	}

	if !IsSupportedType(file.MIMEType) {
		return errors.NewValidationError(errors.ErrCodeUnsupportedType, MsgUnsupportedType, nil).
			WithContext("mime_type", file.MIMEType)
	}

	if file.Size > e.maxFileSize {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge, e.TooLargeMessage(), nil).
			WithContext("file_size", file.Size)
	}

	return nil
}

// TooLargeMessage is the rejection shown for files over the size limit
func (e *Extractor) TooLargeMessage() string {
	return SizeLimitMessage(e.maxFileSize)
}

// SizeLimitMessage formats the too-large rejection for a limit in bytes
func SizeLimitMessage(maxFileSize int64) string {
	mb := float64(maxFileSize) / (1024 * 1024)
	return fmt.Sprintf("File too large. Maximum size is %gMB.", mb)
}

// ExtractText validates file and returns its plain text
func (e *Extractor) ExtractText(ctx context.Context, file *UploadedFile) (string, error) {
	result, err := e.Extract(ctx, file)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Extract validates file, dispatches on its MIME type and enforces the minimum text length
func (e *Extractor) Extract(ctx context.Context, file *UploadedFile) (*Extraction, error) {
	if err := e.Validate(file); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		result *Extraction
		err    error
	)
	switch supportedTypes[file.MIMEType] {
	case FormatPDF:
		result, err = extractPDF(file.Content)
	case FormatDOCX:
		result, err = extractDOCX(file.Content)
	}
	if err != nil {
		if e.logger != nil {
			e.logger.LogError(err, "Text extraction failed", "file", file.Name, "mime_type", file.MIMEType)
		}
		return nil, err
	}

	length := utf8.RuneCountInString(result.Text)
	if length < e.minTextLength {
		return nil, errors.NewExtractionError(errors.ErrCodeTextTooShort, MsgTextTooShort, nil).
			WithContext("text_length", length)
	}

	if e.logger != nil {
		e.logger.Debug("Text extracted",
			"file", file.Name,
			"format", result.Format,
			"pages", result.PageCount,
			"characters", length)
	}
	return result, nil
}

// cleanText trims the result of an extractor
func cleanText(s string) string {
	return strings.TrimSpace(s)
}
