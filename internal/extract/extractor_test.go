package extract

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"resumegrade/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResumeLine = "Senior Software Engineer with eight years of experience building payment platforms"

func TestValidate(t *testing.T) {
	e := NewExtractor(0, 0, nil)

	tests := []struct {
		name    string
		file    *UploadedFile
		message string
	}{
		{
			name:    "no file",
			file:    nil,
			message: MsgNoFile,
		},
		{
			name:    "unsupported type",
			file:    NewUploadedFile("resume.txt", "text/plain", []byte("hello")),
			message: MsgUnsupportedType,
		},
		{
			name: "unsupported type reported before size",
			file: &UploadedFile{
				Name:     "huge.png",
				MIMEType: "image/png",
				Size:     DefaultMaxFileSize * 2,
			},
			message: MsgUnsupportedType,
		},
		{
			name: "too large",
			file: &UploadedFile{
				Name:     "resume.pdf",
				MIMEType: MIMETypePDF,
				Size:     6 * 1024 * 1024,
			},
			message: "File too large. Maximum size is 5MB.",
		},
		{
			name: "too large docx",
			file: &UploadedFile{
				Name:     "resume.docx",
				MIMEType: MIMETypeDOCX,
				Size:     DefaultMaxFileSize + 1,
			},
			message: "File too large. Maximum size is 5MB.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Validate(tt.file)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			assert.Equal(t, tt.message, errors.UserMessage(err))
		})
	}
}

func TestValidateAcceptsSizeAtLimit(t *testing.T) {
	e := NewExtractor(0, 0, nil)

	for _, mime := range []string{MIMETypePDF, MIMETypeDOCX} {
		err := e.Validate(&UploadedFile{Name: "resume", MIMEType: mime, Size: DefaultMaxFileSize})
		assert.NoError(t, err, mime)

		err = e.Validate(&UploadedFile{Name: "resume", MIMEType: mime, Size: 2 * 1024 * 1024})
		assert.NoError(t, err, mime)
	}
}

func TestExtractPDF(t *testing.T) {
	e := NewExtractor(0, 0, nil)
	file := NewUploadedFile("resume.pdf", MIMETypePDF, buildPDF(t, sampleResumeLine))

	result, err := e.Extract(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, result.Format)
	assert.Equal(t, 1, result.PageCount)
	assert.Contains(t, result.Text, "Senior Software Engineer")
	assert.Equal(t, strings.TrimSpace(result.Text), result.Text)
}

func TestExtractPDFFailures(t *testing.T) {
	e := NewExtractor(0, 0, nil)

	tests := []struct {
		name    string
		content []byte
	}{
		{name: "garbage", content: []byte("this is definitely not a pdf document")},
		{name: "truncated", content: buildPDF(t, sampleResumeLine)[:40]},
		{name: "no text", content: buildPDF(t, "   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ExtractText(context.Background(), NewUploadedFile("resume.pdf", MIMETypePDF, tt.content))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))
			assert.Equal(t, MsgPDFFailed, errors.UserMessage(err))
		})
	}
}

func TestExtractDOCX(t *testing.T) {
	e := NewExtractor(0, 0, nil)
	body := `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Senior</w:t><w:tab/><w:t>Engineer</w:t><w:br/><w:t xml:space="preserve">` + sampleResumeLine + `</w:t></w:r></w:p>`

	text, err := e.ExtractText(context.Background(), NewUploadedFile("resume.docx", MIMETypeDOCX, buildDOCX(t, body)))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n\nSenior\tEngineer\n"+sampleResumeLine, text)
}

func TestExtractDOCXFailures(t *testing.T) {
	e := NewExtractor(0, 0, nil)

	tests := []struct {
		name    string
		content []byte
	}{
		{name: "not a zip", content: []byte("plain bytes pretending to be a docx file")},
		{name: "missing document part", content: buildZip(t)},
		{name: "empty document", content: buildDOCX(t, `<w:p><w:r><w:t>   </w:t></w:r></w:p>`)},
		{name: "malformed xml", content: buildDOCX(t, `<w:p><w:r><w:t>broken`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ExtractText(context.Background(), NewUploadedFile("resume.docx", MIMETypeDOCX, tt.content))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeExtraction))
			assert.Equal(t, MsgDOCXFailed, errors.UserMessage(err))
		})
	}
}

func TestExtractTextTooShort(t *testing.T) {
	e := NewExtractor(0, 0, nil)

	pdfFile := NewUploadedFile("short.pdf", MIMETypePDF, buildPDF(t, "Jane Doe"))
	_, err := e.ExtractText(context.Background(), pdfFile)
	require.Error(t, err)
	assert.Equal(t, MsgTextTooShort, errors.UserMessage(err))

	docxFile := NewUploadedFile("short.docx", MIMETypeDOCX, buildDOCX(t, `<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>`))
	_, err = e.ExtractText(context.Background(), docxFile)
	require.Error(t, err)
	assert.Equal(t, MsgTextTooShort, errors.UserMessage(err))
}

func TestExtractTextCountsCharacters(t *testing.T) {
	e := NewExtractor(0, 10, nil)

	// ten runes, more than ten bytes
	body := `<w:p><w:r><w:t>résumé ééé</w:t></w:r></w:p>`
	text, err := e.ExtractText(context.Background(), NewUploadedFile("r.docx", MIMETypeDOCX, buildDOCX(t, body)))
	require.NoError(t, err)
	assert.Equal(t, "résumé ééé", text)
}

func TestExtractRevalidates(t *testing.T) {
	e := NewExtractor(0, 0, nil)

	_, err := e.ExtractText(context.Background(), NewUploadedFile("resume.rtf", "application/rtf", []byte("{\\rtf1}")))
	require.Error(t, err)
	assert.Equal(t, MsgUnsupportedType, errors.UserMessage(err))

	big := NewUploadedFile("resume.pdf", MIMETypePDF, bytes.Repeat([]byte("a"), int(DefaultMaxFileSize)+1))
	_, err = e.ExtractText(context.Background(), big)
	require.Error(t, err)
	assert.Equal(t, "File too large. Maximum size is 5MB.", errors.UserMessage(err))
}

func TestCustomSizeLimitMessage(t *testing.T) {
	e := NewExtractor(2*1024*1024, 0, nil)
	err := e.Validate(&UploadedFile{Name: "r.pdf", MIMEType: MIMETypePDF, Size: 3 * 1024 * 1024})
	require.Error(t, err)
	assert.Equal(t, "File too large. Maximum size is 2MB.", errors.UserMessage(err))
}

func TestDetectMIMEType(t *testing.T) {
	assert.Equal(t, MIMETypePDF, DetectMIMEType("resume.pdf", buildPDF(t, sampleResumeLine)))
	assert.Equal(t, MIMETypeDOCX, DetectMIMEType("resume.docx", buildDOCX(t, `<w:p><w:r><w:t>x</w:t></w:r></w:p>`)))
	assert.Equal(t, "text/plain", DetectMIMEType("resume.txt", []byte("just some text")))
	assert.False(t, IsSupportedType(DetectMIMEType("archive.zip", buildZip(t))))
}

func TestResolveMIMEType(t *testing.T) {
	pdf := buildPDF(t, sampleResumeLine)
	assert.Equal(t, MIMETypePDF, ResolveMIMEType("application/pdf", "resume.pdf", pdf))
	assert.Equal(t, MIMETypePDF, ResolveMIMEType("application/octet-stream", "resume.pdf", pdf))
	assert.Equal(t, MIMETypePDF, ResolveMIMEType("", "resume", pdf))
	assert.Equal(t, "text/plain", ResolveMIMEType("text/plain; charset=utf-8", "resume.txt", []byte("plain text")))
}
