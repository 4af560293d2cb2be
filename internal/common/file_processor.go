package common

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"resumegrade/internal/errors"
	"resumegrade/internal/extract"
	"resumegrade/internal/utils"
)

// FileProcessor loads resumes from disk and writes reports
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// LoadUpload reads a resume from disk and describes it the way a browser
// upload would, with the MIME type sniffed from its content. Reading stops
// one byte past maxSize so the size check still fires without loading the
// whole file.
func (fp *FileProcessor) LoadUpload(filename string, maxSize int64) (*extract.UploadedFile, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	if !utils.IsResumeFile(filename) && fp.logger != nil {
		fp.logger.Warn("File does not look like a PDF or DOCX resume", "filename", filename)
	}

	content, err := utils.ReadFileLimited(filename, maxSize)
	if err != nil {
		code := errors.ErrCodeFileNotReadable
		if stderrors.Is(err, fs.ErrNotExist) {
			code = errors.ErrCodeFileNotFound
		}
		return nil, errors.NewIOError(code, fmt.Sprintf("Cannot read file: %s", filename), err)
	}

	mimeType := extract.DetectMIMEType(filename, content)
	if fp.logger != nil {
		fp.logger.Debug("Loaded resume",
			"filename", filename,
			"mime_type", mimeType,
			"size", utils.FormatFileSize(int64(len(content))))
	}
	return extract.NewUploadedFile(filepath.Base(filename), mimeType, content), nil
}

// WriteFile writes a report, creating its directory
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if err := utils.EnsureParentDir(filename); err != nil {
		return errors.NewIOError("DIRECTORY_CREATE_FAILED", "Cannot create report directory", err)
	}
	if err := os.WriteFile(filename, []byte(content), 0o600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}
