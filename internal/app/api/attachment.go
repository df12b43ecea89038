package api

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"oasip/internal/pkg/errs"
)

const (
	// MaxAttachmentSizeMB is the largest attachment the backend accepts, in megabytes.
	MaxAttachmentSizeMB = 10

	// MaxAttachmentSize is MaxAttachmentSizeMB in bytes.
	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024
)

// FileUpload is an attachment held in memory so a retried request can resend it.
type FileUpload struct {
	Name        string
	ContentType string
	Content     []byte
}

// ReadFileUpload loads the file at path. The content type comes from the extension,
// then from sniffing the content.
func ReadFileUpload(path string) (*FileUpload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidParams, err)
	}
	if customErr := ValidateFileSize(info.Size()); customErr != nil {
		return nil, customErr
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidParams, err)
	}

	return &FileUpload{
		Name:        filepath.Base(path),
		ContentType: DetectContentType(path, content),
		Content:     content,
	}, nil
}

// DetectContentType guesses the MIME type of a file from its name and content.
func DetectContentType(name string, content []byte) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt
	}
	return http.DetectContentType(content)
}

// Validate checks the upload has a name and an acceptable size.
func (f *FileUpload) Validate() *errs.CustomError {
	if strings.TrimSpace(f.Name) == "" {
		return errs.NewError(errs.ErrInvalidParams).WithDetails(map[string]string{"file": "file name is required"})
	}
	return ValidateFileSize(int64(len(f.Content)))
}

// ValidateFileSize checks that fileSize is within the attachment limit.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams).WithDetails(map[string]string{"file": "file is empty"})
	}

	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileTooLarge)
	}

	return nil
}

// FileChange says what UpdateEvent does with an event's attachment.
type FileChange struct {
	kind fileChangeKind
	file *FileUpload
}

type fileChangeKind int

const (
	fileKeep fileChangeKind = iota
	fileDelete
	fileReplace
)

// KeepFile leaves the attachment unchanged: the request carries no file field.
func KeepFile() FileChange { return FileChange{kind: fileKeep} }

// DeleteFile removes the attachment: the request carries an empty file part.
func DeleteFile() FileChange { return FileChange{kind: fileDelete} }

// ReplaceFile sets the attachment to f.
func ReplaceFile(f *FileUpload) FileChange { return FileChange{kind: fileReplace, file: f} }

func (c FileChange) String() string {
	switch c.kind {
	case fileDelete:
		return "delete"
	case fileReplace:
		return "replace"
	default:
		return "keep"
	}
}
