/*
Package req builds outbound HTTP requests for the API client.

It encodes JSON bodies and multipart forms into memory, so that a request can be
rebuilt byte-for-byte when the refresh guard retries it.
*/
package req

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"oasip/internal/pkg/errs"
)

// New builds a request without a body.
func New(ctx context.Context, method, url string) (*http.Request, error) {
	r, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrEncodeFailed, err)
	}
	return r, nil
}

// NewJSON builds a request whose body is body encoded as JSON.
func NewJSON(ctx context.Context, method, url string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrEncodeFailed, err)
	}

	r, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.ErrEncodeFailed, err)
	}
	r.Header.Set("Content-Type", "application/json")
	return r, nil
}

// NewMultipart builds a request whose body is form encoded as multipart/form-data.
func NewMultipart(ctx context.Context, method, url string, form *Form) (*http.Request, error) {
	body, contentType, err := form.Encode()
	if err != nil {
		return nil, err
	}

	r, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.ErrEncodeFailed, err)
	}
	r.Header.Set("Content-Type", contentType)
	return r, nil
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	name        string
	filename    string
	contentType string
	content     []byte
}

// Form is an ordered multipart form. Fields and files keep insertion order.
type Form struct {
	fields []formField
	files  []formFile
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// Field appends a text field.
func (f *Form) Field(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// File appends a file part. An empty filename with empty content is a valid,
// distinct part: servers read it as an explicitly empty upload.
func (f *Form) File(name, filename, contentType string, content []byte) *Form {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	f.files = append(f.files, formFile{
		name:        name,
		filename:    filename,
		contentType: contentType,
		content:     content,
	})
	return f
}

// Encode renders the form and returns the body and its Content-Type (with boundary).
func (f *Form) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", errs.Wrap(errs.ErrEncodeFailed, err)
		}
	}

	for _, file := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(file.name), escapeQuotes(file.filename)))
		h.Set("Content-Type", file.contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", errs.Wrap(errs.ErrEncodeFailed, err)
		}
		if _, err := io.Copy(part, bytes.NewReader(file.content)); err != nil {
			return nil, "", errs.Wrap(errs.ErrEncodeFailed, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", errs.Wrap(errs.ErrEncodeFailed, err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
