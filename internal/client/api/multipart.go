package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Form accumulates fields and file attachments for a multipart submission.
type Form struct {
	fields [][2]string
	files  []formFile
}

type formFile struct {
	field    string
	filename string
	content  io.Reader
}

func NewForm() *Form {
	return &Form{}
}

// AddField appends a plain text field.
func (f *Form) AddField(name, value string) *Form {
	f.fields = append(f.fields, [2]string{name, value})
	return f
}

// AddFile attaches the contents of r as a file part under the given field.
func (f *Form) AddFile(field, filename string, r io.Reader) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, content: r})
	return f
}

// Encode renders the form into a multipart/form-data body. The body is
// materialized as bytes so the access layer can replay it on a
// refresh-and-retry.
func (f *Form) Encode() (contentType string, body []byte, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return "", nil, fmt.Errorf("write field %s: %w", field[0], err)
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return "", nil, fmt.Errorf("create file part %s: %w", file.filename, err)
		}
		if _, err := io.Copy(part, file.content); err != nil {
			return "", nil, fmt.Errorf("copy file %s: %w", file.filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, err
	}

	return w.FormDataContentType(), buf.Bytes(), nil
}
