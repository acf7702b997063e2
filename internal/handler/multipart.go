package handler

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/josh-kwaku/tizim-bank/internal/media"
)

// form slack on top of the file limit for the text fields
const formOverhead = 64 << 10

type formFile struct {
	file   multipart.File
	header *multipart.FileHeader
}

func (f *formFile) upload() *media.Upload {
	return &media.Upload{
		Filename:    f.header.Filename,
		ContentType: f.header.Header.Get("Content-Type"),
		Body:        f.file,
	}
}

type multipartForm struct {
	form  *multipart.Form
	files []multipart.File
}

func isMultipart(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "multipart/form-data"
}

func parseMultipart(w http.ResponseWriter, r *http.Request, maxUpload int64) (*multipartForm, *AppError) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxUpload+formOverhead)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, ErrMediaTooLarge
		}
		return nil, ErrInvalidRequest
	}
	return &multipartForm{form: r.MultipartForm}, nil
}

func (m *multipartForm) value(name string) string {
	if v := m.form.Value[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// file returns nil when the field is absent.
func (m *multipartForm) file(name string) *formFile {
	headers := m.form.File[name]
	if len(headers) == 0 {
		return nil
	}
	f, err := headers[0].Open()
	if err != nil {
		return nil
	}
	m.files = append(m.files, f)
	return &formFile{file: f, header: headers[0]}
}

func (m *multipartForm) close() {
	for _, f := range m.files {
		f.Close()
	}
	m.form.RemoveAll()
}
