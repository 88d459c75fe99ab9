package binder

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"reflect"
	"strings"
)

// DefaultMaxMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const DefaultMaxMemory = 10 << 20

// FileUpload is an uploaded file. Open returns its content.
type FileUpload struct {
	Filename string
	Size     int64
	header   *multipart.FileHeader
}

// ContentType returns the declared MIME type, falling back to the extension.
func (f *FileUpload) ContentType() string {
	if f.header != nil {
		if ct := f.header.Header.Get("Content-Type"); ct != "" {
			mediaType, _, _ := mime.ParseMediaType(ct)
			return mediaType
		}
	}
	return mime.TypeByExtension(filepath.Ext(f.Filename))
}

// Open opens the uploaded content. The caller closes it.
func (f *FileUpload) Open() (multipart.File, error) {
	if f.header == nil {
		return nil, ErrMissingFile
	}
	return f.header.Open()
}

var fileUploadType = reflect.TypeFor[FileUpload]()

// BindMultipart parses a multipart/form-data body of at most maxBytes and
// binds `form` tagged values and `file` tagged *FileUpload fields.
// A required file is expressed with `validate:"required"` on the field.
func BindMultipart(maxBytes int64) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			return fmt.Errorf("%w: expected multipart/form-data", ErrUnsupportedMediaType)
		}

		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
		}
		if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
				return fmt.Errorf("%w: max %d bytes", ErrRequestTooLarge, maxBytes)
			}
			return fmt.Errorf("%w: %v", ErrInvalidForm, err)
		}

		if err := bindToStruct(v, "form", r.MultipartForm.Value, ErrInvalidForm); err != nil {
			return err
		}
		return bindFiles(v, r.MultipartForm.File)
	}
}

func bindFiles(v any, files map[string][]*multipart.FileHeader) error {
	rv, err := structValue(v, ErrInvalidForm)
	if err != nil {
		return err
	}

	rt := rv.Type()
	for i := range rt.NumField() {
		name, skip := parseFieldTag(rt.Field(i), "file")
		if skip {
			continue
		}
		field := rv.Field(i)
		if !field.CanSet() || field.Type() != reflect.PointerTo(fileUploadType) {
			return fmt.Errorf("%w: field %s must be *binder.FileUpload", ErrInvalidForm, rt.Field(i).Name)
		}

		headers := files[name]
		if len(headers) == 0 {
			continue
		}
		field.Set(reflect.ValueOf(&FileUpload{
			Filename: filepath.Base(headers[0].Filename),
			Size:     headers[0].Size,
			header:   headers[0],
		}))
	}
	return nil
}
