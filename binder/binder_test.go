package binder_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ndavault/binder"
)

type createRequest struct {
	PriceID         string `json:"priceId" validate:"required"`
	PaymentMethodID string `json:"paymentMethodId"`
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return req
}

func TestBindJSON(t *testing.T) {
	t.Parallel()

	bind := binder.BindJSON()

	t.Run("decodes", func(t *testing.T) {
		t.Parallel()
		var req createRequest
		require.NoError(t, bind(jsonRequest(`{"priceId":"pro","paymentMethodId":"pm_1"}`), &req))
		assert.Equal(t, "pro", req.PriceID)
		assert.Equal(t, "pm_1", req.PaymentMethodID)
	})

	t.Run("validates", func(t *testing.T) {
		t.Parallel()
		var req createRequest
		err := bind(jsonRequest(`{"paymentMethodId":"pm_1"}`), &req)

		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "priceId", verrs[0].Field())
		assert.Equal(t, "required", verrs[0].Tag())
	})

	tests := []struct {
		name        string
		contentType string
		body        string
		err         error
	}{
		{name: "unknown field", contentType: "application/json", body: `{"priceId":"pro","x":1}`, err: binder.ErrInvalidJSON},
		{name: "empty body", contentType: "application/json", body: ``, err: binder.ErrInvalidJSON},
		{name: "malformed", contentType: "application/json", body: `{"priceId":`, err: binder.ErrInvalidJSON},
		{name: "trailing data", contentType: "application/json", body: `{"priceId":"pro"}{}`, err: binder.ErrInvalidJSON},
		{name: "missing content type", contentType: "", body: `{}`, err: binder.ErrMissingContentType},
		{name: "wrong content type", contentType: "text/plain", body: `{}`, err: binder.ErrUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			var dst createRequest
			assert.ErrorIs(t, bind(req, &dst), tt.err)
		})
	}
}

func TestBindQuery(t *testing.T) {
	t.Parallel()

	type runRequest struct {
		Send    bool      `query:"send"`
		Horizon int       `query:"horizon"`
		AsOf    time.Time `query:"as_of"`
		Tags    []string  `query:"tags"`
		Ignored string
	}

	var req runRequest
	r := httptest.NewRequest(http.MethodPost, "/?send=true&horizon=7&as_of=2025-03-01&tags=a,b&Ignored=x", nil)
	require.NoError(t, binder.BindQuery()(r, &req))

	assert.True(t, req.Send)
	assert.Equal(t, 7, req.Horizon)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), req.AsOf)
	assert.Equal(t, []string{"a", "b"}, req.Tags)
	assert.Empty(t, req.Ignored)

	r = httptest.NewRequest(http.MethodPost, "/?horizon=soon", nil)
	assert.ErrorIs(t, binder.BindQuery()(r, &req), binder.ErrInvalidQuery)
}

func TestBindPath(t *testing.T) {
	t.Parallel()

	type idRequest struct {
		ID uuid.UUID `path:"id"`
	}
	params := map[string]string{}
	bind := binder.BindPath(func(_ *http.Request, name string) string { return params[name] })

	id := uuid.New()
	params["id"] = id.String()

	var req idRequest
	require.NoError(t, bind(httptest.NewRequest(http.MethodGet, "/", nil), &req))
	assert.Equal(t, id, req.ID)

	params["id"] = "not-a-uuid"
	assert.ErrorIs(t, bind(httptest.NewRequest(http.MethodGet, "/", nil), &req), binder.ErrInvalidPath)

	assert.Panics(t, func() { binder.BindPath(nil) })
}

type uploadRequest struct {
	Counterparty string             `form:"counterparty_name" validate:"required"`
	Expiration   time.Time          `form:"expiration_date"`
	Effective    *time.Time         `form:"effective_date"`
	Years        *int               `form:"confidentiality_period"`
	File         *binder.FileUpload `file:"file" validate:"required"`
}

func multipartRequest(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestBindMultipart(t *testing.T) {
	t.Parallel()

	bind := binder.BindMultipart(1 << 20)

	t.Run("fields and file", func(t *testing.T) {
		t.Parallel()
		req := multipartRequest(t, map[string]string{
			"counterparty_name":      "Acme",
			"expiration_date":        "2026-01-31",
			"effective_date":         "2025-01-31",
			"confidentiality_period": "3",
		}, "../nda.pdf", []byte("%PDF-1.7"))

		var dst uploadRequest
		require.NoError(t, bind(req, &dst))
		require.NoError(t, binder.Struct(&dst))

		assert.Equal(t, "Acme", dst.Counterparty)
		assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), dst.Expiration)
		require.NotNil(t, dst.Effective)
		require.NotNil(t, dst.Years)
		assert.Equal(t, 3, *dst.Years)

		require.NotNil(t, dst.File)
		assert.Equal(t, "nda.pdf", dst.File.Filename)
		assert.Equal(t, int64(8), dst.File.Size)

		f, err := dst.File.Open()
		require.NoError(t, err)
		defer f.Close()
		content, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7", string(content))
	})

	t.Run("missing file fails validation", func(t *testing.T) {
		t.Parallel()
		req := multipartRequest(t, map[string]string{"counterparty_name": "Acme"}, "", nil)

		var dst uploadRequest
		require.NoError(t, bind(req, &dst))
		assert.Nil(t, dst.File)

		var verrs validator.ValidationErrors
		require.ErrorAs(t, binder.Struct(&dst), &verrs)
		assert.Equal(t, "file", verrs[0].Field())
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		req := multipartRequest(t, nil, "big.pdf", bytes.Repeat([]byte("x"), 2<<20))

		var dst uploadRequest
		assert.ErrorIs(t, bind(req, &dst), binder.ErrRequestTooLarge)
	})

	t.Run("not multipart", func(t *testing.T) {
		t.Parallel()
		var dst uploadRequest
		assert.ErrorIs(t, bind(jsonRequest(`{}`), &dst), binder.ErrUnsupportedMediaType)
	})
}
