package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/ndavault/binder"
	"github.com/dmitrymomot/ndavault/handler"
	"github.com/dmitrymomot/ndavault/svc/agreement"
)

// maxUploadBody leaves room for the form fields around the PDF.
const maxUploadBody = agreement.MaxFileSize + 1<<20

// AgreementService is the part of agreement.Service used by the API.
type AgreementService interface {
	Create(ctx context.Context, userID string, u agreement.Upload) (*agreement.Agreement, error)
	List(ctx context.Context, userID string) ([]agreement.Agreement, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*agreement.Agreement, error)
	Update(ctx context.Context, userID string, id uuid.UUID, terms agreement.Terms) (*agreement.Agreement, error)
	SetAlert(ctx context.Context, userID string, id uuid.UUID, enabled bool) (*agreement.Agreement, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	DownloadURL(ctx context.Context, userID string, id uuid.UUID) (string, error)
}

// Agreements serves the authenticated agreement routes.
type Agreements struct {
	svc          AgreementService
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewAgreements(svc AgreementService, eh handler.ErrorHandler[handler.Context]) *Agreements {
	if svc == nil {
		panic("api: agreement service is required")
	}
	return &Agreements{svc: svc, errorHandler: eh}
}

func (a *Agreements) Handle() http.Handler {
	path := binder.BindPath(chi.URLParam)

	r := chi.NewRouter()
	r.Get("/", wrap(a.list, a.errorHandler))
	r.Post("/", wrap(a.upload, a.errorHandler, binder.BindMultipart(maxUploadBody)))
	r.Patch("/{id}", wrap(a.update, a.errorHandler, path, binder.BindJSON()))
	r.Delete("/{id}", wrap(a.delete, a.errorHandler, path))
	r.Put("/{id}/alert", wrap(a.setAlert, a.errorHandler, path, binder.BindJSON()))
	r.Get("/{id}/download", wrap(a.download, a.errorHandler, path))
	return r
}

type agreementsResponse struct {
	Agreements []agreement.Agreement `json:"agreements"`
}

func (a *Agreements) list(ctx handler.Context, _ struct{}) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.JSONError(err)
	}
	list, err := a.svc.List(ctx, user.ID)
	if err != nil {
		return handler.JSONError(err)
	}
	if list == nil {
		list = []agreement.Agreement{}
	}
	return handler.JSON(agreementsResponse{Agreements: list})
}

// UploadRequest is the multipart upload form. Dates are YYYY-MM-DD.
type UploadRequest struct {
	File                  *binder.FileUpload `file:"file"`
	CounterpartyName      string             `form:"counterparty_name"`
	EffectiveDate         *time.Time         `form:"effective_date"`
	ExpirationDate        time.Time          `form:"expiration_date"`
	ConfidentialityPeriod *int               `form:"confidentiality_period"`
}

func (a *Agreements) upload(ctx handler.Context, req UploadRequest) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.JSONError(err)
	}
	if req.File == nil {
		return handler.JSONError(agreement.ErrFileRequired)
	}

	f, err := req.File.Open()
	if err != nil {
		return handler.JSONError(errors.Join(agreement.ErrFileRequired, err))
	}
	defer f.Close()

	created, err := a.svc.Create(ctx, user.ID, agreement.Upload{
		Terms: agreement.Terms{
			CounterpartyName:      req.CounterpartyName,
			EffectiveDate:         req.EffectiveDate,
			ExpirationDate:        req.ExpirationDate,
			ConfidentialityPeriod: req.ConfidentialityPeriod,
		},
		FileName: req.File.Filename,
		Size:     req.File.Size,
		Body:     f,
	})
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(created, handler.WithStatus(http.StatusCreated))
}

// UpdateRequest changes only the fields present in the body. An empty
// effective_date clears it.
type UpdateRequest struct {
	ID                    uuid.UUID `path:"id" json:"-"`
	CounterpartyName      *string   `json:"counterparty_name" validate:"omitempty,min=1,max=255"`
	EffectiveDate         *string   `json:"effective_date"`
	ExpirationDate        *string   `json:"expiration_date"`
	ConfidentialityPeriod *int      `json:"confidentiality_period" validate:"omitempty,min=1"`
}

func (a *Agreements) update(ctx handler.Context, req UpdateRequest) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.JSONError(err)
	}

	current, err := a.svc.Get(ctx, user.ID, req.ID)
	if err != nil {
		return handler.JSONError(err)
	}

	terms := agreement.Terms{
		CounterpartyName:      current.CounterpartyName,
		EffectiveDate:         current.EffectiveDate,
		ExpirationDate:        current.ExpirationDate,
		ConfidentialityPeriod: current.ConfidentialityPeriod,
	}
	if req.CounterpartyName != nil {
		terms.CounterpartyName = *req.CounterpartyName
	}
	if req.EffectiveDate != nil {
		terms.EffectiveDate = nil
		if *req.EffectiveDate != "" {
			d, err := time.Parse(time.DateOnly, *req.EffectiveDate)
			if err != nil {
				return handler.JSONError(ErrInvalidDate)
			}
			terms.EffectiveDate = &d
		}
	}
	if req.ExpirationDate != nil {
		d, err := time.Parse(time.DateOnly, *req.ExpirationDate)
		if err != nil {
			return handler.JSONError(ErrInvalidDate)
		}
		terms.ExpirationDate = d
	}
	if req.ConfidentialityPeriod != nil {
		terms.ConfidentialityPeriod = req.ConfidentialityPeriod
	}

	updated, err := a.svc.Update(ctx, user.ID, req.ID, terms)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(updated)
}

type agreementPath struct {
	ID uuid.UUID `path:"id"`
}

func (a *Agreements) delete(ctx handler.Context, req agreementPath) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.JSONError(err)
	}
	if err := a.svc.Delete(ctx, user.ID, req.ID); err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(cancelResponse{Success: true})
}

// AlertRequest toggles expiration alerts for one agreement.
type AlertRequest struct {
	ID      uuid.UUID `path:"id" json:"-"`
	Enabled *bool     `json:"enabled" validate:"required"`
}

func (a *Agreements) setAlert(ctx handler.Context, req AlertRequest) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.JSONError(err)
	}
	updated, err := a.svc.SetAlert(ctx, user.ID, req.ID, *req.Enabled)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(updated)
}

type downloadResponse struct {
	URL string `json:"url"`
}

func (a *Agreements) download(ctx handler.Context, req agreementPath) handler.Response {
	user, err := currentUser(ctx)
	if err != nil {
		return handler.JSONError(err)
	}
	url, err := a.svc.DownloadURL(ctx, user.ID, req.ID)
	if err != nil {
		return handler.JSONError(err)
	}
	return handler.JSON(downloadResponse{URL: url})
}
