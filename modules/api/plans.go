package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/ndavault/handler"
	"github.com/dmitrymomot/ndavault/svc/plan"
)

// Plans exposes the public plan catalog.
type Plans struct {
	catalog      *plan.Catalog
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewPlans(catalog *plan.Catalog, eh handler.ErrorHandler[handler.Context]) *Plans {
	if catalog == nil {
		panic("api: plan catalog is required")
	}
	return &Plans{catalog: catalog, errorHandler: eh}
}

func (p *Plans) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", wrap(p.list, p.errorHandler))
	return r
}

type plansResponse struct {
	Plans []plan.Plan `json:"plans"`
}

func (p *Plans) list(_ handler.Context, _ struct{}) handler.Response {
	return handler.JSON(plansResponse{Plans: p.catalog.List()})
}
