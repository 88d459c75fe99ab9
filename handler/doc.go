// Package handler turns typed handler functions into http.HandlerFunc values.
//
// A handler receives a Context and a request struct populated by binders, and
// returns a Response. Binding and rendering failures, as well as errors
// returned through JSONError, are routed to a single ErrorHandler which maps
// them to a status code and a JSON error body:
//
//	type createRequest struct {
//		PriceID string `json:"priceId" validate:"required"`
//	}
//
//	func create(ctx handler.Context, req createRequest) handler.Response {
//		res, err := svc.Create(ctx, req.PriceID)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(res)
//	}
//
//	r.Post("/subscriptions/create", handler.Wrap(create,
//		handler.WithBinders[handler.Context, createRequest](binder.BindJSON()),
//	))
//
// HTTPError carries the status code and a stable machine-readable key.
// Wrap domain errors with errors.Join so the cause stays visible in logs.
package handler
