package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/merch-storefront/internal/domain/catalog"
	"github.com/xenking/merch-storefront/internal/normalize"
	"github.com/xenking/merch-storefront/internal/schema"
	"github.com/xenking/merch-storefront/internal/shopify"
	"github.com/xenking/merch-storefront/internal/storefront"
	"github.com/xenking/merch-storefront/pkg/httpmiddleware"
)

// badRequestError marks a request the handler could not parse.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string {
	return "invalid request body: " + e.err.Error()
}

func (e *badRequestError) Unwrap() error {
	return e.err
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		respondError(w, r, errors.Wrap(err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// respondError maps err to a status code and writes the JSON error body.
// Upstream failures become 502, unknown errors a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)

	lg := zctx.From(r.Context())
	switch {
	case status == http.StatusInternalServerError:
		lg.Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, status, "internal error")
		return
	case status == http.StatusBadGateway:
		lg.Warn("Storefront API failed", zap.Error(err))
	}
	httpmiddleware.WriteError(w, status, err.Error())
}

func errorStatus(err error) int {
	var (
		badRequest *badRequestError
		transport  *shopify.TransportError
		apiErr     *shopify.APIError
		invalid    *schema.ValidationError
		defect     *normalize.DefectError
	)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storefront.ErrAddInFlight):
		return http.StatusConflict
	case errors.As(err, &badRequest),
		errors.Is(err, storefront.ErrNoVariant),
		errors.Is(err, storefront.ErrNoCart),
		errors.Is(err, storefront.ErrNoLines):
		return http.StatusBadRequest
	case errors.As(err, &transport),
		errors.As(err, &apiErr),
		errors.As(err, &defect),
		errors.As(err, &invalid):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
