// Package api exposes the sales core over JSON HTTP: availability lookup,
// price preview, and checkout.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/gatepass/internal/availability"
	"github.com/xenking/gatepass/internal/domain/checkout"
)

// Handler serves the public API, delegating to the availability and
// checkout services.
type Handler struct {
	avail    *availability.Service
	checkout *checkout.Service
}

// NewHandler constructs a Handler with the required services.
func NewHandler(avail *availability.Service, co *checkout.Service) *Handler {
	return &Handler{avail: avail, checkout: co}
}

// Register mounts the API routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/availability", h.GetAvailability)
	mux.HandleFunc("POST /api/price", h.CalculatePrice)
	mux.HandleFunc("POST /api/checkout", h.Checkout)
}

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details ...string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message, Details: details})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "request.malformed", "invalid JSON body")
		return false
	}
	return true
}

// mapDomainError converts checkout errors to HTTP responses. Every rejection
// carries a machine-readable code and the offending identifiers so clients
// can correct the cart without guessing.
func mapDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *checkout.ValidationError
		availErr      *checkout.InsufficientAvailabilityError
		discountErr   *checkout.DiscountChangedError
		declinedErr   *checkout.GatewayDeclinedError
		unknownErr    *checkout.GatewayUnknownError
		conflictErr   *checkout.CapacityConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Code, validationErr.Message)
	case errors.As(err, &availErr):
		writeError(w, http.StatusConflict, "availability.insufficient", availErr.Error(), availErr.TicketTypeName)
	case errors.As(err, &discountErr):
		writeError(w, http.StatusConflict, "discount.changed", discountErr.Error(), discountErr.Codes...)
	case errors.As(err, &declinedErr):
		writeError(w, http.StatusPaymentRequired, "payment.declined", declinedErr.Error(), declinedErr.Reference)
	case errors.As(err, &unknownErr):
		writeError(w, http.StatusBadGateway, "payment.unknown", unknownErr.Error(), unknownErr.IdempotencyKey)
	case errors.As(err, &conflictErr):
		writeError(w, http.StatusConflict, "capacity.conflict", conflictErr.Error(), conflictErr.GatewayRef)
	case errors.Is(err, checkout.ErrInvalidTotal):
		writeError(w, http.StatusUnprocessableEntity, "total.invalid", err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
