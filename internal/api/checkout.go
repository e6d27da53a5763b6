package api

import (
	"net/http"
	"time"

	"github.com/xenking/gatepass/internal/domain/checkout"
)

type checkoutRequest struct {
	VisitDate     string            `json:"visitDate"`
	Items         []cartItemRequest `json:"items"`
	DiscountCodes []string          `json:"discountCodes"`
	Email         string            `json:"email"`
	FirstName     string            `json:"firstName"`
	LastName      string            `json:"lastName"`
	PaymentMethod string            `json:"paymentMethod"`
}

type checkoutResponse struct {
	BookingID      string   `json:"bookingId"`
	GatewayRef     string   `json:"gatewayRef"`
	Subtotal       string   `json:"subtotal"`
	DiscountAmount string   `json:"discountAmount"`
	Total          string   `json:"total"`
	AppliedCodes   []string `json:"appliedCodes"`
}

// Checkout runs the full payment and booking flow for a cart.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	visitDate, err := time.Parse("2006-01-02", req.VisitDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "visit_date.invalid", "visitDate must be YYYY-MM-DD")
		return
	}

	result, err := h.checkout.Checkout(r.Context(), checkout.Request{
		VisitDate:     visitDate,
		Items:         toCartItems(req.Items),
		DiscountCodes: req.DiscountCodes,
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		BookingID:      result.BookingID,
		GatewayRef:     result.GatewayRef,
		Subtotal:       result.Subtotal.StringFixed(2),
		DiscountAmount: result.DiscountAmount.StringFixed(2),
		Total:          result.Total.StringFixed(2),
		AppliedCodes:   emptyIfNil(result.AppliedCodes),
	})
}
