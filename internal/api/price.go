package api

import (
	"net/http"

	"github.com/xenking/gatepass/internal/domain/checkout"
)

type cartItemRequest struct {
	TicketType string `json:"ticketType"`
	Quantity   int    `json:"quantity"`
}

type priceRequest struct {
	Items         []cartItemRequest `json:"items"`
	DiscountCodes []string          `json:"discountCodes"`
}

type priceResponse struct {
	Subtotal          string              `json:"subtotal"`
	DiscountAmount    string              `json:"discountAmount"`
	Total             string              `json:"total"`
	ValidCodes        []string            `json:"validCodes"`
	InvalidCodes      []string            `json:"invalidCodes"`
	InapplicableCodes []string            `json:"inapplicableCodes"`
	Percentages       map[string]int      `json:"discountPercentages"`
	AppliesTo         map[string][]string `json:"discountAppliesTo"`
}

// CalculatePrice previews the authoritative price for a cart and classifies
// the submitted discount codes.
func (h *Handler) CalculatePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	breakdown, err := h.checkout.Price(r.Context(), toCartItems(req.Items), req.DiscountCodes)
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, priceResponse{
		Subtotal:          breakdown.Subtotal.StringFixed(2),
		DiscountAmount:    breakdown.DiscountAmount.StringFixed(2),
		Total:             breakdown.Total.StringFixed(2),
		ValidCodes:        emptyIfNil(breakdown.ValidCodes),
		InvalidCodes:      emptyIfNil(breakdown.InvalidCodes),
		InapplicableCodes: emptyIfNil(breakdown.Inapplicable),
		Percentages:       breakdown.Percentages,
		AppliesTo:         breakdown.AppliesTo,
	})
}

func toCartItems(items []cartItemRequest) []checkout.CartItem {
	out := make([]checkout.CartItem, len(items))
	for i, item := range items {
		out[i] = checkout.CartItem{TicketTypeName: item.TicketType, Quantity: item.Quantity}
	}
	return out
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
