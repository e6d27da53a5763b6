//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// Checkout paths that reach the payment gateway need real Stripe test
// credentials, so these tests cover the pre-charge rejections only.

func TestCheckout_PastVisitDate(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{
		VisitDate: "2020-01-01",
		Items:     []cartItem{{TicketType: "ADULT", Quantity: 1}},
		Email:     "guest@example.com",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != "visit_date.past" {
		t.Errorf("code: got %q, want visit_date.past", body.Code)
	}
}

func TestCheckout_MalformedVisitDate(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{
		VisitDate: "01/02/2026",
		Items:     []cartItem{{TicketType: "ADULT", Quantity: 1}},
		Email:     "guest@example.com",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCheckout_MissingEmail(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{
		VisitDate: futureDate(7),
		Items:     []cartItem{{TicketType: "ADULT", Quantity: 1}},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != "buyer.missing" {
		t.Errorf("code: got %q, want buyer.missing", body.Code)
	}
}

func TestCheckout_StaleDiscountCode(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{
		VisitDate:     futureDate(7),
		Items:         []cartItem{{TicketType: "ADULT", Quantity: 1}},
		DiscountCodes: []string{"EXPIRED5"},
		Email:         "guest@example.com",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != "discount.changed" {
		t.Errorf("code: got %q, want discount.changed", body.Code)
	}
}

func TestCheckout_InsufficientAvailability(t *testing.T) {
	// VIP capacity is 50 per day.
	resp := doPost(t, "/api/checkout", checkoutRequest{
		VisitDate: futureDate(7),
		Items:     []cartItem{{TicketType: "VIP", Quantity: 51}},
		Email:     "guest@example.com",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != "availability.insufficient" {
		t.Errorf("code: got %q, want availability.insufficient", body.Code)
	}
}

func TestCheckout_UnknownTicketType(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{
		VisitDate: futureDate(7),
		Items:     []cartItem{{TicketType: "DRAGON", Quantity: 1}},
		Email:     "guest@example.com",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
