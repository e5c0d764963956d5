package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("pending")
	if err != nil || status != OrderStatusPending {
		t.Fatalf("expected pending, got %q err=%v", status, err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if OrderStatusPending.IsTerminal() {
		t.Fatal("pending must not be terminal")
	}
	if !OrderStatusFulfilled.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("fulfilled and cancelled must be terminal")
	}
}

func TestAdminRoleAllows(t *testing.T) {
	if !AdminRoleAdmin.Allows(AdminRoleDealer) {
		t.Fatal("admin should satisfy dealer routes")
	}
	if AdminRoleDealer.Allows(AdminRoleAdmin) {
		t.Fatal("dealer must not satisfy admin routes")
	}
	if !AdminRoleDealer.Allows(AdminRoleDealer) {
		t.Fatal("dealer should satisfy dealer routes")
	}
}

func TestDiscountModeIsValid(t *testing.T) {
	for _, mode := range []DiscountMode{DiscountModeNone, DiscountModeMember, DiscountModeCustomAmount, DiscountModeCustomPercentage} {
		if !mode.IsValid() {
			t.Fatalf("expected %q to be valid", mode)
		}
	}
	if DiscountMode("both").IsValid() {
		t.Fatal("unexpected valid discount mode")
	}
}

func TestParseNormalizesInput(t *testing.T) {
	method, err := ParsePaymentMethod("  Card ")
	if err != nil || method != PaymentMethodCard {
		t.Fatalf("expected card, got %q err=%v", method, err)
	}
	if _, err := ParseInvoiceStatus(""); err == nil {
		t.Fatal("expected error for empty invoice status")
	}
	if got := len(PaymentMethods.Values()); got != 3 {
		t.Fatalf("expected 3 payment methods, got %d", got)
	}
}
