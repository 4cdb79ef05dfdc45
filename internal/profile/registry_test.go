package profile

import "testing"

func TestNormalizeSynonyms(t *testing.T) {
	r := New()

	cases := map[string]string{
		"bank_account": "account_number",
		"CVC":          "cvv",
		"zip_code":     "zip",
		"  Routing ":   "routing_number",
	}
	for input, want := range cases {
		p, ok := r.Normalize(input)
		if !ok {
			t.Fatalf("Normalize(%q): not found", input)
		}
		if p.ID != want {
			t.Errorf("Normalize(%q) = %q, want %q", input, p.ID, want)
		}
	}
}

func TestNormalizeDeprecatedFoldsToGeneric(t *testing.T) {
	r := New()
	p, ok := r.Normalize("legacy_pin")
	if !ok {
		t.Fatal("expected deprecated id to resolve to generic")
	}
	if p.ID != "generic" {
		t.Errorf("got %q, want generic", p.ID)
	}
}

func TestNormalizeUnknownRejected(t *testing.T) {
	r := New()
	if _, ok := r.Normalize("not_a_real_profile"); ok {
		t.Fatal("expected unknown profile id to be rejected")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	r := New()
	p1, _ := r.Normalize("bank_account")
	p2, _ := r.Normalize(p1.ID)
	if p1.ID != p2.ID {
		t.Errorf("normalize not idempotent: %q != %q", p1.ID, p2.ID)
	}
}

func TestLuhnValid(t *testing.T) {
	if !luhnValid("4111111111111111") {
		t.Error("expected valid Luhn test card to pass")
	}
	if luhnValid("4111111111111112") {
		t.Error("expected mutated card number to fail Luhn")
	}
}

func TestRoutingValid(t *testing.T) {
	// 021000021 is Chase's well-known published ABA routing number.
	if !routingValid("021000021") {
		t.Error("expected known-good routing number to validate")
	}
	if routingValid("021000022") {
		t.Error("expected mutated routing number to fail checksum")
	}
	if routingValid("12345678") {
		t.Error("expected wrong-length input to fail")
	}
}

func TestDOBBoundaries(t *testing.T) {
	if reason := dobValid("0115"); reason != ReasonNone {
		t.Errorf("month 01 day 15 should validate, got %q", reason)
	}
	if reason := dobValid("0015"); reason != ReasonInvalidMonth {
		t.Errorf("month 00 should be invalid_month, got %q", reason)
	}
	if reason := dobValid("1315"); reason != ReasonInvalidMonth {
		t.Errorf("month 13 should be invalid_month, got %q", reason)
	}
	if reason := dobValid("0100"); reason != ReasonInvalidDay {
		t.Errorf("day 00 should be invalid_day, got %q", reason)
	}
	if reason := dobValid("0132"); reason != ReasonInvalidDay {
		t.Errorf("day 32 should be invalid_day, got %q", reason)
	}
}

func TestExpiryBoundaries(t *testing.T) {
	if reason := expiryValid("0128"); reason != ReasonNone {
		t.Errorf("month 01 should validate, got %q", reason)
	}
	if reason := expiryValid("0028"); reason != ReasonInvalidMonth {
		t.Errorf("month 00 should be invalid_month, got %q", reason)
	}
	if reason := expiryValid("1328"); reason != ReasonInvalidMonth {
		t.Errorf("month 13 should be invalid_month, got %q", reason)
	}
}

func TestOTPProfileBounds(t *testing.T) {
	r := New()
	p, ok := r.Normalize("verification")
	if !ok {
		t.Fatal("verification profile must exist")
	}
	if !p.IsOTPLike() {
		t.Error("verification profile should be OTP-like")
	}
}
