package docvars

import (
	"testing"
	"time"

	"github.com/rowanrose/claimdocs/internal/casedata"
	"github.com/rowanrose/claimdocs/internal/model"
)

func testBundle() *casedata.Bundle {
	return &casedata.Bundle{
		Case: model.Case{
			ID:         311,
			ContactID:  42,
			Lender:     "Acme Finance",
			ClaimValue: 12500.50,
		},
		Contact: model.Contact{
			ID:           42,
			FirstName:    "Jane",
			LastName:     "Doe",
			Email:        "jane@example.com",
			AddressLine1: "10 High Street",
			City:         "Manchester",
			PostalCode:   "M1 1AA",
			SignatureIP:  "198.51.100.7",
		},
		PreviousAddress: "4 Mill Lane, Leeds, LS1 4DT",
	}
}

func TestBuildDerivedIdentifiers(t *testing.T) {
	now := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)
	vars := Build(Input{Bundle: testBundle(), Now: now, Firm: Firm{Name: "Harborview Claims"}})

	if vars["claim.clientId"] != "RR-42" {
		t.Fatalf("client id: %q", vars["claim.clientId"])
	}
	if vars["claim.reference"] != "RR-42/311" {
		t.Fatalf("reference: %q", vars["claim.reference"])
	}
	if vars["claim.refSpec"] != "42311" {
		t.Fatalf("refSpec: %q", vars["claim.refSpec"])
	}
	if vars["system.today"] != "05 March 2026" {
		t.Fatalf("today: %q", vars["system.today"])
	}
	if vars["system.year"] != "2026" {
		t.Fatalf("year: %q", vars["system.year"])
	}
	if vars["claim.value"] != "£12,500.50" {
		t.Fatalf("claim value: %q", vars["claim.value"])
	}
}

func TestBuildLenderFallsBackToCaseName(t *testing.T) {
	vars := Build(Input{Bundle: testBundle(), Now: time.Now()})
	if vars["lender.companyName"] != "Acme Finance" {
		t.Fatalf("expected case lender fallback, got %q", vars["lender.companyName"])
	}
	// Unknown lender still yields entries so templates never leak placeholders.
	for _, key := range []string{"lender.address", "lender.city", "lender.postcode", "signature", "logo"} {
		if _, ok := vars[key]; !ok {
			t.Fatalf("missing key %q", key)
		}
	}
}

func TestBuildLenderAddressOverrides(t *testing.T) {
	vars := Build(Input{
		Bundle: testBundle(),
		Now:    time.Now(),
		LenderAddress: &model.LenderAddress{
			CompanyName: "Acme Finance Holdings PLC",
			Line1:       "1 Corporation Row",
			City:        "London",
			Postcode:    "EC1 1AA",
		},
		LenderEmail: "complaints@acme.example",
	})
	if vars["lender.companyName"] != "Acme Finance Holdings PLC" {
		t.Fatalf("company name: %q", vars["lender.companyName"])
	}
	if vars["lender.postcode"] != "EC1 1AA" || vars["lender.email"] != "complaints@acme.example" {
		t.Fatalf("lender details not applied: %+v", vars)
	}
}

func TestFormatClaimValue(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, ""},
		{999, "£999"},
		{1000, "£1,000"},
		{1234567, "£1,234,567"},
		{2500.25, "£2,500.25"},
	}
	for _, tc := range cases {
		if got := FormatClaimValue(tc.in); got != tc.want {
			t.Fatalf("FormatClaimValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestVerificationCodeDeterministic(t *testing.T) {
	a := VerificationCode("42311", "Jane Doe", "05 March 2026")
	b := VerificationCode("42311", "Jane Doe", "05 March 2026")
	if a != b {
		t.Fatalf("expected deterministic code, got %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Fatalf("expected 12-char code, got %q", a)
	}
	if c := VerificationCode("42312", "Jane Doe", "05 March 2026"); c == a {
		t.Fatalf("different refSpec should change the code")
	}
}
