package casedata

import (
	"testing"

	"github.com/rowanrose/claimdocs/internal/model"
)

func TestFormatPreviousAddressDiscreteColumns(t *testing.T) {
	c := &model.Contact{
		PreviousLine1:    "4 Mill Lane",
		PreviousCity:     "Leeds",
		PreviousPostcode: "LS1 4DT",
	}
	got := FormatPreviousAddress(c)
	want := "4 Mill Lane, Leeds, LS1 4DT"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatPreviousAddressTruncatesLongHistory(t *testing.T) {
	c := &model.Contact{
		PreviousAddresses: []model.PreviousAddress{
			{Line1: "9 Harbour Road", City: "Hull", County: "East Riding", Postcode: "HU1 2AB"},
			{Line1: "22 King Street", City: "York", Postcode: "YO1 8BD"},
			{Line1: "5 Vicar Gate", City: "Durham", Postcode: "DH1 3EJ"},
		},
	}
	got := FormatPreviousAddress(c)
	want := "9 Harbour Road, Hull, East Riding, HU1 2AB ......"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatPreviousAddressSingleEntryNoEllipsis(t *testing.T) {
	c := &model.Contact{
		PreviousAddresses: []model.PreviousAddress{
			{Line1: "9 Harbour Road", City: "Hull", Postcode: "HU1 2AB"},
		},
	}
	got := FormatPreviousAddress(c)
	if got != "9 Harbour Road, Hull, HU1 2AB" {
		t.Fatalf("unexpected formatting: %q", got)
	}
}

func TestFormatPreviousAddressEmpty(t *testing.T) {
	if got := FormatPreviousAddress(&model.Contact{}); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestDecodePreviousAddressesBothKeySchemes(t *testing.T) {
	raw := []byte(`[
		{"line1":"1 Camel Way","city":"Bath","postalCode":"BA1 1AA"},
		{"address_line_1":"2 Snake Row","city":"Wells","postal_code":"BA5 2BB","state_county":"Somerset"}
	]`)
	addrs, err := decodePreviousAddresses(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(addrs) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(addrs))
	}
	if addrs[0].Line1 != "1 Camel Way" || addrs[0].Postcode != "BA1 1AA" {
		t.Fatalf("camelCase scheme not decoded: %+v", addrs[0])
	}
	if addrs[1].Line1 != "2 Snake Row" || addrs[1].Postcode != "BA5 2BB" || addrs[1].County != "Somerset" {
		t.Fatalf("snake_case scheme not decoded: %+v", addrs[1])
	}
}

func TestDecodePreviousAddressesNull(t *testing.T) {
	addrs, err := decodePreviousAddresses([]byte("null"))
	if err != nil {
		t.Fatalf("decode null: %v", err)
	}
	if addrs != nil {
		t.Fatalf("expected nil for null input")
	}
}
