// Package casedata loads the case-and-contact pair a generation run operates
// on, together with derived fields that need normalizing before templating.
package casedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rowanrose/claimdocs/internal/model"
)

// ErrCaseNotFound is returned when the case id does not resolve to a row.
var ErrCaseNotFound = errors.New("case not found")

// Bundle is everything the downstream stages need about one case.
type Bundle struct {
	Case    model.Case
	Contact model.Contact
	// PreviousAddress is the formatted prior-address line, empty when the
	// contact has no address history.
	PreviousAddress string
}

// Aggregator loads case bundles from the relational store.
type Aggregator struct {
	pool *pgxpool.Pool
}

// New constructs an Aggregator.
func New(pool *pgxpool.Pool) *Aggregator {
	return &Aggregator{pool: pool}
}

// Load fetches the case joined with its owning contact.
func (a *Aggregator) Load(ctx context.Context, caseID int64) (*Bundle, error) {
	row := a.pool.QueryRow(ctx, `
		SELECT c.id, c.contact_id, c.lender, c.claim_value, c.status, c.authority_generated,
		       con.first_name, con.last_name, con.email, con.phone,
		       con.address_line_1, con.address_line_2, con.city, con.state_county, con.postal_code,
		       con.previous_address_line_1, con.previous_address_line_2,
		       con.previous_city, con.previous_county, con.previous_postal_code,
		       COALESCE(con.previous_addresses, 'null'::jsonb),
		       con.signature_ip, con.created_at
		FROM cases c
		JOIN contacts con ON c.contact_id = con.id
		WHERE c.id = $1
	`, caseID)

	var (
		b        Bundle
		prevJSON []byte
		status   string
	)
	err := row.Scan(
		&b.Case.ID, &b.Case.ContactID, &b.Case.Lender, &b.Case.ClaimValue, &status, &b.Case.AuthorityGenerated,
		&b.Contact.FirstName, &b.Contact.LastName, &b.Contact.Email, &b.Contact.Phone,
		&b.Contact.AddressLine1, &b.Contact.AddressLine2, &b.Contact.City, &b.Contact.StateCounty, &b.Contact.PostalCode,
		&b.Contact.PreviousLine1, &b.Contact.PreviousLine2,
		&b.Contact.PreviousCity, &b.Contact.PreviousCounty, &b.Contact.PreviousPostcode,
		&prevJSON,
		&b.Contact.SignatureIP, &b.Contact.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("case %d: %w", caseID, ErrCaseNotFound)
		}
		return nil, fmt.Errorf("select case %d: %w", caseID, err)
	}
	b.Case.Status = model.CaseStatus(status)
	b.Contact.ID = b.Case.ContactID
	b.Contact.PreviousAddresses, err = decodePreviousAddresses(prevJSON)
	if err != nil {
		return nil, fmt.Errorf("case %d previous addresses: %w", caseID, err)
	}
	b.PreviousAddress = FormatPreviousAddress(&b.Contact)
	return &b, nil
}

// previousAddressJSON tolerates both key schemes that appear in imported
// rows: camelCase (line1/postalCode) and snake_case (address_line_1/postal_code).
type previousAddressJSON struct {
	Line1        string `json:"line1"`
	AddressLine1 string `json:"address_line_1"`
	Line2        string `json:"line2"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city"`
	County       string `json:"county"`
	StateCounty  string `json:"state_county"`
	PostalCode   string `json:"postalCode"`
	PostCode     string `json:"postal_code"`
}

func decodePreviousAddresses(raw []byte) ([]model.PreviousAddress, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var entries []previousAddressJSON
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	out := make([]model.PreviousAddress, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.PreviousAddress{
			Line1:    firstNonEmpty(e.Line1, e.AddressLine1),
			Line2:    firstNonEmpty(e.Line2, e.AddressLine2),
			City:     e.City,
			County:   firstNonEmpty(e.County, e.StateCounty),
			Postcode: firstNonEmpty(e.PostalCode, e.PostCode),
		})
	}
	return out, nil
}

// FormatPreviousAddress renders the prior-address line shown on letters. The
// discrete columns win when populated; otherwise the first JSON-array entry is
// used, with a trailing " ......" marker when further entries were truncated.
func FormatPreviousAddress(c *model.Contact) string {
	if c.PreviousLine1 != "" {
		return joinNonEmpty(c.PreviousLine1, c.PreviousCity, c.PreviousPostcode)
	}
	if len(c.PreviousAddresses) == 0 {
		return ""
	}
	first := c.PreviousAddresses[0]
	line := joinNonEmpty(first.Line1, first.Line2, first.City, first.County, first.Postcode)
	if line == "" {
		return ""
	}
	if len(c.PreviousAddresses) > 1 {
		line += " ......"
	}
	return line
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
