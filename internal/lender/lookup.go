// Package lender resolves counterparty postal details used in letter bodies
// and storage keys.
package lender

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rowanrose/claimdocs/internal/model"
)

// Lookup answers address and email queries against the lenders table.
type Lookup struct {
	pool *pgxpool.Pool
}

// NewLookup constructs a Lookup.
func NewLookup(pool *pgxpool.Pool) *Lookup {
	return &Lookup{pool: pool}
}

// Address returns the lender's postal block, or nil when the lender is
// unknown. Matching is exact-first, then substring in either direction, since
// imported case rows often carry abbreviated lender names.
func (l *Lookup) Address(ctx context.Context, lenderName string) (*model.LenderAddress, error) {
	name := strings.ToUpper(strings.TrimSpace(lenderName))
	if name == "" {
		return nil, nil
	}
	var addr model.LenderAddress
	err := l.pool.QueryRow(ctx, `
		SELECT company_name, address_line_1, town_city, postcode
		FROM lenders WHERE UPPER(name) = $1
	`, name).Scan(&addr.CompanyName, &addr.Line1, &addr.City, &addr.Postcode)
	if errors.Is(err, pgx.ErrNoRows) {
		err = l.pool.QueryRow(ctx, `
			SELECT company_name, address_line_1, town_city, postcode
			FROM lenders
			WHERE UPPER(name) LIKE '%' || $1 || '%' OR $1 LIKE '%' || UPPER(name) || '%'
			ORDER BY LENGTH(name) DESC
			LIMIT 1
		`, name).Scan(&addr.CompanyName, &addr.Line1, &addr.City, &addr.Postcode)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup lender address %q: %w", lenderName, err)
	}
	return &addr, nil
}

// Email returns the lender's contact email, empty when unknown.
func (l *Lookup) Email(ctx context.Context, lenderName string) (string, error) {
	name := strings.ToUpper(strings.TrimSpace(lenderName))
	if name == "" {
		return "", nil
	}
	var email string
	err := l.pool.QueryRow(ctx, `
		SELECT email FROM lenders
		WHERE UPPER(name) = $1
		   OR UPPER(name) LIKE '%' || $1 || '%'
		   OR $1 LIKE '%' || UPPER(name) || '%'
		ORDER BY (UPPER(name) = $1) DESC, LENGTH(name) DESC
		LIMIT 1
	`, name).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup lender email %q: %w", lenderName, err)
	}
	return email, nil
}
