package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool using the provided DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

// EnsureSchema creates the tables this service reads and writes. Migrations
// for the wider CRM live elsewhere; having the subset here keeps the service
// self-contained for docker-compose bootstrap.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS contacts (
	id BIGINT PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	address_line_1 TEXT NOT NULL DEFAULT '',
	address_line_2 TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	state_county TEXT NOT NULL DEFAULT '',
	postal_code TEXT NOT NULL DEFAULT '',
	previous_address_line_1 TEXT NOT NULL DEFAULT '',
	previous_address_line_2 TEXT NOT NULL DEFAULT '',
	previous_city TEXT NOT NULL DEFAULT '',
	previous_county TEXT NOT NULL DEFAULT '',
	previous_postal_code TEXT NOT NULL DEFAULT '',
	previous_addresses JSONB,
	signature_ip TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS cases (
	id BIGINT PRIMARY KEY,
	contact_id BIGINT NOT NULL REFERENCES contacts(id),
	lender TEXT NOT NULL DEFAULT '',
	claim_value NUMERIC NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT '',
	authority_generated BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS lenders (
	name TEXT PRIMARY KEY,
	company_name TEXT NOT NULL DEFAULT '',
	address_line_1 TEXT NOT NULL DEFAULT '',
	town_city TEXT NOT NULL DEFAULT '',
	postcode TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS html_templates (
	kind TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	contact_id BIGINT NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	category TEXT NOT NULL,
	url TEXT NOT NULL,
	size TEXT NOT NULL DEFAULT '',
	tags TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (contact_id, name)
);
CREATE TABLE IF NOT EXISTS action_logs (
	id TEXT PRIMARY KEY,
	client_id BIGINT NOT NULL,
	actor_type TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	actor_name TEXT NOT NULL,
	action_type TEXT NOT NULL,
	action_category TEXT NOT NULL,
	description TEXT NOT NULL,
	metadata JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
CREATE INDEX IF NOT EXISTS idx_documents_contact ON documents(contact_id);`
	_, err := pool.Exec(ctx, stmt)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
