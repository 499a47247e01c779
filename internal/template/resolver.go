// Package template resolves the letter templates used by the generation
// pipeline. Authority letters render from flat HTML with an operator override
// stored in Postgres and a bundled default; follow-up letters render from a
// structured document kept in object storage.
package template

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rowanrose/claimdocs/internal/doctree"
	"github.com/rowanrose/claimdocs/internal/model"
)

// ErrTemplateMissing reports that no template could be resolved for the
// requested document kind.
var ErrTemplateMissing = errors.New("template missing")

//go:embed authority_letter.html
var bundledAuthorityLetter string

// ObjectStore is the subset of the storage client the resolver needs.
type ObjectStore interface {
	Fetch(ctx context.Context, objectKey string) ([]byte, error)
}

// followUpTemplateKey is where the structured follow-up master lives.
const followUpTemplateKey = "templates/followup-letter-master.json"

// Resolver loads templates by document kind, preferring operator overrides.
type Resolver struct {
	DB    *pgxpool.Pool
	Store ObjectStore
	Cache *Cache
}

// ResolveHTML returns the flat HTML template for the kind. A row in
// html_templates wins; otherwise the bundled default is used for authority
// letters.
func (r *Resolver) ResolveHTML(ctx context.Context, kind model.DocumentKind) (string, error) {
	if r.Cache != nil {
		if body, ok := r.Cache.Get(cacheKeyHTML(kind)); ok {
			return body, nil
		}
	}

	body, err := r.lookupOverride(ctx, kind)
	if err != nil {
		return "", err
	}
	if body == "" && kind == model.KindAuthorityLetter {
		body = bundledAuthorityLetter
	}
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("resolve html template for %s: %w", kind, ErrTemplateMissing)
	}

	if r.Cache != nil {
		r.Cache.Put(cacheKeyHTML(kind), body)
	}
	return body, nil
}

// ResolveTree fetches and parses the structured follow-up master document.
func (r *Resolver) ResolveTree(ctx context.Context) (*doctree.Node, error) {
	var raw []byte
	if r.Cache != nil {
		if body, ok := r.Cache.Get(followUpTemplateKey); ok {
			raw = []byte(body)
		}
	}
	if raw == nil {
		fetched, err := r.Store.Fetch(ctx, followUpTemplateKey)
		if err != nil {
			return nil, fmt.Errorf("fetch follow-up template: %w (%w)", err, ErrTemplateMissing)
		}
		raw = fetched
		if r.Cache != nil {
			r.Cache.Put(followUpTemplateKey, string(raw))
		}
	}

	doc, err := doctree.ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("parse follow-up template: %w", err)
	}
	return doc, nil
}

// SaveOverride stores or replaces the operator HTML template for a kind.
func (r *Resolver) SaveOverride(ctx context.Context, kind model.DocumentKind, body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("save template for %s: empty body", kind)
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO html_templates (kind, content, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (kind) DO UPDATE
		SET content = EXCLUDED.content, updated_at = NOW()
	`, string(kind), body)
	if err != nil {
		return fmt.Errorf("save template for %s: %w", kind, err)
	}
	if r.Cache != nil {
		r.Cache.Drop(cacheKeyHTML(kind))
	}
	return nil
}

func (r *Resolver) lookupOverride(ctx context.Context, kind model.DocumentKind) (string, error) {
	if r.DB == nil {
		return "", nil
	}
	var body string
	err := r.DB.QueryRow(ctx, `
		SELECT content FROM html_templates WHERE kind = $1
	`, string(kind)).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup template override for %s: %w", kind, err)
	}
	return body, nil
}

func cacheKeyHTML(kind model.DocumentKind) string {
	return "html:" + string(kind)
}
