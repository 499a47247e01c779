// Package publish uploads a finished letter PDF to object storage and records
// it against the contact.
package publish

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rowanrose/claimdocs/internal/model"
	"github.com/rowanrose/claimdocs/internal/repository"
)

// ObjectStore is the subset of the storage client the publisher needs.
type ObjectStore interface {
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) error
	PresignURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// DocumentStore persists the metadata row for a published letter.
type DocumentStore interface {
	UpsertDocument(ctx context.Context, rec repository.DocumentRecord) (string, error)
}

// Publisher writes the PDF, mints the signed URL and upserts the record.
type Publisher struct {
	Store     ObjectStore
	Documents DocumentStore
	URLExpiry time.Duration
}

// Input names everything needed to place one letter.
type Input struct {
	FirstName string
	LastName  string
	ContactID int64
	RefSpec   string
	Lender    string
	Kind      model.DocumentKind
	PDF       []byte
}

// Output reports where the letter landed.
type Output struct {
	StorageKey string
	FileName   string
	URL        string
	DocumentID string
}

var (
	nonAlnum   = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// SanitizeLenderName strips punctuation and collapses runs of whitespace to a
// single underscore, producing a path-safe counterparty segment.
func SanitizeLenderName(name string) string {
	cleaned := nonAlnum.ReplaceAllString(name, "")
	cleaned = strings.TrimSpace(cleaned)
	return whitespace.ReplaceAllString(cleaned, "_")
}

// kindLabel is the human-facing suffix inside the filename.
func kindLabel(kind model.DocumentKind) string {
	if kind == model.KindFollowUpLetter {
		return "COVER LETTER"
	}
	return "LOA"
}

// FileName builds the display filename for a letter.
func FileName(refSpec, first, last, lender string, kind model.DocumentKind) string {
	return fmt.Sprintf("%s - %s %s - %s - %s.pdf",
		refSpec, first, last, SanitizeLenderName(lender), kindLabel(kind))
}

// BuildKey builds the deterministic storage key for a letter. The case folder
// matches the folder client uploads (signatures included) already live in.
func BuildKey(first, last string, contactID int64, lender, fileName string) string {
	folder := CaseFolder(first, last, contactID)
	return folder + "/Lenders/" + SanitizeLenderName(lender) + "/" + fileName
}

// CaseFolder is the per-client prefix shared with signature uploads.
func CaseFolder(first, last string, contactID int64) string {
	return strings.ReplaceAll(first, " ", "_") + "_" +
		strings.ReplaceAll(last, " ", "_") + "_" +
		strconv.FormatInt(contactID, 10)
}

// Publish uploads the PDF, issues a signed URL and upserts the document row.
// The storage key is logged by callers before the upsert so a failed metadata
// write can be reconciled by hand against the already-uploaded object.
func (p *Publisher) Publish(ctx context.Context, in Input) (*Output, error) {
	fileName := FileName(in.RefSpec, in.FirstName, in.LastName, in.Lender, in.Kind)
	key := BuildKey(in.FirstName, in.LastName, in.ContactID, in.Lender, fileName)

	if err := p.Store.Upload(ctx, key, in.PDF, "application/pdf"); err != nil {
		return nil, fmt.Errorf("upload letter: %w", err)
	}

	url, err := p.Store.PresignURL(ctx, key, p.URLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign letter url: %w", err)
	}

	category := "authority-letter"
	if in.Kind == model.KindFollowUpLetter {
		category = "follow-up-letter"
	}
	docID, err := p.Documents.UpsertDocument(ctx, repository.DocumentRecord{
		ContactID: in.ContactID,
		Name:      fileName,
		Type:      "application/pdf",
		Category:  category,
		URL:       url,
		Size:      strconv.Itoa(len(in.PDF)),
		Tags:      []string{category, SanitizeLenderName(in.Lender)},
	})
	if err != nil {
		return nil, fmt.Errorf("record letter: %w", err)
	}

	return &Output{StorageKey: key, FileName: fileName, URL: url, DocumentID: docID}, nil
}
