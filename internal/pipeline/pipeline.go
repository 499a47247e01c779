// Package pipeline chains the letter generation stages: aggregate, gate,
// resolve, render, rasterize, publish, record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rowanrose/claimdocs/internal/casedata"
	"github.com/rowanrose/claimdocs/internal/doctree"
	"github.com/rowanrose/claimdocs/internal/docvars"
	"github.com/rowanrose/claimdocs/internal/model"
	"github.com/rowanrose/claimdocs/internal/publish"
	"github.com/rowanrose/claimdocs/internal/rasterize"
	"github.com/rowanrose/claimdocs/internal/render"
	"github.com/rowanrose/claimdocs/internal/repository"
)

// CaseLoader aggregates the case and contact for one run.
type CaseLoader interface {
	Load(ctx context.Context, caseID int64) (*casedata.Bundle, error)
}

// LenderDirectory resolves counterparty contact details. Both lookups return
// zero values for unknown lenders rather than errors.
type LenderDirectory interface {
	Address(ctx context.Context, lenderName string) (*model.LenderAddress, error)
	Email(ctx context.Context, lenderName string) (string, error)
}

// SignatureSource probes for and loads the client's signature image.
type SignatureSource interface {
	Find(ctx context.Context, folder string) (string, error)
	Load(ctx context.Context, objectKey string) (string, error)
}

// TemplateSource resolves letter templates by kind.
type TemplateSource interface {
	ResolveHTML(ctx context.Context, kind model.DocumentKind) (string, error)
	ResolveTree(ctx context.Context) (*doctree.Node, error)
}

// Rasterizer prints final markup to PDF bytes.
type Rasterizer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// LetterPublisher places the PDF and records it.
type LetterPublisher interface {
	Publish(ctx context.Context, in publish.Input) (*publish.Output, error)
}

// StateStore applies the post-publish bookkeeping.
type StateStore interface {
	UpdateCaseStatus(ctx context.Context, caseID int64, status model.CaseStatus, markAuthority bool) error
	AppendAuditLog(ctx context.Context, entry repository.AuditEntry)
}

// Pipeline wires the stages together. All collaborators are injected so tests
// can run the full sequence against fakes.
type Pipeline struct {
	Cases      CaseLoader
	Lenders    LenderDirectory
	Signatures SignatureSource
	Templates  TemplateSource
	Raster     Rasterizer
	Publisher  LetterPublisher
	State      StateStore

	Firm        docvars.Firm
	LogoDataURI string
	FooterText  string

	// Validate checks rasterizer output before publishing. Defaults to
	// rasterize.ValidatePDF.
	Validate func([]byte) error
	// Now is injected so tests can pin letter dates.
	Now func() time.Time
}

func (p *Pipeline) validate(data []byte) error {
	if p.Validate != nil {
		return p.Validate(data)
	}
	return rasterize.ValidatePDF(data)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Generate runs one full pipeline invocation. A successful authority letter
// run immediately chains into a follow-up letter run for the same case; the
// chained result rides along in FollowUp and its failure never retroactively
// fails the authority result.
func (p *Pipeline) Generate(ctx context.Context, req model.GenerateRequest) *model.GenerateResult {
	res := &model.GenerateResult{
		Status:       model.ResultError,
		DocumentKind: req.DocumentKind,
		CaseID:       req.CaseID,
	}
	if !req.DocumentKind.Valid() {
		res.Error = fmt.Sprintf("unknown document kind %q", req.DocumentKind)
		return res
	}

	err := p.run(ctx, req, res)
	var precondition *PreconditionError
	if err == nil {
		res.Status = model.ResultSuccess
	} else if errors.As(err, &precondition) {
		res.Status = model.ResultSkipped
		res.Reason = precondition.Reason
		res.Error = ""
	} else {
		res.Error = err.Error()
		log.Printf("generate %s for case %d: %v", req.DocumentKind, req.CaseID, err)
	}

	if res.Status == model.ResultSuccess && req.DocumentKind == model.KindAuthorityLetter {
		followUp := p.Generate(ctx, model.GenerateRequest{
			CaseID:           req.CaseID,
			DocumentKind:     model.KindFollowUpLetter,
			SkipStatusUpdate: req.SkipStatusUpdate,
		})
		if followUp.Status == model.ResultError {
			log.Printf("follow-up letter for case %d failed: %s", req.CaseID, followUp.Error)
		}
		res.FollowUp = followUp
	}
	return res
}

func (p *Pipeline) run(ctx context.Context, req model.GenerateRequest, res *model.GenerateResult) error {
	bundle, err := p.Cases.Load(ctx, req.CaseID)
	if err != nil {
		if errors.Is(err, casedata.ErrCaseNotFound) {
			return &NotFoundError{CaseID: req.CaseID, Err: err}
		}
		return fmt.Errorf("load case %d: %w", req.CaseID, err)
	}
	contact := &bundle.Contact
	res.RecordID = contact.ID

	folder := publish.CaseFolder(contact.FirstName, contact.LastName, contact.ID)

	signatureURI := ""
	if req.DocumentKind == model.KindAuthorityLetter {
		sigKey, err := p.Signatures.Find(ctx, folder)
		if err != nil {
			return fmt.Errorf("probe signature: %w", err)
		}
		if sigKey == "" {
			return &PreconditionError{Reason: "No signature found"}
		}
		signatureURI, err = p.Signatures.Load(ctx, sigKey)
		if err != nil {
			return fmt.Errorf("load signature: %w", err)
		}
	}

	lenderAddr, err := p.Lenders.Address(ctx, bundle.Case.Lender)
	if err != nil {
		return fmt.Errorf("lender address: %w", err)
	}
	lenderEmail, err := p.Lenders.Email(ctx, bundle.Case.Lender)
	if err != nil {
		return fmt.Errorf("lender email: %w", err)
	}

	vars := docvars.Build(docvars.Input{
		Bundle:           bundle,
		LenderAddress:    lenderAddr,
		LenderEmail:      lenderEmail,
		Firm:             p.Firm,
		SignatureDataURI: signatureURI,
		LogoDataURI:      p.LogoDataURI,
		Now:              p.now(),
	})

	renderer, err := p.resolveRenderer(ctx, req.DocumentKind)
	if err != nil {
		return &TemplateError{Kind: string(req.DocumentKind), Err: err}
	}
	body, err := renderer.RenderBody(vars)
	if err != nil {
		return &RenderError{Err: err}
	}
	html := render.WrapDocument(body, p.FooterText)

	pdfBytes, err := p.Raster.Render(ctx, html)
	if err != nil {
		return &RasterizeError{Err: err}
	}
	if err := p.validate(pdfBytes); err != nil {
		return &RasterizeError{Err: err}
	}

	// Log the destination before the upsert; if the metadata write fails
	// after the object lands, this line is the reconciliation breadcrumb.
	fileName := publish.FileName(vars["claim.refSpec"], contact.FirstName, contact.LastName, bundle.Case.Lender, req.DocumentKind)
	log.Printf("publishing %s to %s", req.DocumentKind,
		publish.BuildKey(contact.FirstName, contact.LastName, contact.ID, bundle.Case.Lender, fileName))

	out, err := p.Publisher.Publish(ctx, publish.Input{
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		ContactID: contact.ID,
		RefSpec:   vars["claim.refSpec"],
		Lender:    bundle.Case.Lender,
		Kind:      req.DocumentKind,
		PDF:       pdfBytes,
	})
	if err != nil {
		return &PublishError{Err: err}
	}
	res.StorageKey = out.StorageKey
	res.FileName = out.FileName

	if !req.SkipStatusUpdate {
		status := model.StatusAuthoritySigned
		markAuthority := false
		if req.DocumentKind == model.KindAuthorityLetter {
			status = model.StatusAuthorityUploaded
			markAuthority = true
		}
		if err := p.State.UpdateCaseStatus(ctx, bundle.Case.ID, status, markAuthority); err != nil {
			return fmt.Errorf("update case status: %w", err)
		}
		res.NewStatus = status
	}

	p.State.AppendAuditLog(ctx, repository.AuditEntry{
		ContactID:   contact.ID,
		ActionType:  auditActionType(req.DocumentKind),
		Category:    "documents",
		Description: fmt.Sprintf("Generated %s for case %d (%s)", out.FileName, bundle.Case.ID, bundle.Case.Lender),
		Metadata: map[string]any{
			"caseId":     bundle.Case.ID,
			"storageKey": out.StorageKey,
			"documentId": out.DocumentID,
		},
	})
	return nil
}

// resolveRenderer binds the kind to its rendering strategy: flat HTML
// substitution for authority letters, structured tree for follow-ups.
func (p *Pipeline) resolveRenderer(ctx context.Context, kind model.DocumentKind) (render.Renderer, error) {
	if kind == model.KindFollowUpLetter {
		doc, err := p.Templates.ResolveTree(ctx)
		if err != nil {
			return nil, err
		}
		return render.TreeRenderer{Doc: doc, Logo: p.LogoDataURI}, nil
	}
	tmpl, err := p.Templates.ResolveHTML(ctx, kind)
	if err != nil {
		return nil, err
	}
	return render.FlatRenderer{Template: tmpl}, nil
}

func auditActionType(kind model.DocumentKind) string {
	if kind == model.KindFollowUpLetter {
		return "followup_letter_generated"
	}
	return "authority_letter_generated"
}
