package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rowanrose/claimdocs/internal/casedata"
	"github.com/rowanrose/claimdocs/internal/doctree"
	"github.com/rowanrose/claimdocs/internal/docvars"
	"github.com/rowanrose/claimdocs/internal/model"
	"github.com/rowanrose/claimdocs/internal/publish"
	"github.com/rowanrose/claimdocs/internal/repository"
)

type fakeCases struct {
	bundle *casedata.Bundle
	err    error
}

func (f *fakeCases) Load(context.Context, int64) (*casedata.Bundle, error) {
	return f.bundle, f.err
}

type fakeLenders struct{}

func (fakeLenders) Address(context.Context, string) (*model.LenderAddress, error) {
	return &model.LenderAddress{CompanyName: "Acme Finance plc", Line1: "1 Bank St", City: "Leeds", Postcode: "LS1 1AA"}, nil
}

func (fakeLenders) Email(context.Context, string) (string, error) {
	return "complaints@acme.example", nil
}

type fakeSignatures struct {
	key   string
	loads int
}

func (f *fakeSignatures) Find(context.Context, string) (string, error) { return f.key, nil }

func (f *fakeSignatures) Load(context.Context, string) (string, error) {
	f.loads++
	return "data:image/png;base64,c2ln", nil
}

type fakeTemplates struct {
	htmlErr error
	treeErr error
}

func (f *fakeTemplates) ResolveHTML(context.Context, model.DocumentKind) (string, error) {
	if f.htmlErr != nil {
		return "", f.htmlErr
	}
	return "<p>Dear {{lender.companyName}}, re {{client.fullName}}</p><p><img src=\"{{signature}}\"/></p>", nil
}

func (f *fakeTemplates) ResolveTree(context.Context) (*doctree.Node, error) {
	if f.treeErr != nil {
		return nil, f.treeErr
	}
	doc, err := doctree.ParseDocument([]byte(`{"type":"doc","content":[
		{"type":"paragraph","content":[
			{"type":"text","text":"To "},
			{"type":"variable","attrs":{"fieldKey":"lender.companyName"}}
		]}
	]}`))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type fakeRaster struct {
	calls []string
	err   error
}

func (f *fakeRaster) Render(_ context.Context, html string) ([]byte, error) {
	f.calls = append(f.calls, html)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

type fakePublisher struct {
	inputs []publish.Input
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, in publish.Input) (*publish.Output, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	name := publish.FileName(in.RefSpec, in.FirstName, in.LastName, in.Lender, in.Kind)
	return &publish.Output{
		StorageKey: publish.BuildKey(in.FirstName, in.LastName, in.ContactID, in.Lender, name),
		FileName:   name,
		URL:        "https://signed.example/" + name,
		DocumentID: "doc-1",
	}, nil
}

type statusChange struct {
	caseID        int64
	status        model.CaseStatus
	markAuthority bool
}

type fakeState struct {
	changes []statusChange
	audits  []repository.AuditEntry
	err     error
}

func (f *fakeState) UpdateCaseStatus(_ context.Context, caseID int64, status model.CaseStatus, markAuthority bool) error {
	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, statusChange{caseID, status, markAuthority})
	return nil
}

func (f *fakeState) AppendAuditLog(_ context.Context, entry repository.AuditEntry) {
	f.audits = append(f.audits, entry)
}

func testBundle() *casedata.Bundle {
	return &casedata.Bundle{
		Case: model.Case{ID: 101, ContactID: 742, Lender: "Acme", ClaimValue: 1200},
		Contact: model.Contact{
			ID: 742, FirstName: "Jane", LastName: "Doe",
			AddressLine1: "4 Mill Lane", City: "York", PostalCode: "YO1 1AA",
			SignatureIP: "203.0.113.9",
		},
	}
}

func testPipeline() (*Pipeline, *fakeSignatures, *fakePublisher, *fakeState, *fakeRaster) {
	sigs := &fakeSignatures{key: "Jane_Doe_742/Signatures/signature.png"}
	pub := &fakePublisher{}
	state := &fakeState{}
	raster := &fakeRaster{}
	p := &Pipeline{
		Cases:      &fakeCases{bundle: testBundle()},
		Lenders:    fakeLenders{},
		Signatures: sigs,
		Templates:  &fakeTemplates{},
		Raster:     raster,
		Publisher:  pub,
		State:      state,
		Firm:       docvars.Firm{Name: "Harborview Claims"},
		FooterText: "footer",
		Validate:   func([]byte) error { return nil },
		Now:        func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) },
	}
	return p, sigs, pub, state, raster
}

func TestGenerateAuthorityChainsIntoFollowUp(t *testing.T) {
	p, _, pub, state, _ := testPipeline()

	res := p.Generate(context.Background(), model.GenerateRequest{
		CaseID: 101, DocumentKind: model.KindAuthorityLetter,
	})

	if res.Status != model.ResultSuccess {
		t.Fatalf("status = %s, error = %s", res.Status, res.Error)
	}
	if res.FollowUp == nil || res.FollowUp.Status != model.ResultSuccess {
		t.Fatalf("expected chained follow-up success, got %+v", res.FollowUp)
	}
	if res.FollowUp.DocumentKind != model.KindFollowUpLetter {
		t.Fatalf("follow-up kind = %s", res.FollowUp.DocumentKind)
	}

	if len(pub.inputs) != 2 {
		t.Fatalf("expected two publishes, got %d", len(pub.inputs))
	}
	if len(state.changes) != 2 {
		t.Fatalf("expected two status updates, got %d", len(state.changes))
	}
	if state.changes[0].status != model.StatusAuthorityUploaded || !state.changes[0].markAuthority {
		t.Fatalf("authority status change = %+v", state.changes[0])
	}
	if state.changes[1].status != model.StatusAuthoritySigned || state.changes[1].markAuthority {
		t.Fatalf("follow-up status change = %+v", state.changes[1])
	}
}

func TestGenerateSkipsWhenUnsigned(t *testing.T) {
	p, sigs, pub, state, raster := testPipeline()
	sigs.key = ""

	res := p.Generate(context.Background(), model.GenerateRequest{
		CaseID: 101, DocumentKind: model.KindAuthorityLetter,
	})

	if res.Status != model.ResultSkipped {
		t.Fatalf("status = %s", res.Status)
	}
	if res.Reason != "No signature found" {
		t.Fatalf("reason = %q, want %q", res.Reason, "No signature found")
	}
	if res.Error != "" {
		t.Fatalf("skipped result must not carry an error, got %q", res.Error)
	}
	if res.FollowUp != nil {
		t.Fatal("skipped authority must not chain")
	}
	if len(pub.inputs) != 0 || len(state.changes) != 0 || len(state.audits) != 0 || len(raster.calls) != 0 {
		t.Fatal("skipped run must not write or rasterize")
	}
}

func TestGenerateFollowUpNeedsNoSignature(t *testing.T) {
	p, sigs, _, state, _ := testPipeline()
	sigs.key = ""

	res := p.Generate(context.Background(), model.GenerateRequest{
		CaseID: 101, DocumentKind: model.KindFollowUpLetter,
	})

	if res.Status != model.ResultSuccess {
		t.Fatalf("status = %s, error = %s", res.Status, res.Error)
	}
	if sigs.loads != 0 {
		t.Fatal("follow-up letter must not load a signature")
	}
	if len(state.changes) != 1 || state.changes[0].status != model.StatusAuthoritySigned {
		t.Fatalf("status changes = %+v", state.changes)
	}
}

func TestGenerateSkipStatusUpdatePassesThroughChain(t *testing.T) {
	p, _, pub, state, _ := testPipeline()

	res := p.Generate(context.Background(), model.GenerateRequest{
		CaseID: 101, DocumentKind: model.KindAuthorityLetter, SkipStatusUpdate: true,
	})

	if res.Status != model.ResultSuccess {
		t.Fatalf("status = %s, error = %s", res.Status, res.Error)
	}
	if len(state.changes) != 0 {
		t.Fatalf("expected no status updates, got %+v", state.changes)
	}
	if res.NewStatus != "" || (res.FollowUp != nil && res.FollowUp.NewStatus != "") {
		t.Fatal("skipped transitions must not report a new status")
	}
	if len(pub.inputs) != 2 {
		t.Fatalf("publishing still runs, got %d publishes", len(pub.inputs))
	}
}

func TestGenerateFollowUpFailureDoesNotFailAuthority(t *testing.T) {
	p, _, _, _, _ := testPipeline()
	p.Templates = &fakeTemplates{treeErr: errors.New("master template gone")}

	res := p.Generate(context.Background(), model.GenerateRequest{
		CaseID: 101, DocumentKind: model.KindAuthorityLetter,
	})

	if res.Status != model.ResultSuccess {
		t.Fatalf("authority status = %s, error = %s", res.Status, res.Error)
	}
	if res.FollowUp == nil || res.FollowUp.Status != model.ResultError {
		t.Fatalf("expected failed follow-up, got %+v", res.FollowUp)
	}
}

func TestGenerateMissingCase(t *testing.T) {
	p, _, _, _, _ := testPipeline()
	p.Cases = &fakeCases{err: casedata.ErrCaseNotFound}

	res := p.Generate(context.Background(), model.GenerateRequest{
		CaseID: 9999, DocumentKind: model.KindAuthorityLetter,
	})

	if res.Status != model.ResultError {
		t.Fatalf("status = %s", res.Status)
	}
	if !strings.Contains(res.Error, "not found") {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestGeneratePublishFailure(t *testing.T) {
	p, _, pub, state, _ := testPipeline()
	pub.err = errors.New("bucket unavailable")

	res := p.Generate(context.Background(), model.GenerateRequest{
		CaseID: 101, DocumentKind: model.KindAuthorityLetter,
	})

	if res.Status != model.ResultError {
		t.Fatalf("status = %s", res.Status)
	}
	if len(state.changes) != 0 {
		t.Fatal("failed publish must not update case status")
	}
	if res.FollowUp != nil {
		t.Fatal("failed authority must not chain")
	}
}

func TestGenerateRejectsUnknownKind(t *testing.T) {
	p, _, _, _, _ := testPipeline()

	res := p.Generate(context.Background(), model.GenerateRequest{
		CaseID: 101, DocumentKind: "POSTCARD",
	})

	if res.Status != model.ResultError {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestGenerateRendersSignatureIntoAuthorityLetter(t *testing.T) {
	p, _, _, _, raster := testPipeline()

	res := p.Generate(context.Background(), model.GenerateRequest{
		CaseID: 101, DocumentKind: model.KindAuthorityLetter,
	})
	if res.Status != model.ResultSuccess {
		t.Fatalf("status = %s, error = %s", res.Status, res.Error)
	}
	if len(raster.calls) == 0 || !strings.Contains(raster.calls[0], "data:image/png;base64,c2ln") {
		t.Fatal("authority letter markup should embed the signature data URI")
	}
}
