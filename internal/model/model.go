// Package model contains simple struct definitions shared across packages.
package model

import "time"

// DocumentKind selects which of the two letters a pipeline invocation produces.
type DocumentKind string

const (
	KindAuthorityLetter DocumentKind = "AUTHORITY_LETTER"
	KindFollowUpLetter  DocumentKind = "FOLLOWUP_LETTER"
)

// Valid reports whether the kind is one of the two supported letters.
func (k DocumentKind) Valid() bool {
	return k == KindAuthorityLetter || k == KindFollowUpLetter
}

// CaseStatus labels the lifecycle of a case as documents are produced.
type CaseStatus string

const (
	// StatusAuthorityUploaded is the terminal status after a successful
	// authority-letter generation.
	StatusAuthorityUploaded CaseStatus = "Authority Uploaded"
	// StatusAuthoritySigned is the terminal status after the follow-up
	// letter completes.
	StatusAuthoritySigned CaseStatus = "Authority Signed"
)

// Case identifies one claim against one lender, owned by exactly one contact.
type Case struct {
	ID                 int64      `json:"id"`
	ContactID          int64      `json:"contactId"`
	Lender             string     `json:"lender"`
	ClaimValue         float64    `json:"claimValue"`
	Status             CaseStatus `json:"status"`
	AuthorityGenerated bool       `json:"authorityGenerated"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// PreviousAddress is one entry of a contact's prior-address history. Imported
// rows use two key schemes, so decoding tolerates both JSON names per field
// (see previousAddressJSON in casedata).
type PreviousAddress struct {
	Line1    string
	Line2    string
	City     string
	County   string
	Postcode string
}

// Contact is the claimant associated with one or more cases.
type Contact struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	StateCounty  string `json:"stateCounty"`
	PostalCode   string `json:"postalCode"`

	PreviousLine1    string `json:"previousLine1"`
	PreviousLine2    string `json:"previousLine2"`
	PreviousCity     string `json:"previousCity"`
	PreviousCounty   string `json:"previousCounty"`
	PreviousPostcode string `json:"previousPostcode"`
	// PreviousAddresses is the JSON-array form of the address history.
	PreviousAddresses []PreviousAddress `json:"previousAddresses,omitempty"`

	SignatureIP string    `json:"signatureIp"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LenderAddress is the postal address block of a counterparty.
type LenderAddress struct {
	CompanyName string `json:"companyName"`
	Line1       string `json:"line1"`
	City        string `json:"city"`
	Postcode    string `json:"postcode"`
}

// GenerateRequest is the invocation contract for one pipeline run.
type GenerateRequest struct {
	CaseID           int64        `json:"caseId"`
	DocumentKind     DocumentKind `json:"documentKind"`
	SkipStatusUpdate bool         `json:"skipStatusUpdate,omitempty"`
}

// ResultStatus is the terminal state of a pipeline invocation.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "SUCCESS"
	ResultSkipped ResultStatus = "SKIPPED"
	ResultError   ResultStatus = "ERROR"
)

// GenerateResult reports one pipeline invocation. For an authority letter that
// chains into the follow-up letter, FollowUp carries the second invocation's
// own result.
type GenerateResult struct {
	Status       ResultStatus    `json:"status"`
	DocumentKind DocumentKind    `json:"documentKind"`
	CaseID       int64           `json:"caseId"`
	RecordID     int64           `json:"recordId,omitempty"`
	StorageKey   string          `json:"storageKey,omitempty"`
	FileName     string          `json:"fileName,omitempty"`
	NewStatus    CaseStatus      `json:"newStatus,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	Error        string          `json:"error,omitempty"`
	FollowUp     *GenerateResult `json:"followUp,omitempty"`
}
