// Package docvars builds the flat variable map consumed by both renderer
// strategies. Every key a template may reference has an entry, even if empty,
// so unresolved placeholders never leak into generated letters.
package docvars

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rowanrose/claimdocs/internal/casedata"
	"github.com/rowanrose/claimdocs/internal/model"
)

// Firm carries the letterhead boilerplate injected from configuration.
type Firm struct {
	Name    string
	Address string
	Phone   string
}

// Input gathers everything the map is computed from. The map is rebuilt fresh
// for every generation run and never cached.
type Input struct {
	Bundle        *casedata.Bundle
	LenderAddress *model.LenderAddress
	LenderEmail   string
	Firm          Firm
	// SignatureDataURI is the embedded signature image, empty when the run
	// has no signature (follow-up letters).
	SignatureDataURI string
	LogoDataURI      string
	// Now is injected so tests can pin the letter date.
	Now time.Time
}

// Build computes the derived document variables for one generation run.
func Build(in Input) map[string]string {
	contact := &in.Bundle.Contact
	caseData := &in.Bundle.Case

	fullName := strings.TrimSpace(contact.FirstName + " " + contact.LastName)
	clientID := fmt.Sprintf("RR-%d", contact.ID)
	reference := fmt.Sprintf("%s/%d", clientID, caseData.ID)
	refSpec := fmt.Sprintf("%d%d", contact.ID, caseData.ID)
	today := in.Now.Format("02 January 2006")

	clientAddress := joinNonEmpty(
		contact.AddressLine1,
		contact.AddressLine2,
		contact.City,
		contact.StateCounty,
		contact.PostalCode,
	)

	vars := map[string]string{
		"client.fullName":        fullName,
		"client.firstName":       contact.FirstName,
		"client.lastName":        contact.LastName,
		"client.email":           contact.Email,
		"client.phone":           contact.Phone,
		"client.address":         clientAddress,
		"client.postcode":        contact.PostalCode,
		"client.previousAddress": in.Bundle.PreviousAddress,
		"client.ipAddress":       contact.SignatureIP,

		"claim.lender":    caseData.Lender,
		"claim.clientId":  clientID,
		"claim.reference": reference,
		"claim.refSpec":   refSpec,
		"claim.value":     FormatClaimValue(caseData.ClaimValue),

		"lender.companyName": caseData.Lender,
		"lender.address":     "",
		"lender.city":        "",
		"lender.postcode":    "",
		"lender.email":       in.LenderEmail,

		"firm.name":    in.Firm.Name,
		"firm.address": in.Firm.Address,
		"firm.phone":   in.Firm.Phone,

		"system.today": today,
		"system.year":  strconv.Itoa(in.Now.Year()),

		"document.verificationCode": VerificationCode(refSpec, fullName, today),

		"signature": in.SignatureDataURI,
		"logo":      in.LogoDataURI,
	}

	if in.LenderAddress != nil {
		if in.LenderAddress.CompanyName != "" {
			vars["lender.companyName"] = in.LenderAddress.CompanyName
		}
		vars["lender.address"] = in.LenderAddress.Line1
		vars["lender.city"] = in.LenderAddress.City
		vars["lender.postcode"] = in.LenderAddress.Postcode
	}
	return vars
}

// FormatClaimValue renders a claim amount as a pound figure with thousands
// separators; zero renders as an empty string so letters omit the clause.
func FormatClaimValue(value float64) string {
	if value <= 0 {
		return ""
	}
	whole := int64(value)
	frac := int64((value-float64(whole))*100 + 0.5)
	if frac >= 100 {
		whole++
		frac -= 100
	}
	grouped := groupThousands(whole)
	if frac > 0 {
		return fmt.Sprintf("£%s.%02d", grouped, frac)
	}
	return "£" + grouped
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// VerificationCode derives the short code printed on letters so a recipient
// can be matched back to the generating run. Deterministic for a given case,
// claimant and letter date.
func VerificationCode(refSpec, fullName, today string) string {
	sum := sha256.Sum256([]byte(refSpec + "|" + fullName + "|" + today))
	return strings.ToUpper(fmt.Sprintf("%x", sum[:6]))
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
