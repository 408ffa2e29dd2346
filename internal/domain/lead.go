package domain

import "strings"

// Lead is the record extracted from one notification email.
// Nil string fields were not found in the message; they are distinct from "".
type Lead struct {
	Name           *string
	Field          *string // profession / category
	Address        *string
	Number         *string // may contain '*' for masked digits
	Email          *string // may contain '*' for masked characters
	AdditionalInfo *string
	ProjectDetails *string

	// ScannedEmails are fully revealed addresses found by enrichment that
	// match the masked Email, in discovery order.
	ScannedEmails []string
}

// Headers is the header row of the ledger sheet, in row order.
var Headers = []string{"Name", "Field", "Address", "Number", "Email", "Additional Info", "Project Details"}

// Ledger cell positions.
const (
	ColName = iota
	ColField
	ColAddress
	ColNumber
	ColEmail
	ColAdditionalInfo
	ColProjectDetails
)

// Row renders the lead as the 7 ordered ledger cells. Absent fields become "".
func (l Lead) Row() []string {
	return []string{
		Str(l.Name),
		Str(l.Field),
		Str(l.Address),
		Str(l.Number),
		Str(l.Email),
		Str(l.AdditionalInfo),
		Str(l.ProjectDetails),
	}
}

// MaskedEmail reports whether Email is present and hides at least one character.
func (l Lead) MaskedEmail() bool {
	return l.Email != nil && strings.Contains(*l.Email, "*")
}

// Str dereferences p, returning "" for nil.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ptr returns a pointer to s.
func Ptr(s string) *string { return &s }
