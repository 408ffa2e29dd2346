package extract

import (
	"regexp"
	"strings"

	"github.com/Pharaon3/bark-automation/internal/domain"
)

const (
	projectDetailsLabel = "Project Details"
	contactLabel        = "Contact "
)

var (
	reName           = regexp.MustCompile(`🔔\s*([^🔔]*?)\s+is looking`)
	reField          = regexp.MustCompile(`is looking for (?:an|a) ([^\n]*)`)
	reAddress        = regexp.MustCompile(`📍\x{FE0F}?([^:\n]*)`)
	reNumber         = regexp.MustCompile(`(?:^|[^\d*])(\(?\d{3}\)?[ .\-]?[\d*]{3}[ .\-]?[\d*]{4})(?:[^\d*]|$)`)
	reEmail          = regexp.MustCompile(`[\w*.+\-]+@[\w*.\-]+`)
	reAdditionalInfo = regexp.MustCompile(`(?s)“(.*?)”`)
	reBlankRun       = regexp.MustCompile(`\n{2,}`)
)

// ParseFields extracts lead fields from notification text. Each rule runs
// independently; a rule without a match leaves its field nil.
// ProjectDetails is only looked for once Name is known.
func ParseFields(text string) domain.Lead {
	lead := domain.Lead{
		Name:           parseName(text),
		Field:          capture(reField, text),
		Address:        capture(reAddress, text),
		Number:         capture(reNumber, text),
		AdditionalInfo: capture(reAdditionalInfo, text),
	}
	if email := match(reEmail, text); email != nil {
		lead.Email = domain.Ptr(strings.TrimRight(*email, "."))
	}
	if name := domain.Str(lead.Name); name != "" {
		lead.ProjectDetails = projectDetails(text, name)
	}
	return lead
}

// parseName may span lines when the bell and the name were separate inline
// elements; inner whitespace collapses to single spaces.
func parseName(text string) *string {
	m := reName.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return domain.Ptr(strings.Join(strings.Fields(m[1]), " "))
}

func capture(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return domain.Ptr(strings.TrimSpace(m[1]))
}

func match(re *regexp.Regexp, text string) *string {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	return domain.Ptr(strings.TrimSpace(text[loc[0]:loc[1]]))
}

// projectDetails returns the block between "Project Details" and
// "Contact <name>", with the name matched literally.
func projectDetails(text, name string) *string {
	start := strings.Index(text, projectDetailsLabel)
	if start < 0 {
		return nil
	}
	start += len(projectDetailsLabel)
	end := strings.Index(text[start:], contactLabel+name)
	if end < 0 {
		return nil
	}
	block := NormalizeBlock(text[start : start+end])
	return &block
}

// NormalizeBlock trims the block and each of its lines, then collapses runs
// of blank lines to a single blank line.
func NormalizeBlock(block string) string {
	lines := strings.Split(strings.TrimSpace(block), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return reBlankRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}
