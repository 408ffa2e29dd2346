package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/Pharaon3/bark-automation/internal/domain"
)

// Summary holds the counters reported after a run.
type Summary struct {
	Processed  int
	Submitted  int
	Duplicates int
	Skipped    int
}

// FormatLead renders a lead as a Telegram HTML message. Values are escaped;
// absent values read "N/A".
func FormatLead(l domain.Lead) string {
	var b strings.Builder
	b.WriteString("🔔 <b>New Lead Found!</b>\n\n")
	fmt.Fprintf(&b, "👤 <b>Name:</b> %s\n", orNA(l.Name))
	fmt.Fprintf(&b, "📧 <b>Email:</b> %s\n", orNA(l.Email))
	fmt.Fprintf(&b, "📞 <b>Phone:</b> %s\n", orNA(l.Number))
	fmt.Fprintf(&b, "📍 <b>Address:</b> %s\n", orNA(l.Address))
	fmt.Fprintf(&b, "💼 <b>Field:</b> %s\n\n", orNA(l.Field))
	fmt.Fprintf(&b, "📝 <b>Additional Info:</b>\n%s\n\n", orNA(l.AdditionalInfo))

	b.WriteString("🔍 <b>Scanned Emails:</b>\n")
	if len(l.ScannedEmails) == 0 {
		b.WriteString("None found")
	} else {
		esc := make([]string, len(l.ScannedEmails))
		for i, e := range l.ScannedEmails {
			esc[i] = html.EscapeString(e)
		}
		b.WriteString(strings.Join(esc, "\n"))
	}

	if d := domain.Str(l.ProjectDetails); d != "" {
		fmt.Fprintf(&b, "\n\n📋 <b>Project Details:</b>\n%s", html.EscapeString(d))
	}
	return b.String()
}

// FormatSummary renders the end-of-run counters.
func FormatSummary(s Summary) string {
	return fmt.Sprintf("📊 <b>Email Processing Summary</b>\n\n"+
		"✅ New emails processed: %d\n"+
		"📤 Submitted to sheets: %d\n"+
		"🔄 Duplicates skipped: %d\n"+
		"⏭️ Already processed: %d",
		s.Processed, s.Submitted, s.Duplicates, s.Skipped)
}

func orNA(p *string) string {
	if p == nil || *p == "" {
		return "N/A"
	}
	return html.EscapeString(*p)
}
