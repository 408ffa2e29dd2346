package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/Pharaon3/bark-automation/internal/domain"
)

// ExtractText renders a message payload as plain text.
//
// For multipart payloads the parts are scanned in order (nested multiparts
// depth first) and the first leaf with non-empty data decides the result:
// text/plain is returned as is, text/html is rendered to newline-joined text.
// A markup part that comes before a plain part therefore wins. Leaves of any
// other kind are skipped. A single-body payload is decoded directly.
// Returns "" when nothing decodable exists.
func ExtractText(p domain.Payload) string {
	if !p.IsMultipart() {
		if len(p.Data) == 0 {
			return ""
		}
		return strings.TrimSpace(decode(p.Data))
	}
	text, _ := firstText(p.Parts)
	return text
}

func firstText(parts []domain.Payload) (string, bool) {
	for _, part := range parts {
		if part.IsMultipart() {
			if s, ok := firstText(part.Parts); ok {
				return s, true
			}
			continue
		}
		if len(part.Data) == 0 {
			continue
		}
		switch part.Kind() {
		case domain.MIMEPlain:
			return strings.TrimSpace(decode(part.Data)), true
		case domain.MIMEHTML:
			return HTMLToText(decode(part.Data)), true
		}
	}
	return "", false
}

// decode turns body bytes into NFC text with LF line endings. Invalid UTF-8
// is replaced with U+FFFD rather than failing.
func decode(b []byte) string {
	s := strings.ToValidUTF8(string(b), "\uFFFD")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return norm.NFC.String(s)
}

// HTMLToText joins the document's visible text nodes with newlines.
func HTMLToText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.TrimSpace(markup)
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if strings.TrimSpace(n.Data) != "" {
				lines = append(lines, n.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
