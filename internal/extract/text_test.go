package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Pharaon3/bark-automation/internal/domain"
)

const (
	samplePlain = "🔔 Caryn is looking for a Plumber\n📍Baton Rouge, LA, 70817: 3 miles away"
	sampleHTML  = `<html><head><style>p{color:red}</style></head><body><p>🔔 Caryn is looking for a Electrician</p><p>📍Austin, TX: 1 mile</p></body></html>`
)

func TestExtractText_PlainFirst(t *testing.T) {
	p := domain.Payload{
		MIMEType: "multipart/alternative",
		Parts: []domain.Payload{
			{MIMEType: "text/plain; charset=utf-8", Data: []byte("  " + samplePlain + "\r\n")},
			{MIMEType: "text/html", Data: []byte(sampleHTML)},
		},
	}
	assert.Equal(t, samplePlain, ExtractText(p))
}

func TestExtractText_MarkupFirstWins(t *testing.T) {
	// The first non-empty part decides even when a plain part follows.
	p := domain.Payload{
		MIMEType: "multipart/alternative",
		Parts: []domain.Payload{
			{MIMEType: "text/html", Data: []byte(sampleHTML)},
			{MIMEType: "text/plain", Data: []byte(samplePlain)},
		},
	}
	got := ExtractText(p)
	assert.Equal(t, "🔔 Caryn is looking for a Electrician\n📍Austin, TX: 1 mile", got)
	assert.NotContains(t, got, "color:red")
}

func TestExtractText_SkipsEmptyAndOtherParts(t *testing.T) {
	p := domain.Payload{
		MIMEType: "multipart/mixed",
		Parts: []domain.Payload{
			{MIMEType: "text/plain"},
			{MIMEType: "image/png", Data: []byte{0x89, 0x50}},
			{
				MIMEType: "multipart/alternative",
				Parts: []domain.Payload{
					{MIMEType: "text/plain", Data: []byte("nested plain")},
				},
			},
		},
	}
	assert.Equal(t, "nested plain", ExtractText(p))
}

func TestExtractText_SingleBody(t *testing.T) {
	assert.Equal(t, "hello", ExtractText(domain.Payload{MIMEType: "text/plain", Data: []byte("\n hello \n")}))
	assert.Equal(t, "", ExtractText(domain.Payload{MIMEType: "text/plain"}))
	assert.Equal(t, "", ExtractText(domain.Payload{MIMEType: "multipart/mixed"}))
}

func TestExtractText_InvalidUTF8(t *testing.T) {
	got := ExtractText(domain.Payload{MIMEType: "text/plain", Data: []byte("ab\xffcd")})
	assert.Equal(t, "ab\uFFFDcd", got)
}

func TestHTMLToText(t *testing.T) {
	got := HTMLToText(`<div>Project Details<br>Kitchen &amp; bath<script>var x=1</script></div>`)
	assert.Equal(t, "Project Details\nKitchen & bath", got)
}
