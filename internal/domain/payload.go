package domain

import "strings"

const (
	MIMEPlain = "text/plain"
	MIMEHTML  = "text/html"
)

// Payload is a decoded message body: either a single leaf with Data or a
// tree of Parts. Data is already transfer-decoded; charset conversion is
// best effort.
type Payload struct {
	MIMEType string
	Data     []byte
	Parts    []Payload
}

// IsMultipart reports whether the payload carries sub-parts.
func (p Payload) IsMultipart() bool {
	return len(p.Parts) > 0 || strings.HasPrefix(p.Kind(), "multipart/")
}

// Kind is the lower-cased media type without parameters.
func (p Payload) Kind() string {
	mt := strings.ToLower(strings.TrimSpace(p.MIMEType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}
