package mailbox

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/emersion/go-message"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"

	"github.com/Pharaon3/bark-automation/internal/domain"
)

func init() {
	// Bodies are converted to UTF-8 for every charset x/net knows.
	message.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return charset.NewReaderLabel(label, input)
	}
}

// maxPartBytes bounds a single decoded part.
const maxPartBytes = 8 << 20

// ParsePayload parses a raw RFC 5322 message into a Payload tree. Transfer
// encodings are removed and known charsets converted to UTF-8; parts in an
// unknown charset keep their raw bytes.
func ParsePayload(raw []byte) (domain.Payload, error) {
	e, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return domain.Payload{}, eris.Wrap(err, "mailbox: parse message")
	}
	return entityPayload(e)
}

func entityPayload(e *message.Entity) (domain.Payload, error) {
	mediaType, _, err := e.Header.ContentType()
	if err != nil || mediaType == "" {
		mediaType = domain.MIMEPlain
	}
	p := domain.Payload{MIMEType: mediaType}

	if mr := e.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
				return p, eris.Wrap(err, "mailbox: read part")
			}
			if part == nil {
				continue
			}
			child, err := entityPayload(part)
			if err != nil {
				return p, err
			}
			p.Parts = append(p.Parts, child)
		}
		return p, nil
	}

	if strings.EqualFold(disposition(e), "attachment") {
		return p, nil
	}

	data, err := io.ReadAll(io.LimitReader(e.Body, maxPartBytes))
	if err != nil {
		return p, eris.Wrap(err, "mailbox: read body")
	}
	p.Data = data
	return p, nil
}

func disposition(e *message.Entity) string {
	d, _, err := e.Header.ContentDisposition()
	if err != nil {
		return ""
	}
	return d
}

// MessageID returns the trimmed Message-Id header of raw, or "".
func MessageID(raw []byte) string {
	e, err := message.Read(bytes.NewReader(raw))
	if e == nil || (err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err)) {
		return ""
	}
	return normalizeMessageID(e.Header.Get("Message-Id"))
}

func normalizeMessageID(v string) string {
	return strings.TrimSpace(v)
}
