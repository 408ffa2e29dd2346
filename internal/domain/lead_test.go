package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadRow(t *testing.T) {
	l := Lead{
		Name:   Ptr("Caryn"),
		Number: Ptr("(225) 555-****"),
		Email:  Ptr("c*****r@b*******h.net"),
	}
	row := l.Row()
	assert.Len(t, row, len(Headers))
	assert.Equal(t, "Caryn", row[ColName])
	assert.Equal(t, "", row[ColField])
	assert.Equal(t, "(225) 555-****", row[ColNumber])
	assert.Equal(t, "c*****r@b*******h.net", row[ColEmail])
	assert.True(t, l.MaskedEmail())
}

func TestPayloadKind(t *testing.T) {
	assert.Equal(t, "text/html", Payload{MIMEType: "Text/HTML; charset=utf-8"}.Kind())
	assert.True(t, Payload{MIMEType: "multipart/alternative"}.IsMultipart())
	assert.False(t, Payload{MIMEType: "text/plain"}.IsMultipart())
}
