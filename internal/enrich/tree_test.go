package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personDoc = `{
  "persons": [
    {
      "name": {"firstName": "Caryn", "lastName": "Robert"},
      "emailAddresses": [
        {"emailAddress": "caryn11r@bellsouth.net", "isValidated": true},
        {"EmailAddress": "crobert@gmail.com"}
      ],
      "email": {"nested": "not walked"},
      "relatives": [{"Email": "kin@bellsouth.net"}]
    }
  ],
  "email_address": 42
}`

func TestWalk_EmailKeys(t *testing.T) {
	var keys []string
	var values []string
	err := Walk([]byte(personDoc), EmailKey, func(key string, n Node) {
		keys = append(keys, key)
		if s, ok := n.Str(); ok {
			values = append(values, s)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"emailAddress", "EmailAddress", "email", "Email", "email_address"}, keys)
	assert.Equal(t, []string{"caryn11r@bellsouth.net", "crobert@gmail.com", "kin@bellsouth.net"}, values)
}

func TestWalk_NodeKinds(t *testing.T) {
	kinds := map[string]nodeKind{}
	err := Walk([]byte(`{"a":{"x":1},"b":[1],"c":"s"}`), func(string) bool { return true }, func(key string, n Node) {
		kinds[key] = n.kind()
	})
	require.NoError(t, err)
	assert.Equal(t, kindObject, kinds["a"])
	assert.Equal(t, kindArray, kinds["b"])
	assert.Equal(t, kindScalar, kinds["c"])
}

func TestWalk_Malformed(t *testing.T) {
	err := Walk([]byte(`{"persons": [`), EmailKey, func(string, Node) {})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEmailKey(t *testing.T) {
	assert.True(t, EmailKey("EMAIL"))
	assert.True(t, EmailKey("emailAddress"))
	assert.True(t, EmailKey("Email_Address"))
	assert.False(t, EmailKey("emails"))
	assert.False(t, EmailKey("emailAddresses"))
}
