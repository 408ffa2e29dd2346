package enrich

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// ErrMalformed is returned by Walk for documents that are not valid JSON.
var ErrMalformed = eris.New("enrich: malformed response body")

type nodeKind int

const (
	kindScalar nodeKind = iota
	kindObject
	kindArray
)

// Node is one value of a parsed response document.
type Node struct {
	r gjson.Result
}

func (n Node) kind() nodeKind {
	switch {
	case n.r.IsObject():
		return kindObject
	case n.r.IsArray():
		return kindArray
	default:
		return kindScalar
	}
}

// Str returns the value when the node is a JSON string.
func (n Node) Str() (string, bool) {
	if n.r.Type != gjson.String {
		return "", false
	}
	return n.r.Str, true
}

// KeyPredicate selects object members by key.
type KeyPredicate func(key string) bool

// EmailKey matches the keys people-search records use for email fields.
func EmailKey(key string) bool {
	switch strings.ToLower(key) {
	case "email", "emailaddress", "email_address":
		return true
	}
	return false
}

// Walk visits, in document order, every object member whose key satisfies
// pred. Selected members are not descended into; every other object and
// array value is walked recursively.
func Walk(doc []byte, pred KeyPredicate, visit func(key string, n Node)) error {
	if !gjson.ValidBytes(doc) {
		return ErrMalformed
	}
	walk(gjson.ParseBytes(doc), pred, visit)
	return nil
}

func walk(r gjson.Result, pred KeyPredicate, visit func(key string, n Node)) {
	switch (Node{r: r}).kind() {
	case kindObject:
		r.ForEach(func(k, v gjson.Result) bool {
			if key := k.String(); pred(key) {
				visit(key, Node{r: v})
			} else {
				walk(v, pred, visit)
			}
			return true
		})
	case kindArray:
		r.ForEach(func(_, v gjson.Result) bool {
			walk(v, pred, visit)
			return true
		})
	}
}
