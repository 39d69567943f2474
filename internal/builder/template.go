package builder

import (
	"encoding/json"

	"golang.org/x/crypto/blake2b"

	"plcsim/internal/decl"
	"plcsim/internal/perror"
)

// templateCache memoizes a Template's decoded body by content hash
// (spec §4.6 "template reference" / SPEC_FULL §12.5 template expansion),
// so a template referenced from many call sites is parsed once;
// grounded on the original implementation's
// template cache keyed by a digest of the template's raw body bytes.
type templateCache struct {
	byHash map[[32]byte][]json.RawMessage
}

func newTemplateCache() *templateCache {
	return &templateCache{byHash: make(map[[32]byte][]json.RawMessage)}
}

// bodyOf returns raw's decoded []json.RawMessage body, parsing it once
// per distinct content hash and returning the cached slice on every
// later reference to an identical template body.
func (tc *templateCache) bodyOf(raw json.RawMessage) ([]json.RawMessage, error) {
	hash := blake2b.Sum256(raw)
	if body, ok := tc.byHash[hash]; ok {
		return body, nil
	}
	var src decl.TemplateSrc
	if err := decl.ParseSrc(raw, &src); err != nil {
		return nil, perror.Wrap(perror.ParseError, err, "decoding template body")
	}
	tc.byHash[hash] = src.Body
	return src.Body, nil
}
