package parser

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"
)

var errNotText = errors.New("decoded content is not valid UTF-8")

var stripSpace = strings.NewReplacer("\r", "", "\n", "", " ", "", "\t", "")

// DecodeBase64 decodes s after repairing its padding to a multiple of four.
// Both the standard and the URL-safe alphabet are accepted. The result must
// be UTF-8 text.
func DecodeBase64(s string) ([]byte, error) {
	s = stripSpace.Replace(s)
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}

	buf, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		buf, err = base64.URLEncoding.DecodeString(s)
		if err != nil {
			return nil, err
		}
	}
	if !utf8.Valid(buf) {
		return nil, errNotText
	}
	return buf, nil
}
