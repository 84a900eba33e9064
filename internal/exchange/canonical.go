package exchange

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"everypay-integration/internal/domain/model"
)

// Canonicalize renders fields as key=value pairs sorted by key and joined by '&'.
// Values are not escaped: a value containing '&' or '=' makes the rendering ambiguous,
// but escaping would break compatibility with the gateway.
func Canonicalize(fields model.Fields) string {
	var b strings.Builder
	for i, k := range fields.Keys() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}
	return b.String()
}

// Sign returns the lowercase hex HMAC-SHA1 of the canonical form of fields.
// SHA1 is what the gateway verifies against; changing it changes the wire protocol.
func Sign(secret []byte, fields model.Fields) string {
	mac := hmac.New(sha1.New, secret)
	mac.Write([]byte(Canonicalize(fields)))
	return hex.EncodeToString(mac.Sum(nil))
}

func signaturesEqual(expected, given string) bool {
	return hmac.Equal([]byte(expected), []byte(given))
}
