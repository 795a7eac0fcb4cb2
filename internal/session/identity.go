package session

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// UserID extracts the `id` claim from a JWT's payload without verifying
// the signature. The result is a display and ownership hint only; the
// server remains authoritative for any decision that matters. Returns
// false when the token is malformed or carries no id claim.
func UserID(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return "", false
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return "", false
	}

	var claims map[string]any
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return "", false
	}

	switch id := claims["id"].(type) {
	case string:
		return id, id != ""
	case json.Number:
		return id.String(), true
	default:
		return "", false
	}
}
