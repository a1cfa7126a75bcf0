package schema

import (
	"encoding/base64"
	"encoding/json"

	pkgerrors "twinklepod/pkg/errors"
)

// EncodeToken turns a last-evaluated key of string attributes into an opaque
// continuation token. An empty key yields an empty token.
func EncodeToken(key map[string]string) string {
	if len(key) == 0 {
		return ""
	}
	raw, err := json.Marshal(key)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeToken reverses EncodeToken. An empty token yields a nil key.
func DecodeToken(token string) (map[string]string, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, pkgerrors.NewInvalidInputError("invalid continuation token")
	}
	var key map[string]string
	if err := json.Unmarshal(raw, &key); err != nil || len(key) == 0 {
		return nil, pkgerrors.NewInvalidInputError("invalid continuation token")
	}
	return key, nil
}
