package base64

import (
	stdBase64 "encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeJSON marshals v and returns it as standard base64.
func EncodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	return stdBase64.StdEncoding.EncodeToString(raw), nil
}

// DecodeJSON reverses EncodeJSON. Surrounding whitespace and a missing padding are tolerated.
func DecodeJSON(encoded string, v any) error {
	encoded = strings.TrimSpace(encoded)

	raw, err := stdBase64.StdEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = stdBase64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return fmt.Errorf("failed to decode base64 payload: %w", err)
		}
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return nil
}
