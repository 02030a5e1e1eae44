package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const maxRecoveryAttempts = 16

var (
	ErrEmptyBody     = errors.New("empty response body")
	ErrMalformedBody = errors.New("malformed response body")
)

// DecodeTolerant decodes a JSON body that may be wrapped in a single-element array or
// surrounded by stray bytes (HTML error prefixes, truncated trailers). partial reports
// whether bytes had to be discarded to get a valid document.
func DecodeTolerant(body []byte, v any) (partial bool, err error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return false, ErrEmptyBody
	}

	if err = decodeDocument(body, v); err == nil {
		return false, nil
	}

	if errors.Is(err, ErrEmptyBody) {
		return false, err
	}

	start := bytes.IndexAny(body, "{[")
	if start == -1 {
		return false, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}

	end := len(body)
	for range maxRecoveryAttempts {
		end = bytes.LastIndexAny(body[:end], "}]")
		if end <= start {
			break
		}

		if decodeDocument(body[start:end+1], v) == nil {
			return true, nil
		}
	}

	return false, fmt.Errorf("%w: %w", ErrMalformedBody, err)
}

// decodeDocument decodes doc into v, unwrapping a one-element array when v is not a slice.
func decodeDocument(doc []byte, v any) error {
	err := json.Unmarshal(doc, v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || doc[0] != '[' {
		return err //nolint:wrapcheck
	}

	var items []json.RawMessage
	if err := json.Unmarshal(doc, &items); err != nil {
		return err //nolint:wrapcheck
	}

	if len(items) == 0 {
		return ErrEmptyBody
	}

	return json.Unmarshal(items[0], v) //nolint:wrapcheck
}
