package sirocco

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// decodePayload turns a response body into an opaque value. Numbers stay
// json.Number so ids survive untouched.
func decodePayload(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty response body")
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode response: unexpected data after top-level value")
	}
	return v, nil
}
