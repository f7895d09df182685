// ABOUTME: Base64 speech payload decoder
// ABOUTME: Converts synthesizer payload text into raw PCM bytes
package decode

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// PayloadError reports a payload that is not valid standard base64
type PayloadError struct {
	Offset int64 // -1 when unknown
	Err    error
}

func (e *PayloadError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("malformed audio payload at byte %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("malformed audio payload: %v", e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// Payload decodes a base64 speech payload into PCM bytes.
// The result is never nil on success, so it can be wrapped directly.
func Payload(payload string) ([]byte, error) {
	samples, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		offset := int64(-1)
		var corrupt base64.CorruptInputError
		if errors.As(err, &corrupt) {
			offset = int64(corrupt)
		}
		return nil, &PayloadError{Offset: offset, Err: err}
	}

	if samples == nil {
		samples = []byte{}
	}
	return samples, nil
}
