package inference

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeObject reads the first JSON object found in a model reply into a
// value of type T. Prose or code fences around the object are ignored.
func DecodeObject[T any](reply string) (T, error) {
	return decodeFirst[T](reply, '{')
}

// DecodeArray reads the first JSON array found in a model reply.
func DecodeArray[T any](reply string) ([]T, error) {
	return decodeFirst[[]T](reply, '[')
}

func decodeFirst[T any](reply string, open byte) (T, error) {
	var v T

	start := strings.IndexByte(reply, open)
	if start < 0 {
		return v, fmt.Errorf("%w: no %q in reply", ErrParse, open)
	}

	// The decoder stops after one value, so trailing text is tolerated.
	dec := json.NewDecoder(strings.NewReader(reply[start:]))
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return v, nil
}
