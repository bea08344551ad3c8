package registry

import (
	"bytes"
	"encoding/json"
)

// unmarshalStrict decodes JSON rejecting unknown fields, so typos in
// definitions fail loudly instead of silently dropping configuration.
func unmarshalStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
