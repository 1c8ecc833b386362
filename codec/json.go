package codec

import "encoding/json"

// JSON encodes values with encoding/json. Map keys are emitted in sorted
// order by the standard library, so struct- and map-shaped payloads encode
// deterministically.
type JSON struct{}

var _ Encoder = JSON{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
