package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"

	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

// envelopePattern matches the first fenced block, tagged json or untagged,
// that wraps a JSON object.
var envelopePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractEnvelope returns the JSON text inside the first fenced block.
func extractEnvelope(response string) (string, error) {
	match := envelopePattern.FindStringSubmatch(response)
	if match == nil {
		return "", &entity.SchemaEnvelopeError{Response: response}
	}
	return match[1], nil
}

// parseObject decodes the envelope payload keeping numbers as json.Number.
func parseObject(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, &entity.MalformedJSONError{Raw: raw, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &entity.MalformedJSONError{Raw: raw, Err: errors.New("unexpected data after JSON object")}
	}
	return obj, nil
}
