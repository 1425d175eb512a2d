package api

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalEnvelope(t *testing.T, status string, v any) map[string]any {
	t.Helper()

	result, err := EnvelopeTransformer(nil, status, v)
	require.NoError(t, err)

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestEnvelopeTransformer_Success(t *testing.T) {
	out := marshalEnvelope(t, "200", map[string]string{"id": "book-123"})

	assert.Equal(t, float64(envelopeVersion), out["v"])
	assert.Equal(t, true, out["success"])
	assert.Contains(t, out, "data")
	assert.NotContains(t, out, "error")
}

func TestEnvelopeTransformer_SuccessNilData(t *testing.T) {
	out := marshalEnvelope(t, "204", nil)

	assert.Equal(t, float64(envelopeVersion), out["v"])
	assert.Equal(t, true, out["success"])
	assert.NotContains(t, out, "data")
}

func TestEnvelopeTransformer_SimpleError(t *testing.T) {
	out := marshalEnvelope(t, "404", &APIError{Message: "Resource not found"})

	assert.Equal(t, float64(envelopeVersion), out["v"])
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Resource not found", out["error"])
}

func TestEnvelopeTransformer_DetailedError(t *testing.T) {
	out := marshalEnvelope(t, "409", &APIError{
		Code:    "CONFLICT",
		Message: "Entity already exists",
		Details: map[string]string{"existing_id": "book-abc"},
	})

	assert.Equal(t, false, out["success"])
	assert.Equal(t, "CONFLICT", out["code"])
	assert.Equal(t, "Entity already exists", out["message"])
	assert.Contains(t, out, "details")
	// The plain error string is still present for simple clients.
	assert.Equal(t, "Entity already exists", out["error"])
}

// The version field must be named exactly "v"; clients key on it.
func TestEnvelopeTransformer_VersionFieldName(t *testing.T) {
	out := marshalEnvelope(t, "200", nil)

	assert.Contains(t, out, "v")
	assert.NotContains(t, out, "version")
}
