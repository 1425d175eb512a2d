package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped when the response envelope shape changes so
// clients can detect incompatible servers before parsing the payload.
const envelopeVersion = 1

// envelope is the wire format for every API response.
// Successful responses carry data, failed ones carry the error fields.
type envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps every response body in the versioned
// envelope. Registered on the huma config so handlers return plain
// response structs and never see the envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch val := v.(type) {
	case *APIError:
		env := envelope{
			V:     envelopeVersion,
			Error: val.Message,
		}
		if val.Code != "" {
			env.Code = val.Code
			env.Message = val.Message
		}
		if val.Details != nil {
			env.Details = val.Details
		}
		return env, nil

	case *huma.ErrorModel:
		msg := val.Detail
		if msg == "" {
			msg = val.Title
		}
		return envelope{
			V:     envelopeVersion,
			Error: msg,
			Code:  statusToCode(val.Status),
		}, nil
	}

	// Anything else on a 4xx/5xx status is an error we didn't produce
	// ourselves. Wrap it without guessing at structure.
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		return envelope{
			V:     envelopeVersion,
			Error: "request failed",
		}, nil
	}

	return envelope{
		V:       envelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
