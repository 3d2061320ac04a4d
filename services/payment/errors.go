package payment

import (
	"encoding/json"
	"fmt"
)

// GatewayError keeps the gateway's status code and body so callers can surface them
type GatewayError struct {
	Operation  string
	StatusCode int
	Payload    []byte
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("payment %s: %v", e.Operation, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("payment %s: gateway returned status %d: %s", e.Operation, e.StatusCode, e.Message())
	}
	return fmt.Sprintf("payment %s failed", e.Operation)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Message returns the gateway's own message when the payload carries one
func (e *GatewayError) Message() string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(e.Payload, &body) == nil && body.Message != "" {
		return body.Message
	}
	if len(e.Payload) == 0 {
		return fmt.Sprintf("gateway returned status %d", e.StatusCode)
	}
	return string(e.Payload)
}

// Details returns the decoded gateway payload, or nil when there is none
func (e *GatewayError) Details() any {
	if len(e.Payload) == 0 {
		if e.StatusCode == 0 {
			return nil
		}
		return map[string]any{"status_code": e.StatusCode}
	}

	var decoded any
	if err := json.Unmarshal(e.Payload, &decoded); err != nil {
		decoded = string(e.Payload)
	}
	return map[string]any{
		"status_code": e.StatusCode,
		"gateway":     decoded,
	}
}
