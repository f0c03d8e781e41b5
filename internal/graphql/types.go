// Package graphql holds the narrow execution surface the offline queue
// replays through. The queue never parses documents; it hands Request
// values to a Client and inspects the Response envelope only.
package graphql

import "encoding/json"

// Request is a single GraphQL call. JSON tags match the standard HTTP
// transport body so a Request marshals directly onto the wire.
type Request struct {
	Name      string         `json:"operationName,omitempty"`
	Document  string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// ResponseError mirrors the GraphQL wire error shape
type ResponseError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Response carries data and errors exactly as returned. Both can be present
// at once; partial data with errors is a normal outcome, not a transport
// failure.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []ResponseError `json:"errors,omitempty"`
}

// HasData reports whether the response carries a usable data payload
func (r *Response) HasData() bool {
	return len(r.Data) > 0 && string(r.Data) != "null"
}

// ErrorMessages flattens response errors for logs and status reporting
func (r *Response) ErrorMessages() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return msgs
}
