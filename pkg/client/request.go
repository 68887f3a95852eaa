package client

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one logical API call.
type Request struct {
	// Method is the HTTP method (default: GET).
	Method string

	// Path is appended to the configured base URL.
	Path string

	// Query holds URL query parameters.
	Query url.Values

	// Body is sent as JSON. A []byte is sent unchanged.
	Body any

	// Header holds extra request headers.
	Header http.Header

	// Operation labels logs and metrics, for example "content.list".
	Operation string

	// AllowRetry enables retries for a non-idempotent method.
	AllowRetry bool
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

func (r *Request) operation() string {
	if r.Operation != "" {
		return r.Operation
	}
	return r.method()
}

// encodeBody returns the JSON encoding of the request body, or nil.
func (r *Request) encodeBody() ([]byte, error) {
	switch body := r.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return body, nil
	case json.RawMessage:
		return body, nil
	default:
		return json.Marshal(body)
	}
}

// isIdempotent reports whether a method may be repeated without side effects.
func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// Response is a successful API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// RequestID is the X-Request-ID sent with every attempt.
	RequestID string

	// Attempts is the number of attempts it took.
	Attempts int
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Error{
			Code:       CodeUnknown,
			Message:    "failed to decode response body",
			StatusCode: r.StatusCode,
			StatusText: http.StatusText(r.StatusCode),
			Err:        err,
		}
	}
	return nil
}

// apiErrorBody is the error payload the API returns on failures.
type apiErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errorMessage extracts a readable message from a failed response.
func errorMessage(resp *http.Response, body []byte) string {
	var payload apiErrorBody
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return "request failed with " + resp.Status
}
