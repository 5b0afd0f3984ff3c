package httpcall

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// responsePayload is the decoded view of an HTTP response exposed to
// templates and extractors.
type responsePayload struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte

	decoded     any
	decodeError error
	decodedOnce bool
}

func newResponsePayload(response *http.Response) (*responsePayload, error) {
	defer func() {
		_ = response.Body.Close()
	}()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	headers := make(map[string]string, len(response.Header))
	for name := range response.Header {
		headers[name] = response.Header.Get(name)
	}

	return &responsePayload{
		StatusCode: response.StatusCode,
		Headers:    headers,
		Body:       body,
	}, nil
}

// JSON lazily decodes the body.
func (r *responsePayload) JSON() (any, error) {
	if !r.decodedOnce {
		r.decodedOnce = true
		r.decodeError = json.Unmarshal(r.Body, &r.decoded)
	}

	if r.decodeError != nil {
		return nil, r.decodeError
	}

	return r.decoded, nil
}

// AsMap exposes the response to templates under the response namespace. The
// json key is nil when the body is not valid JSON.
func (r *responsePayload) AsMap() map[string]any {
	decoded, err := r.JSON()
	if err != nil {
		decoded = nil
	}

	return map[string]any{
		"status_code": r.StatusCode,
		"headers":     r.Headers,
		"text":        string(r.Body),
		"json":        decoded,
	}
}
