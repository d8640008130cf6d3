package fortlev

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Response is a partner response with its body read
type Response struct {
	StatusCode int
	Header     http.Header

	// Body holds the JSON body, or nil when the partner sent something that is not JSON
	Body json.RawMessage
}

// ReadResponse reads and closes resp. A body that does not parse as JSON is
// recorded as absent rather than reported as an error.
func ReadResponse(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fortlev: read response: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header}
	if json.Valid(raw) {
		out.Body = json.RawMessage(raw)
	}
	return out, nil
}

// BodyOrNull returns the JSON body, or the literal null when absent
func (r *Response) BodyOrNull() json.RawMessage {
	if r.Body == nil {
		return json.RawMessage("null")
	}
	return r.Body
}
