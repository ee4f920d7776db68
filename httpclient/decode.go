package httpclient

import (
	"context"
	"encoding/json"
	nethttp "net/http"
)

// DecodeJSON performs the call and decodes a successful body into a T.
func DecodeJSON[T any](ctx context.Context, c Client, method string, req *Request) (T, error) {
	var out T
	if err := c.JSON(ctx, method, req, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func decodeJSONBody(resp *Response, out any) error {
	if out == nil || resp == nil || len(resp.Body) == 0 || resp.StatusCode == nethttp.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return NewDecodeError("failed to decode response body", err)
	}
	return nil
}
