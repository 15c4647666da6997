package recognizer

import "encoding/json"

// RequestError is a failed backend call. Message carries the server's
// detail string when the body had one, otherwise the fixed fallback for
// the operation. 4xx and 5xx are not distinguished beyond that.
type RequestError struct {
	Op         string
	StatusCode int // 0 for transport-level failures
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

func requestError(op string, status int, body []byte, fallback string) *RequestError {
	msg := fallback
	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
		msg = detail.Detail
	}
	return &RequestError{Op: op, StatusCode: status, Message: msg}
}
