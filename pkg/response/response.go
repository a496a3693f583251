package response

import "backend/pkg/apperr"

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromError maps an application error to its status code and envelope.
// Store and unclassified errors surface a generic message; the cause stays
// in the logs.
func FromError(err error) (int, Response) {
	status := apperr.Status(err)
	msg := err.Error()
	switch apperr.KindOf(err) {
	case apperr.KindUnknown, apperr.KindStore:
		msg = "internal server error"
	}
	return status, Error(status, msg)
}
