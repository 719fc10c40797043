package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx answer from the finance service. Detail carries the
// server's explanation when the body had one.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// Detail returns the server-provided message carried by err, if any.
func Detail(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// IsUnauthorized reports whether err is a 401 from the service.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
