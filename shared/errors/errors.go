package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrTransport     = errors.New("transport error")
	ErrUnprocessable = errors.New("unprocessable response")

	// ErrStaleResult is returned when a load finished after a newer one was
	// started for the same view. The result has been discarded.
	ErrStaleResult = errors.New("stale result discarded")
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func (e *ErrorWithStatusCode) Unwrap() error {
	return e.Err
}

// PageLoadError means the listing (or the single post) itself could not be
// fetched. Nothing of the page is rendered.
type PageLoadError struct {
	PageIndex int
	PostId    int64
	Err       error
}

func (e *PageLoadError) Error() string {
	if e.PostId != 0 {
		return fmt.Sprintf("cannot load post %d: %v", e.PostId, e.Err)
	}
	return fmt.Sprintf("cannot load page %d: %v", e.PageIndex, e.Err)
}

func (e *PageLoadError) Unwrap() error {
	return e.Err
}
