package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/itchan-dev/postfeed/frontend/internal/feed"
	"github.com/itchan-dev/postfeed/shared/domain"
	internal_errors "github.com/itchan-dev/postfeed/shared/errors"
)

const defaultPage = 1

// maxPageSize caps the size a script client may ask for.
const maxPageSize = 100

var errSuperseded = &internal_errors.ErrorWithStatusCode{
	Message:    "request superseded by a newer one for the same view",
	StatusCode: http.StatusConflict,
	Err:        internal_errors.ErrStaleResult,
}

func parseIntParam(value, name string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil || v < 1 {
		return 0, &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("%s must be a positive integer", name),
			StatusCode: http.StatusBadRequest,
		}
	}
	return v, nil
}

func parsePostId(value string) (domain.PostId, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 1 {
		return 0, &internal_errors.ErrorWithStatusCode{Message: "invalid post id", StatusCode: http.StatusBadRequest}
	}
	return id, nil
}

// loadPage runs a page load and, when a newer load of the same view won,
// answers with what that load committed.
func loadPage(ctx context.Context, a *feed.Assembler, s domain.Session, pageIndex, pageSize int) (*feed.Page, error) {
	page, err := a.LoadPage(ctx, s, pageIndex, pageSize)
	if errors.Is(err, internal_errors.ErrStaleResult) {
		if current := a.Current().Page; current != nil {
			return current, nil
		}
		return nil, errSuperseded
	}
	return page, err
}

func loadSingle(ctx context.Context, a *feed.Assembler, s domain.Session, id domain.PostId) (*feed.PostViewModel, error) {
	vm, err := a.LoadSingle(ctx, s, id)
	if errors.Is(err, internal_errors.ErrStaleResult) {
		if current := a.Current().Single; current != nil && current.Id == id {
			return current, nil
		}
		return nil, errSuperseded
	}
	return vm, err
}

// loadErrorStatus picks the status code for a failed page or post load.
func loadErrorStatus(err error) int {
	if errors.Is(err, internal_errors.ErrNotFound) {
		return http.StatusNotFound
	}
	var e *internal_errors.ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusBadGateway
}
