package apiclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/itchan-dev/postfeed/shared/domain"
	internal_errors "github.com/itchan-dev/postfeed/shared/errors"
)

// FetchBinary downloads the file behind ref. The reference is the relative
// path the post service hands out, e.g. "images/abc.png".
func (c *APIClient) FetchBinary(ctx context.Context, s domain.Session, ref domain.ResourceRef) (domain.BinaryPayload, error) {
	var payload domain.BinaryPayload
	if ref == "" {
		return payload, &internal_errors.ErrorWithStatusCode{Message: "empty file reference", StatusCode: http.StatusBadRequest, Err: internal_errors.ErrNotFound}
	}

	resp, err := c.do(ctx, s, http.MethodGet, "/file/"+strings.TrimPrefix(ref, "/"), nil)
	if err != nil {
		return payload, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return payload, statusError(resp, "file "+ref)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return payload, &internal_errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("cannot read file %s: %v", ref, err),
			StatusCode: http.StatusBadGateway,
			Err:        internal_errors.ErrTransport,
		}
	}

	payload.Data = data
	payload.ContentType = resp.Header.Get("Content-Type")
	if payload.ContentType == "" {
		payload.ContentType = http.DetectContentType(data)
	}
	return payload, nil
}
