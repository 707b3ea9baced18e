package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/itchan-dev/postfeed/shared/domain"
	internal_errors "github.com/itchan-dev/postfeed/shared/errors"
	"github.com/itchan-dev/postfeed/shared/utils"
)

// FetchPreview asks the post service for link preview metadata. A response
// without a title is unprocessable.
func (c *APIClient) FetchPreview(ctx context.Context, s domain.Session, link string) (domain.LinkPreview, error) {
	var preview domain.LinkPreview

	if c.previewLimiter != nil {
		if err := c.previewLimiter.Wait(ctx); err != nil {
			return preview, &internal_errors.ErrorWithStatusCode{
				Message:    fmt.Sprintf("preview throttled: %v", err),
				StatusCode: http.StatusTooManyRequests,
				Err:        internal_errors.ErrTransport,
			}
		}
	}

	q := url.Values{}
	q.Set("url", link)
	resp, err := c.do(ctx, s, http.MethodGet, "/posts/link/preview?"+q.Encode(), nil)
	if err != nil {
		return preview, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return preview, statusError(resp, "preview of "+link)
	}
	if err := utils.DecodeValidate(resp.Body, &preview); err != nil {
		return preview, fmt.Errorf("cannot decode preview of %s: %w", link, err)
	}
	return preview, nil
}
