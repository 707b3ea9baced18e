package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/itchan-dev/postfeed/shared/domain"
	"github.com/itchan-dev/postfeed/shared/logger"
	"github.com/itchan-dev/postfeed/shared/utils"
)

// ListPosts fetches one zero-based page of the post listing.
func (c *APIClient) ListPosts(ctx context.Context, s domain.Session, pageIndex, pageSize int) (domain.PagedResult, error) {
	var result domain.PagedResult

	q := url.Values{}
	q.Set("page", strconv.Itoa(pageIndex))
	q.Set("size", strconv.Itoa(pageSize))
	resp, err := c.do(ctx, s, http.MethodGet, "/posts?"+q.Encode(), nil)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, statusError(resp, fmt.Sprintf("page %d", pageIndex))
	}
	if err := utils.DecodeValidate(resp.Body, &result); err != nil {
		return result, fmt.Errorf("cannot decode post listing: %w", err)
	}
	for i := range result.Content {
		checkParent(&result.Content[i])
	}
	return result, nil
}

func (c *APIClient) GetPost(ctx context.Context, s domain.Session, id domain.PostId) (domain.RawPost, error) {
	var post domain.RawPost

	resp, err := c.do(ctx, s, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil)
	if err != nil {
		return post, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return post, statusError(resp, fmt.Sprintf("post %d", id))
	}
	if err := utils.DecodeValidate(resp.Body, &post); err != nil {
		return post, fmt.Errorf("cannot decode post %d: %w", id, err)
	}
	checkParent(&post)
	return post, nil
}

// checkParent validates the immediate parent of a reply. A malformed parent
// is cut down to its id so the reply itself still renders.
func checkParent(post *domain.RawPost) {
	if !post.IsReply() {
		return
	}
	if err := utils.Validate(post.Parent); err != nil {
		logger.Log.Debug("dropping malformed parent", "component", "apiclient", "post_id", post.Id, "parent_id", post.Parent.Id)
		post.Parent = &domain.RawPost{Id: post.Parent.Id}
	}
}
