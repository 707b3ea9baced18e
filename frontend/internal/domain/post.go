package frontend_domain

import (
	"html/template"

	"github.com/itchan-dev/postfeed/frontend/internal/feed"
)

// RenderContext contains presentation-specific fields for rendering posts.
type RenderContext struct {
	ExtraClasses string // "feed-post", "single-post" or "parent-post"
	ActionLabel  string // "Created", "Edited", ...
}

// Post wraps feed.PostViewModel with frontend-specific fields.
// Content is the sanitized body, safe to emit as is.
type Post struct {
	*feed.PostViewModel
	Content template.HTML
	Parent  *Post
	Context RenderContext
}
