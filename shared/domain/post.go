package domain

import (
	"strings"
	"time"
)

// RawPost is a post record exactly as the post service returns it.
// Parent is only populated for replies; the service may nest further, but
// only the immediate parent is ever read, so tags do not recurse into it.
type RawPost struct {
	Id          PostId      `json:"id"`
	Author      UserRef     `json:"user" validate:"required"`
	Parent      *RawPost    `json:"parent,omitempty" validate:"-"`
	ContentHTML string      `json:"content"`
	MediaRef    ResourceRef `json:"file_url,omitempty"`
	LastAction  string      `json:"last_action"`
	Timestamp   time.Time   `json:"instant"`
}

func (p *RawPost) IsReply() bool {
	return p.Parent != nil
}

type PageInfo struct {
	Size          int   `json:"size"`
	Number        int   `json:"number"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// PagedResult is one page of the post listing. Page numbers are zero-based.
type PagedResult struct {
	Content []RawPost `json:"content" validate:"dive"`
	Page    PageInfo  `json:"page"`
}

type MediaKind string

const (
	MediaNone  MediaKind = "none"
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaKindOf classifies a resource reference by its path segment.
// The payload is never inspected.
func MediaKindOf(ref ResourceRef) MediaKind {
	switch {
	case ref == "":
		return MediaNone
	case strings.Contains(ref, "images/"):
		return MediaImage
	case strings.Contains(ref, "videos/"):
		return MediaVideo
	default:
		return MediaNone
	}
}

type LinkPreview struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image,omitempty"`
	URL         string `json:"url"`
}

// BinaryPayload is a fetched file body.
type BinaryPayload struct {
	Data        []byte
	ContentType string
}

// ResourceHandle is a local, revocable URL for binary content.
type ResourceHandle string

func (h ResourceHandle) String() string {
	return string(h)
}
