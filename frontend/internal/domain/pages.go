package frontend_domain

type FeedPageData struct {
	Posts      []*Post
	Pagination Pagination
}

type PostPageData struct {
	Post *Post
}

// PageLink is one numbered pagination button. Number is one-based.
type PageLink struct {
	Number  int
	Current bool
}

type Pagination struct {
	Current int
	Total   int
	Prev    int // 0 when there is no previous page
	Next    int // 0 when there is no next page
	Pages   []PageLink
}
