package feed

import (
	"strings"

	"golang.org/x/net/html"
)

// FirstAnchorHref returns the href of the first <a> element in contentHTML.
// Only the first anchor counts: if it has no usable href the post has no
// canonical link, even when later anchors do.
func FirstAnchorHref(contentHTML string) string {
	if !strings.Contains(contentHTML, "<") {
		return ""
	}

	z := html.NewTokenizer(strings.NewReader(contentHTML))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input, either way there is no anchor left
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" {
				continue
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "href" {
					return strings.TrimSpace(string(val))
				}
			}
			return ""
		}
	}
}
