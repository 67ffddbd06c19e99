package extractor

import "strings"

// stripCodeFence removes a leading/trailing markdown code fence from a
// model response. Models sometimes wrap JSON output in ```json fences
// even when asked not to.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// normalizeItem rewrites relative links against the source origin and
// ensures every hashtag carries a leading '#'. It is idempotent.
func normalizeItem(item NewsItem, origin string) NewsItem {
	item.Link = normalizeLink(item.Link, origin)
	for i, tag := range item.Hashtags {
		item.Hashtags[i] = normalizeHashtag(tag)
	}
	return item
}

func normalizeLink(link, origin string) string {
	if strings.HasPrefix(link, "/") {
		return origin + link
	}
	return link
}

func normalizeHashtag(tag string) string {
	if tag == "" || strings.HasPrefix(tag, "#") {
		return tag
	}
	return "#" + tag
}
