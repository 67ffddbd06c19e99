package publisher

import (
	"fmt"
	"strings"

	"newsbot/internal/extractor"
	"newsbot/internal/styledtext"
)

// composeIntro builds the thread-head body: intro line plus the fixed
// category hashtag block.
func composeIntro(intro, hashtags string) string {
	if hashtags == "" {
		return intro
	}
	return intro + "\n\n" + hashtags
}

// composeItem builds one item post: bold title, description, hashtags,
// and optionally a thread-position suffix.
func composeItem(item extractor.NewsItem, position, total int, withPosition bool) string {
	var b strings.Builder
	b.WriteString(styledtext.Bold(item.Title))
	b.WriteString("\n\n")
	b.WriteString(item.ShortDescription)
	b.WriteString("\n\n")
	b.WriteString(item.Link)
	b.WriteString("\n")
	b.WriteString(strings.Join(item.Hashtags, " "))
	if withPosition {
		b.WriteString(fmt.Sprintf(" (%d/%d)", position, total))
	}
	return b.String()
}

// composeOutro builds the closing post: outro line plus attribution.
func composeOutro(outro, attribution string) string {
	if attribution == "" {
		return outro
	}
	return outro + "\n\n" + attribution
}
