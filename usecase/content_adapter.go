package usecase

import (
	"strings"

	"social-hub/domain/model"
)

const ellipsis = "..."

// AdaptContent trims content to the platform's character limit without
// breaking words. Content within the limit is returned unchanged; anything
// longer is cut at a whitespace boundary at or before limit-3 and suffixed
// with "...". Twitter is built greedily word-by-word so even pathological
// inputs land inside exactly 280 characters.
func AdaptContent(content string, platform model.Platform) string {
	limit := model.CharacterLimit(platform)
	if len(content) <= limit {
		return content
	}
	budget := limit - len(ellipsis)

	if platform == model.PlatformTwitter {
		return adaptByWords(content, budget)
	}

	cut := content[:budget]
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		return strings.TrimRight(cut[:idx], " \t\n") + ellipsis
	}
	// No whitespace to break on; hard cut.
	return cut + ellipsis
}

// adaptByWords accumulates whole words while the running length stays within
// budget. A single word longer than the budget forces a hard cut.
func adaptByWords(content string, budget int) string {
	words := strings.Fields(content)
	var b strings.Builder
	for _, w := range words {
		add := len(w)
		if b.Len() > 0 {
			add++
		}
		if b.Len()+add > budget {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	if b.Len() == 0 {
		return content[:budget] + ellipsis
	}
	return b.String() + ellipsis
}
