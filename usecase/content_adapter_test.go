package usecase_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"social-hub/domain/model"
	"social-hub/usecase"
)

func TestAdaptContent_WithinLimitUnchanged(t *testing.T) {
	for _, p := range model.AllPlatforms() {
		content := "Hello, world!"
		assert.Equal(t, content, usecase.AdaptContent(content, p))
	}
}

func TestAdaptContent_ExactlyAtLimitUnchanged(t *testing.T) {
	content := strings.Repeat("a", 280)
	assert.Equal(t, content, usecase.AdaptContent(content, model.PlatformTwitter))
}

func TestAdaptContent_TwitterTruncatesAtWordBoundary(t *testing.T) {
	content := strings.Repeat("word ", 100) // 500 chars
	got := usecase.AdaptContent(content, model.PlatformTwitter)

	assert.LessOrEqual(t, len(got), 280)
	assert.True(t, strings.HasSuffix(got, "..."))
	trimmed := strings.TrimSuffix(got, "...")
	for _, w := range strings.Fields(trimmed) {
		assert.Equal(t, "word", w)
	}
}

func TestAdaptContent_SingleOversizedWordHardCut(t *testing.T) {
	content := strings.Repeat("a", 300)
	got := usecase.AdaptContent(content, model.PlatformTwitter)

	assert.Equal(t, 280, len(got))
	assert.Equal(t, strings.Repeat("a", 277)+"...", got)
}

func TestAdaptContent_LinkedInLimit(t *testing.T) {
	content := strings.Repeat("linkedin post ", 250) // 3500 chars
	got := usecase.AdaptContent(content, model.PlatformLinkedIn)

	assert.LessOrEqual(t, len(got), 3000)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.False(t, strings.HasSuffix(strings.TrimSuffix(got, "..."), " "))
}

func TestAdaptContent_Idempotent(t *testing.T) {
	content := strings.Repeat("some words in a sentence ", 50)
	once := usecase.AdaptContent(content, model.PlatformTwitter)
	twice := usecase.AdaptContent(once, model.PlatformTwitter)
	assert.Equal(t, once, twice)
}

func TestAdaptContent_UnknownPlatformUsesMostRestrictiveLimit(t *testing.T) {
	content := strings.Repeat("x ", 300)
	got := usecase.AdaptContent(content, model.Platform("myspace"))
	assert.LessOrEqual(t, len(got), 280)
}
