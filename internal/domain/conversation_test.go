package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncatePreview_ShortTextUntouched(t *testing.T) {
	text := strings.Repeat("a", 30)

	assert.Equal(t, text, TruncatePreview(text))
}

func TestTruncatePreview_ExactLimitUntouched(t *testing.T) {
	text := strings.Repeat("a", PreviewMaxLen)

	assert.Equal(t, text, TruncatePreview(text))
}

func TestTruncatePreview_LongTextTruncatedWithEllipsis(t *testing.T) {
	text := strings.Repeat("a", 80)

	got := TruncatePreview(text)

	assert.Equal(t, strings.Repeat("a", PreviewMaxLen)+"...", got)
	assert.Len(t, got, PreviewMaxLen+3)
}

func TestTruncatePreview_CountsRunesNotBytes(t *testing.T) {
	// 60 Kannada characters, each multi-byte
	text := strings.Repeat("ಕ", 60)

	got := TruncatePreview(text)

	assert.Equal(t, strings.Repeat("ಕ", PreviewMaxLen)+"...", got)
}

func TestTruncatePreview_Empty(t *testing.T) {
	assert.Equal(t, "", TruncatePreview(""))
}
