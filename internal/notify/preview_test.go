package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreviewShortBodyUnchanged(t *testing.T) {
	assert.Equal(t, "ありがとう！", Preview("ありがとう！"))
}

func TestPreviewTruncatesLongBody(t *testing.T) {
	body := strings.Repeat("あ", 60)
	got := Preview(body)
	assert.Equal(t, strings.Repeat("あ", 50)+"...", got)
}

func TestPreviewExactLimit(t *testing.T) {
	body := strings.Repeat("x", 50)
	assert.Equal(t, body, Preview(body))
}
