package notify

const previewRunes = 50

// Preview shortens a message body for the notification banner. The cut is
// rune-based so multi-byte Japanese text is never split mid-character.
func Preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewRunes {
		return body
	}
	return string(runes[:previewRunes]) + "..."
}
