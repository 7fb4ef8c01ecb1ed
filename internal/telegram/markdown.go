package telegram

import "strings"

const codeFence = "```"

// FixMarkdown closes unbalanced code fences and inline code spans so that
// Telegram's legacy Markdown parser accepts the text.
func FixMarkdown(text string) string {
	if strings.Count(text, codeFence)%2 != 0 {
		text += "\n" + codeFence
	}
	return closeInlineCode(text)
}

func closeInlineCode(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 1)

	inFence, inInline := false, false
	for i := 0; i < len(text); i++ {
		if strings.HasPrefix(text[i:], codeFence) {
			if inInline {
				b.WriteByte('`')
				inInline = false
			}
			inFence = !inFence
			b.WriteString(codeFence)
			i += len(codeFence) - 1
			continue
		}
		if !inFence && text[i] == '`' {
			inInline = !inInline
		}
		b.WriteByte(text[i])
	}
	if inInline {
		b.WriteByte('`')
	}
	return b.String()
}
