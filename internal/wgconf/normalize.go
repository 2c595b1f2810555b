package wgconf

import "strings"

// Normalize puts config text into the canonical form the tunnel engine's
// strict loader accepts: UTF-8 BOM stripped, CRLF and bare CR line endings
// folded to LF, trailing whitespace removed, exactly one trailing newline.
// Divergent line endings and marker bytes have caused silent parse failures
// downstream, so every write and every read-before-use goes through here.
func Normalize(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")

	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}
	return text + "\n"
}
