package fsutil

import "strings"

const maxNameLen = 128

// SanitizeName makes s safe to embed in a file name. Characters other than
// ASCII letters, digits, '.', '_' and '-' become '_', runs of replaced
// characters collapse to one, and the result is capped at 128 bytes. Path
// separators never survive, so the name cannot leave its directory.
func SanitizeName(s string) string {
	var b strings.Builder
	replaced := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			replaced = false
		default:
			if !replaced {
				b.WriteRune('_')
				replaced = true
			}
		}
	}
	return b.String()
}
