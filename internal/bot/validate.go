package bot

import "strings"

// linkPrefix is the only accepted scheme+host for channel/group links.
const linkPrefix = "https://t.me/"

// keepCurrent is the sentinel users send to keep an edited field unchanged
// (create flows treat it as "use default / apply to all" for free-form fields).
const keepCurrent = "-"

// sanitizeName strips every rune outside the allow-list: ASCII letters,
// digits, underscore and Ukrainian letters.
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'а' && r <= 'я', r >= 'А' && r <= 'Я':
			return r
		case r == 'і', r == 'І', r == 'ї', r == 'Ї', r == 'є', r == 'Є':
			return r
		}
		return -1
	}, s)
}

// validLink reports whether s is an acceptable t.me link.
func validLink(s string) bool {
	return strings.HasPrefix(s, linkPrefix) && len(s) > len(linkPrefix)
}
