package pathing

import "strings"

// SanitizeForPath normalizes a free-form name into a storage-safe token:
// trimmed, lowercased, whitespace collapsed to underscores, and anything
// outside [a-z0-9_.-] dropped. It is idempotent.
func SanitizeForPath(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' || r == '-':
			b.WriteRune(r)
			inSpace = false
		default:
			inSpace = false
		}
	}
	return b.String()
}

// GenerateShortID strips hyphens from an identifier and truncates it to
// length runes. Used to keep session directories short but recognizable.
func GenerateShortID(id string, length int) string {
	if length <= 0 {
		length = 8
	}
	stripped := strings.ReplaceAll(id, "-", "")
	if len(stripped) > length {
		return stripped[:length]
	}
	return stripped
}

// ExtractSourceGroupFragment normalizes a lineage-group fragment: hyphens
// removed, truncated to 8, lowercased. Empty in, empty out.
func ExtractSourceGroupFragment(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return strings.ToLower(GenerateShortID(raw, 8))
}
