package tui

import (
	"strings"
	"time"
)

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// formatDate shows the time only for today's messages.
func formatDate(t, now time.Time) string {
	if t.IsZero() {
		return "???"
	}
	t = t.In(now.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("Jan 02 2006 15:04")
}

// senderName drops the address part of a From header when a display name is present.
func senderName(from string) string {
	if idx := strings.Index(from, "<"); idx > 0 {
		from = strings.TrimSpace(from[:idx])
	}
	from = strings.Trim(from, `"`)
	if from == "" {
		return "(Unknown Sender)"
	}
	return from
}
