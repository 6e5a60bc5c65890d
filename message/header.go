package message

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
}

var fallbackLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	time.RFC822,
}

// ParseDate parses a Date header in the forms mail servers actually send.
// A trailing "(UTC)" style comment is tolerated.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	noComment := value
	if open := strings.LastIndex(noComment, " ("); open != -1 {
		if end := strings.LastIndex(noComment, ")"); end > open {
			noComment = noComment[:open] + noComment[end+1:]
		}
	}
	noComment = strings.TrimSpace(noComment)
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, noComment); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ApplyHeader copies a known header into m. Unknown names are ignored.
func (m *Message) ApplyHeader(name, value string) {
	switch {
	case strings.EqualFold(name, "Subject"):
		m.Subject = value
	case strings.EqualFold(name, "From"):
		m.From = value
	case strings.EqualFold(name, "Date"):
		if t, ok := ParseDate(value); ok {
			m.Date = t
		}
	}
}
