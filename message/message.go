package message

import (
	"strings"
	"time"
)

// EmptyBody is returned by ExtractBody when no text part exists anywhere in the payload.
const EmptyBody = "(empty)"

// Kind classifies a payload node.
type Kind int

const (
	KindOther Kind = iota
	KindText
	KindHTML
	KindMultipart
	KindAttachment
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindHTML:
		return "html"
	case KindMultipart:
		return "multipart"
	case KindAttachment:
		return "attachment"
	default:
		return "other"
	}
}

// Node is one part of a message payload tree.
type Node struct {
	PartID       string
	MimeType     string
	Filename     string
	Data         string // base64url body data, as transmitted by the provider
	AttachmentID string
	Parts        []*Node
}

// Kind reports what the node carries. Attachment wins over MIME type so a
// text/plain file named cv.txt is never mistaken for the message body.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindOther
	}
	if n.Filename != "" && n.AttachmentID != "" {
		return KindAttachment
	}
	mime := strings.ToLower(n.MimeType)
	switch {
	case mime == "text/plain":
		return KindText
	case mime == "text/html":
		return KindHTML
	case strings.HasPrefix(mime, "multipart/") || len(n.Parts) > 0:
		return KindMultipart
	}
	return KindOther
}

// Message is a fetched mail message. Date is zero when the header is
// missing or unparseable.
type Message struct {
	ID      string
	Subject string
	From    string
	Date    time.Time
	Payload *Node
}

// Attachment describes a file attached to a message. The content is fetched
// separately using AttachmentID.
type Attachment struct {
	Filename     string
	AttachmentID string
}
