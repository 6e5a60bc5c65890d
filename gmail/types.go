package gmail

import (
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/bassamadnan/mailfilter/message"
)

// toMessage converts an API message fetched with format=full.
func toMessage(m *gmailapi.Message) *message.Message {
	msg := &message.Message{ID: m.Id}
	if m.Payload == nil {
		return msg
	}
	for _, h := range m.Payload.Headers {
		msg.ApplyHeader(h.Name, h.Value)
	}
	msg.Payload = toNode(m.Payload)
	return msg
}

func toNode(p *gmailapi.MessagePart) *message.Node {
	n := &message.Node{
		PartID:   p.PartId,
		MimeType: p.MimeType,
		Filename: p.Filename,
	}
	if p.Body != nil {
		n.Data = p.Body.Data
		n.AttachmentID = p.Body.AttachmentId
	}
	for _, child := range p.Parts {
		if child == nil {
			continue
		}
		n.Parts = append(n.Parts, toNode(child))
	}
	return n
}
