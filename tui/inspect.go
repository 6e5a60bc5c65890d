package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bassamadnan/mailfilter/candidate"
	"github.com/bassamadnan/mailfilter/message"
)

// Inspection is everything the inspect command learned about one message.
type Inspection struct {
	Message     *message.Message
	Body        string
	Attachments []message.Attachment
	Record      candidate.Record
	Err         error
}

// RenderInspection lays out headers, body, attachments and the extracted record.
func RenderInspection(in Inspection, now time.Time) string {
	subject := in.Message.Subject
	if subject == "" {
		subject = "(No Subject)"
	}

	header := func(k, v string) string {
		return HeaderKeyStyle.Render(k+":") + " " + HeaderValStyle.Render(v)
	}

	var lines []string
	lines = append(lines,
		header("Subject", subject),
		header("From", senderName(in.Message.From)),
		header("Date", formatDate(in.Message.Date, now)),
	)

	if len(in.Attachments) == 0 {
		lines = append(lines, header("Attachments", "none"))
	}
	for _, att := range in.Attachments {
		lines = append(lines, header("Attachment", fmt.Sprintf("%s (part %s)", att.Filename, att.AttachmentID)))
	}

	body := strings.ReplaceAll(in.Body, "\r\n", "\n")
	out := ContentBoxStyle.Render(strings.Join(lines, "\n") + "\n" + BodyStyle.Render(strings.TrimRight(body, "\n")))

	var rec string
	if in.Err != nil {
		rec = StatusErrorStyle.Render(in.Err.Error())
	} else {
		rec = strings.Join([]string{
			header("Name", in.Record.Name),
			header("Phone", in.Record.Phone),
			header("Role", in.Record.Role),
		}, "\n")
	}
	return out + "\n" + rec + "\n"
}
