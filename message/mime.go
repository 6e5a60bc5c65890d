package message

import (
	"fmt"
	"io"
	"mime"
	"strconv"
	"strings"

	"github.com/jhillyerd/enmime"
)

// ParseMIME reads a raw RFC 822 message and converts its part tree into a
// payload tree shaped like the Gmail API one: text parts carry base64url
// data, parts with a filename carry an attachment id (their part path) and
// no inline data. The returned message has no ID; the caller assigns one.
func ParseMIME(r io.Reader) (*Message, error) {
	root, err := enmime.ReadParts(r)
	if err != nil {
		return nil, fmt.Errorf("parsing MIME message: %w", err)
	}
	msg := &Message{Payload: fromPart(root, "")}
	for _, name := range []string{"Subject", "From", "Date"} {
		if v := root.Header.Get(name); v != "" {
			msg.ApplyHeader(name, decodeHeader(v))
		}
	}
	return msg, nil
}

var wordDecoder = new(mime.WordDecoder)

// decodeHeader expands RFC 2047 encoded words; undecodable input is returned as is.
func decodeHeader(v string) string {
	if out, err := wordDecoder.DecodeHeader(v); err == nil {
		return out
	}
	return v
}

// PartContent reads a raw RFC 822 message and returns the decoded content of
// the part with the given path, as assigned by ParseMIME.
func PartContent(r io.Reader, partID string) ([]byte, error) {
	root, err := enmime.ReadParts(r)
	if err != nil {
		return nil, fmt.Errorf("parsing MIME message: %w", err)
	}
	part := findPart(root, "", partID)
	if part == nil {
		return nil, fmt.Errorf("part %q not found", partID)
	}
	return part.Content, nil
}

func fromPart(p *enmime.Part, id string) *Node {
	node := &Node{
		PartID:   id,
		MimeType: strings.ToLower(p.ContentType),
		Filename: p.FileName,
	}
	if node.Filename != "" {
		node.AttachmentID = id
	} else if len(p.Content) > 0 && p.FirstChild == nil {
		node.Data = EncodeData(p.Content)
	}

	i := 0
	for child := p.FirstChild; child != nil; child = child.NextSibling {
		node.Parts = append(node.Parts, fromPart(child, childID(id, i)))
		i++
	}
	return node
}

func findPart(p *enmime.Part, id, want string) *enmime.Part {
	if id == want {
		return p
	}
	i := 0
	for child := p.FirstChild; child != nil; child = child.NextSibling {
		if found := findPart(child, childID(id, i), want); found != nil {
			return found
		}
		i++
	}
	return nil
}

func childID(parent string, i int) string {
	if parent == "" {
		return strconv.Itoa(i)
	}
	return parent + "." + strconv.Itoa(i)
}
