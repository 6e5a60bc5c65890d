package message

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// tagOpen removes "<" plus the single character after it. It does not strip
// whole tags: "<p>Nome: Ana</p>" becomes ">Nome: Anap>". Label lookup only
// needs the label text to survive, so the pattern is kept as is.
var tagOpen = regexp.MustCompile(`<[^<]+?`)

// ExtractBody returns the first text body found in a depth-first walk of the
// payload. A node's own data is considered before its children; children are
// visited in order and only text/plain or text/html children are taken
// directly, other children are searched only if they have parts of their own.
// HTML bodies go through StripTags. EmptyBody is returned when nothing matches.
func ExtractBody(root *Node) string {
	if body, ok := findBody(root); ok {
		return body
	}
	return EmptyBody
}

func findBody(n *Node) (string, bool) {
	if n == nil {
		return "", false
	}
	if n.Data != "" && n.Kind() != KindAttachment {
		if body, err := decodeText(n); err == nil {
			return body, true
		}
	}
	for _, part := range n.Parts {
		switch part.Kind() {
		case KindText, KindHTML:
			if part.Data != "" {
				if body, err := decodeText(part); err == nil {
					return body, true
				}
			}
		}
		if len(part.Parts) > 0 {
			if body, ok := findBody(part); ok {
				return body, true
			}
		}
	}
	return "", false
}

func decodeText(n *Node) (string, error) {
	text, err := DecodeText(n.Data)
	if err != nil {
		return "", err
	}
	if n.Kind() == KindHTML {
		return StripTags(text), nil
	}
	return text, nil
}

// ExtractAttachments collects every descendant carrying both a filename and an
// attachment id, in depth-first order. The root itself is never an attachment.
func ExtractAttachments(root *Node) []Attachment {
	if root == nil || len(root.Parts) == 0 {
		return []Attachment{}
	}
	return collectAttachments(root.Parts, []Attachment{})
}

func collectAttachments(parts []*Node, found []Attachment) []Attachment {
	for _, part := range parts {
		if part == nil {
			continue
		}
		if part.Filename != "" && part.AttachmentID != "" {
			found = append(found, Attachment{
				Filename:     part.Filename,
				AttachmentID: part.AttachmentID,
			})
		}
		if len(part.Parts) > 0 {
			found = collectAttachments(part.Parts, found)
		}
	}
	return found
}

// StripTags applies the naive tag-opening pattern to HTML text.
func StripTags(html string) string {
	return tagOpen.ReplaceAllString(html, "")
}

// DecodeData decodes base64url data, with or without padding.
func DecodeData(data string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return nil, fmt.Errorf("decoding base64url data: %w", err)
	}
	return raw, nil
}

// DecodeText decodes base64url data as UTF-8, dropping invalid byte sequences.
func DecodeText(data string) (string, error) {
	raw, err := DecodeData(data)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(raw), ""), nil
}

// EncodeData is the inverse of DecodeData. Providers that hand over decoded
// content use it to build payload nodes.
func EncodeData(raw []byte) string {
	return base64.URLEncoding.EncodeToString(raw)
}
