package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartEmail = "From: Ana <ana@example.com>\r\n" +
	"To: jobs@example.com\r\n" +
	"Subject: Candidatura - Dev\r\n" +
	"Date: Thu, 2 May 2024 10:31:07 -0300\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"outer\"\r\n" +
	"\r\n" +
	"--outer\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Nome: Ana Souza\r\n" +
	"Telefone: 11 99999-0000\r\n" +
	"Vaga: Dev\r\n" +
	"--outer\r\n" +
	"Content-Type: application/pdf; name=\"cv.pdf\"\r\n" +
	"Content-Disposition: attachment; filename=\"cv.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"JVBERi0xLjQ=\r\n" +
	"--outer--\r\n"

func TestParseMIME(t *testing.T) {
	msg, err := ParseMIME(strings.NewReader(multipartEmail))
	require.NoError(t, err)
	require.NotNil(t, msg.Payload)
	root := msg.Payload

	assert.Equal(t, "Candidatura - Dev", msg.Subject)
	assert.Equal(t, "Ana <ana@example.com>", msg.From)
	assert.Equal(t, 2024, msg.Date.Year())
	assert.Equal(t, KindMultipart, root.Kind())
	require.Len(t, root.Parts, 2)
	assert.Equal(t, "0", root.Parts[0].PartID)
	assert.Equal(t, "1", root.Parts[1].PartID)

	body := ExtractBody(root)
	assert.Contains(t, body, "Nome: Ana Souza")
	assert.Contains(t, body, "Vaga: Dev")

	atts := ExtractAttachments(root)
	require.Len(t, atts, 1)
	assert.Equal(t, "cv.pdf", atts[0].Filename)
	assert.Equal(t, "1", atts[0].AttachmentID)
}

func TestPartContent(t *testing.T) {
	content, err := PartContent(strings.NewReader(multipartEmail), "1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), content)

	_, err = PartContent(strings.NewReader(multipartEmail), "7.1")
	assert.Error(t, err)
}

func TestParseMIME_EncodedSubject(t *testing.T) {
	raw := "Subject: =?UTF-8?Q?Candidatura_Jo=C3=A3o?=\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Nome: Jo\xc3\xa3o\r\n"

	msg, err := ParseMIME(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Candidatura João", msg.Subject)
	assert.Equal(t, KindText, msg.Payload.Kind())
	assert.Contains(t, ExtractBody(msg.Payload), "Nome: João")
}
