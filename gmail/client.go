package gmail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/bassamadnan/mailfilter/message"
)

const (
	user        = "me"
	unreadLabel = "UNREAD"
)

// Client reads and marks application emails through the Gmail API.
type Client struct {
	srv    *gmailapi.Service
	logger *zap.Logger
}

func NewClient(srv *gmailapi.Service, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{srv: srv, logger: logger.Named("gmail")}
}

// Query returns the search expression for unread messages whose subject contains token.
func Query(subject string) string {
	return fmt.Sprintf("subject:%s is:unread", subject)
}

// Search lists up to limit unread messages matching subject, newest first.
func (c *Client) Search(ctx context.Context, subject string, limit int64) ([]string, error) {
	q := Query(subject)
	c.logger.Debug("listing messages", zap.String("query", q), zap.Int64("limit", limit))

	resp, err := c.srv.Users.Messages.List(user).Q(q).MaxResults(limit).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func (c *Client) FetchMessage(ctx context.Context, id string) (*message.Message, error) {
	m, err := c.srv.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", id, err)
	}
	return toMessage(m), nil
}

// FetchAttachment returns the decoded attachment content.
func (c *Client) FetchAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	body, err := c.srv.Users.Messages.Attachments.Get(user, messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching attachment of %s: %w", messageID, err)
	}
	data, err := message.DecodeData(body.Data)
	if err != nil {
		return nil, fmt.Errorf("attachment of %s: %w", messageID, err)
	}
	return data, nil
}

// MarkRead removes the UNREAD label. Marking a read message again is a no-op.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	req := &gmailapi.ModifyMessageRequest{RemoveLabelIds: []string{unreadLabel}}
	if _, err := c.srv.Users.Messages.Modify(user, id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("marking %s read: %w", id, err)
	}
	return nil
}
