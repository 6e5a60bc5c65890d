// Package imapmail reads application emails from an IMAP mailbox.
package imapmail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"github.com/bassamadnan/mailfilter/config"
	"github.com/bassamadnan/mailfilter/message"
)

const dialTimeout = 30 * time.Second

// session is one logged-in connection with the mailbox selected.
type session interface {
	SearchUnseen(subject string) ([]imap.UID, error)
	FetchRaw(uid imap.UID) ([]byte, error)
	MarkSeen(uid imap.UID) error
	Close() error
}

// Client implements the mailbox operations over IMAP. Every operation opens
// its own connection; runs are short and servers drop idle sessions.
type Client struct {
	cfg    config.IMAP
	open   func(ctx context.Context) (session, error)
	logger *zap.Logger
}

func New(cfg config.IMAP, password string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	c := &Client{cfg: cfg, logger: logger.Named("imap")}
	c.open = func(ctx context.Context) (session, error) {
		return dial(ctx, cfg, password)
	}
	return c
}

// Check logs in and selects the mailbox, then disconnects.
func (c *Client) Check(ctx context.Context) error {
	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	return s.Close()
}

// Search returns the UIDs of the newest unseen messages whose subject
// contains subject, newest first.
func (c *Client) Search(ctx context.Context, subject string, limit int64) ([]string, error) {
	s, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	uids, err := s.SearchUnseen(subject)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", c.cfg.Mailbox, err)
	}
	c.logger.Debug("search done", zap.String("subject", subject), zap.Int("matches", len(uids)))
	return newest(uids, limit), nil
}

func (c *Client) FetchMessage(ctx context.Context, id string) (*message.Message, error) {
	raw, err := c.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	msg, err := message.ParseMIME(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", id, err)
	}
	msg.ID = id
	return msg, nil
}

// FetchAttachment downloads the message again and returns the content of
// the part whose path is attachmentID.
func (c *Client) FetchAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	raw, err := c.fetch(ctx, messageID)
	if err != nil {
		return nil, err
	}
	data, err := message.PartContent(bytes.NewReader(raw), attachmentID)
	if err != nil {
		return nil, fmt.Errorf("attachment of %s: %w", messageID, err)
	}
	return data, nil
}

// MarkRead sets \Seen. Setting it twice is harmless.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	uid, err := parseUID(id)
	if err != nil {
		return err
	}
	s, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.MarkSeen(uid); err != nil {
		return fmt.Errorf("marking %s read: %w", id, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, id string) ([]byte, error) {
	uid, err := parseUID(id)
	if err != nil {
		return nil, err
	}
	s, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	raw, err := s.FetchRaw(uid)
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", id, err)
	}
	return raw, nil
}

// newest keeps the limit highest UIDs and orders them newest first.
func newest(uids []imap.UID, limit int64) []string {
	sorted := slices.Clone(uids)
	slices.Sort(sorted)
	slices.Reverse(sorted)
	if limit > 0 && int64(len(sorted)) > limit {
		sorted = sorted[:limit]
	}
	ids := make([]string, 0, len(sorted))
	for _, uid := range sorted {
		ids = append(ids, strconv.FormatUint(uint64(uid), 10))
	}
	return ids
}

func parseUID(id string) (imap.UID, error) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid message id %q", id)
	}
	return imap.UID(n), nil
}

// imapSession wraps a connected go-imap client.
type imapSession struct {
	client *imapclient.Client
}

func dial(ctx context.Context, cfg config.IMAP, password string) (session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{Timeout: dialTimeout}

	var client *imapclient.Client
	if cfg.TLS {
		conn, err := (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: cfg.Host}}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
		}
		client = imapclient.New(conn, nil)
	} else {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
		}
		client, err = imapclient.NewStartTLS(conn, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: cfg.Host},
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("starting TLS with %s: %w", addr, err)
		}
	}

	if err := client.Login(cfg.Username, password).Wait(); err != nil {
		_ = client.Close()
		return nil, &AuthError{Username: cfg.Username, Err: err}
	}
	if _, err := client.Select(cfg.Mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", cfg.Mailbox, err)
	}
	return &imapSession{client: client}, nil
}

func (s *imapSession) SearchUnseen(subject string) ([]imap.UID, error) {
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Header:  []imap.SearchCriteriaHeaderField{{Key: "Subject", Value: subject}},
	}
	data, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, err
	}
	return data.AllUIDs(), nil
}

func (s *imapSession) FetchRaw(uid imap.UID) ([]byte, error) {
	section := &imap.FetchItemBodySection{Peek: true}
	cmd := s.client.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	})
	defer cmd.Close()

	msg := cmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message UID %d not found", uid)
	}
	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message data: %w", err)
	}
	raw := buf.FindBodySection(section)
	if raw == nil {
		return nil, fmt.Errorf("message UID %d has no body", uid)
	}
	if err := cmd.Close(); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *imapSession) MarkSeen(uid imap.UID) error {
	return s.client.Store(imap.UIDSetNum(uid), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil).Close()
}

func (s *imapSession) Close() error {
	return s.client.Logout().Wait()
}

// AuthError reports a rejected LOGIN.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("imap login failed for %s: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }
