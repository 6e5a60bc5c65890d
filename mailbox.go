package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bassamadnan/mailfilter/config"
	"github.com/bassamadnan/mailfilter/credential"
	"github.com/bassamadnan/mailfilter/gmail"
	"github.com/bassamadnan/mailfilter/imapmail"
	"github.com/bassamadnan/mailfilter/processor"
	"github.com/bassamadnan/mailfilter/tui"
)

// openMailbox returns the configured provider, authenticated and ready.
func openMailbox(ctx context.Context, cfg *config.Config, logger *zap.Logger) (processor.Mailbox, error) {
	switch cfg.API.Provider {
	case config.ProviderIMAP:
		password, err := imapPassword(cfg.API.IMAP)
		if err != nil {
			return nil, err
		}
		client := imapmail.New(cfg.API.IMAP, password, logger)
		if err := client.Check(ctx); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return gmail.Authenticate(ctx, cfg.API.Google, tui.ReadAuthCode, logger)
	}
}

func imapPassword(cfg config.IMAP) (string, error) {
	if cfg.Password != "" {
		return cfg.Password, nil
	}
	store, err := credential.Open()
	if err != nil {
		return "", err
	}
	password, err := store.Get(credential.IMAPKey(cfg.Username))
	if errors.Is(err, credential.ErrNotFound) {
		return "", fmt.Errorf("no password stored for %s, run \"mailfilter auth\" first: %w", cfg.Username, err)
	}
	return password, err
}
