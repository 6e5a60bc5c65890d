package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/mailfilter/config"
	"github.com/bassamadnan/mailfilter/credential"
	"github.com/bassamadnan/mailfilter/gmail"
	"github.com/bassamadnan/mailfilter/imapmail"
	"github.com/bassamadnan/mailfilter/runlog"
	"github.com/bassamadnan/mailfilter/tui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize mailbox access and exit",
	Long: "For Gmail, runs the OAuth consent flow and caches the token file. " +
		"For IMAP, asks for the account password, stores it in the system keyring and checks the login.",
	Args: cobra.NoArgs,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	console, err := runlog.NewConsole(verbose)
	if err != nil {
		return err
	}
	defer func() { _ = console.Sync() }()

	cfg, err := config.Load(configDir, configName)
	if err != nil {
		return err
	}

	switch cfg.API.Provider {
	case config.ProviderIMAP:
		password := cfg.API.IMAP.Password
		if password == "" {
			password, err = tui.ReadPassword(cfg.API.IMAP.Username)
			if err != nil {
				return err
			}
		}
		if err := imapmail.New(cfg.API.IMAP, password, console).Check(ctx); err != nil {
			return err
		}
		if cfg.API.IMAP.Password == "" {
			store, err := credential.Open()
			if err != nil {
				return err
			}
			if err := store.Set(credential.IMAPKey(cfg.API.IMAP.Username), password); err != nil {
				return err
			}
		}
	default:
		if _, err := gmail.Authenticate(ctx, cfg.API.Google, tui.ReadAuthCode, console); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), tui.StatusSuccessStyle.Render(cfg.API.Provider+" access authorized"))
	return nil
}
