package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/mailfilter/attachments"
	"github.com/bassamadnan/mailfilter/candidate"
	"github.com/bassamadnan/mailfilter/config"
	"github.com/bassamadnan/mailfilter/processor"
	"github.com/bassamadnan/mailfilter/runlog"
	"github.com/bassamadnan/mailfilter/sheet"
	"github.com/bassamadnan/mailfilter/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process unread application emails once (default command)",
	RunE:  runBatch,
}

var dryRun bool

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Extract and print records without writing files or marking emails read")
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	console, err := runlog.NewConsole(verbose)
	if err != nil {
		return err
	}
	defer func() { _ = console.Sync() }()

	cfg, err := config.Load(configDir, configName)
	if err != nil {
		journal := runlog.New(logDir, config.DefaultRunName, console)
		journal.Start()
		journal.Error(fmt.Sprintf("error loading configuration: %v", err))
		journal.End()
		return err
	}

	journal := runlog.New(logDir, cfg.RunName, console)
	journal.Start()
	defer journal.End()
	journal.Success("configuration loaded from " + config.Path(configDir, configName))

	mailbox, err := openMailbox(ctx, cfg, console)
	if err != nil {
		journal.Error(fmt.Sprintf("error authenticating with %s: %v", cfg.API.Provider, err))
		return err
	}
	journal.Success("authenticated with " + cfg.API.Provider)

	p := processor.New(processor.Deps{
		Mailbox: mailbox,
		Records: sheet.NewWriter(cfg.Spreadsheet.Path, cfg.Spreadsheet.Sheet),
		Files:   attachments.NewSaver(cfg.CandidateFolders.Path),
		Journal: journal,
		Logger:  console,
	}, processor.Options{
		Subject:   cfg.Search.Subject,
		BatchSize: cfg.Search.BatchSize,
		Labels:    candidate.Labels(cfg.Labels),
		DryRun:    dryRun,
	})

	sum, err := p.Run(ctx)
	if sum.Found > 0 {
		fmt.Fprint(cmd.OutOrStdout(), tui.RenderSummary(sum, dryRun))
	}
	return err
}
