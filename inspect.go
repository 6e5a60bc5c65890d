package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/mailfilter/candidate"
	"github.com/bassamadnan/mailfilter/config"
	"github.com/bassamadnan/mailfilter/message"
	"github.com/bassamadnan/mailfilter/tui"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.eml>",
	Short: "Show what would be extracted from a saved email",
	Long: "Parses a raw RFC 822 file the same way fetched emails are parsed and prints the body, " +
		"the attachments and the candidate record. Labels come from the configuration when one is found.",
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	msg, err := message.ParseMIME(f)
	if err != nil {
		return err
	}

	labels := candidate.DefaultLabels
	if cfg, err := config.Load(configDir, configName); err == nil {
		labels = candidate.Labels(cfg.Labels)
	}

	body := message.ExtractBody(msg.Payload)
	rec, extractErr := candidate.Extract(body, labels)

	fmt.Fprint(cmd.OutOrStdout(), tui.RenderInspection(tui.Inspection{
		Message:     msg,
		Body:        body,
		Attachments: message.ExtractAttachments(msg.Payload),
		Record:      rec,
		Err:         extractErr,
	}, time.Now()))
	return nil
}
