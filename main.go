package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bassamadnan/mailfilter/config"
)

var rootCmd = &cobra.Command{
	Use:   "mailfilter",
	Short: "File job-application emails into a spreadsheet and candidate folders",
	Long: "mailfilter scans a mailbox for unread application emails, records the candidate's " +
		"name, phone and role in a spreadsheet, saves the attachments under a folder per " +
		"candidate and marks each handled email as read.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBatch,
}

var (
	configDir  string
	configName string
	logDir     string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding the configuration file")
	rootCmd.PersistentFlags().StringVar(&configName, "config", config.DefaultName, "Configuration file base name (without .json)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", ".", "Directory for the run log file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug output on stderr")
	addRunFlags(rootCmd)
}

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
