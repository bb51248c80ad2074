package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/config"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/mailer"
)

var (
	sendTo      string
	sendHost    string
	sendPort    int
	sendFrom    string
	sendForReal bool
)

func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Push one test email through the sender",
		Long: `Push a test email through the same sender the emailer uses.

Without --for-real the sender runs in simulate mode: it logs what it
would deliver and never talks to the relay.

Examples:
  # Dry run against the default relay settings
  emailerctl send --to someone@example.org

  # Actually deliver through a specific relay
  emailerctl send --to someone@example.org --smtp-host mail.example.org --for-real`,
		RunE: runSend,
	}

	cmd.Flags().StringVar(&sendTo, "to", "", "Destination address (required)")
	cmd.MarkFlagRequired("to")
	cmd.Flags().StringVar(&sendHost, "smtp-host", config.Defaults().SMTPHost, "SMTP relay host")
	cmd.Flags().IntVar(&sendPort, "smtp-port", config.Defaults().SMTPPort, "SMTP relay port")
	cmd.Flags().StringVar(&sendFrom, "from", config.Defaults().FromAddr, "From address")
	cmd.Flags().BoolVar(&sendForReal, "for-real", false, "Deliver instead of simulating")

	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	level := zap.NewAtomicLevel()
	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = level
	logger, err := logConfig.Build()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	store := config.NewStore(logger, level)
	store.Apply(map[string]string{
		"smtp_server_fqdn":     sendHost,
		"smtp_server_port":     strconv.Itoa(sendPort),
		"email_from_addr":      sendFrom,
		"send_emails_for_real": yesNo(sendForReal),
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sender := mailer.NewSMTPSender(logger, store)
	sender.Start(ctx)

	email := mailer.Email{
		ID:      uuid.NewString(),
		To:      sendTo,
		From:    sendFrom,
		Subject: "[Toolforge] jobs emailer test notification",
		Body:    "This is a test notification from emailerctl.\n",
	}
	sendErr := sender.Send(ctx, email)

	cancel()
	sender.Close()

	if sendErr != nil {
		return fmt.Errorf("sending test email: %w", sendErr)
	}

	mode := "simulated"
	if sendForReal {
		mode = "delivered"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s test email %s to %s via %s:%d\n",
		mode, email.ID, email.To, sendHost, sendPort)
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
