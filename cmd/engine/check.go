package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Check the Telegram bot token and send a test message",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		tg, err := newTelegram(*cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		bot, err := tg.GetMe(ctx)
		if err != nil {
			return eris.Wrap(err, "telegram bot check failed")
		}
		fmt.Fprintf(out, "Bot connected: @%s (%s)\n", bot.Username, bot.FirstName)

		msg := "🧪 <b>Test Message</b>\n\nBark automation is connected and can send notifications."
		if err := tg.Notify(ctx, msg); err != nil {
			return eris.Wrap(err, "telegram test message failed")
		}
		fmt.Fprintln(out, "Test message sent.")
		return nil
	},
}

var (
	enrichName    string
	enrichAddress string
	enrichEmail   string
)

var enrichTestCmd = &cobra.Command{
	Use:   "enrich-test",
	Short: "Run one enrichment lookup for a masked email",
	Long: `Looks up every configured surname for the given first name and address and
prints the addresses that match the masked email.

Example:
  engine enrich-test --name Caryn --address "Baton Rouge, LA, 70817" --email "c*****r@b*******h.net"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !strings.Contains(enrichEmail, "*") {
			return eris.New("--email must be a masked address containing '*'")
		}
		if cfg.Enrichment.APName == "" {
			return eris.New("enrichment.ap_name is not configured")
		}

		e := newEnricher(*cfg)
		found := e.Enrich(cmd.Context(), enrichName, enrichAddress, enrichEmail)

		out := cmd.OutOrStdout()
		if len(found) == 0 {
			fmt.Fprintln(out, "No matching emails found.")
			return nil
		}
		for _, email := range found {
			fmt.Fprintln(out, email)
		}
		return nil
	},
}

func init() {
	f := enrichTestCmd.Flags()
	f.StringVar(&enrichName, "name", "", "customer first name")
	f.StringVar(&enrichAddress, "address", "", "customer address line")
	f.StringVar(&enrichEmail, "email", "", "masked email, e.g. c*****r@b*******h.net")
	_ = enrichTestCmd.MarkFlagRequired("name")
	_ = enrichTestCmd.MarkFlagRequired("address")
	_ = enrichTestCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(notifyTestCmd, enrichTestCmd)
}
