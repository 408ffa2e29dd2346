package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Pharaon3/bark-automation/internal/config"
	"github.com/Pharaon3/bark-automation/internal/secrets"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively write config.yaml",
	Long: `Asks for the mailbox, ledger and Telegram settings and writes config.yaml.
Passwords and tokens are stored in the OS keychain, never in the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := userConfigPath()
		next, secretsToStore := promptConfig(*cfg, cmd.InOrStdin(), cmd.OutOrStdout())

		if err := config.SaveAtomic(path, next); err != nil {
			return err
		}
		for account, secret := range secretsToStore {
			if err := secrets.Set(account, secret); err != nil {
				zap.L().Warn("could not store secret in keychain", zap.String("account", account), zap.Error(err))
				fmt.Fprintf(cmd.OutOrStdout(), "warning: keychain unavailable; set it via the environment instead (%v)\n", err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// promptConfig walks the user through the settings. Empty answers keep the
// current value. The returned map holds keychain account → secret.
func promptConfig(cur config.Config, in io.Reader, out io.Writer) (config.Config, map[string]string) {
	r := bufio.NewReader(in)
	ask := func(label, def string) string {
		if def != "" {
			fmt.Fprintf(out, "%s [%s]: ", label, def)
		} else {
			fmt.Fprintf(out, "%s: ", label)
		}
		line, _ := r.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			return def
		}
		return line
	}
	yes := func(label string, def bool) bool {
		d := "n"
		if def {
			d = "y"
		}
		a := strings.ToLower(ask(label+" (y/n)", d))
		return a == "y" || a == "yes"
	}

	next := cur
	found := map[string]string{}
	// secrets never go to the file
	next.Mail.Password = ""
	next.Telegram.BotToken = ""
	next.Enrichment.APPassword = ""
	next.SMTP.Password = ""

	fmt.Fprintln(out, "Mailbox")
	next.Mail.IMAPHost = ask("  IMAP host", cur.Mail.IMAPHost)
	next.Mail.Username = ask("  IMAP username", cur.Mail.Username)
	if pw := ask("  IMAP app password (stored in keychain, empty to skip)", ""); pw != "" {
		found[secrets.Account(next, secrets.IMAP)] = pw
	}
	next.Mail.Query = ask("  Search query", cur.Mail.Query)

	fmt.Fprintln(out, "Ledger")
	next.Ledger.Driver = ask("  Driver (xlsx, sqlite, none)", cur.Ledger.Driver)
	if d := strings.ToLower(next.Ledger.Driver); d != "none" && d != "" {
		next.Ledger.Path = ask("  Ledger file", cur.Ledger.Path)
		next.Ledger.Sheet = ask("  Sheet name", cur.Ledger.Sheet)
	}

	fmt.Fprintln(out, "Telegram")
	next.Telegram.Enabled = yes("  Send Telegram notifications?", cur.Telegram.Enabled)
	if next.Telegram.Enabled {
		next.Telegram.ChatID = ask("  Chat ID", cur.Telegram.ChatID)
		if tok := ask("  Bot token (stored in keychain, empty to skip)", ""); tok != "" {
			found[secrets.Account(next, secrets.Telegram)] = tok
		}
	}

	fmt.Fprintln(out, "Enrichment")
	next.Enrichment.Enabled = yes("  Look up full email addresses?", cur.Enrichment.Enabled)
	if next.Enrichment.Enabled {
		next.Enrichment.APName = ask("  API profile name", cur.Enrichment.APName)
		if pw := ask("  API profile password (stored in keychain, empty to skip)", ""); pw != "" {
			found[secrets.Account(next, secrets.Enrichment)] = pw
		}
		next.Enrichment.SurnamesFile = ask("  Surnames file", cur.Enrichment.SurnamesFile)
	}

	return next, found
}
