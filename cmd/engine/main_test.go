package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharaon3/bark-automation/internal/config"
	"github.com/Pharaon3/bark-automation/internal/secrets"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"run", "once", "init", "notify-test", "enrich-test"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "engine", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestRunCommand_Flags(t *testing.T) {
	f := runCmd.Flags().Lookup("interval")
	require.NotNil(t, f)
	assert.Equal(t, "0s", f.DefValue)
	require.NotNil(t, runCmd.Flags().Lookup("serve"))
}

func TestEnrichTestCommand_Flags(t *testing.T) {
	for _, name := range []string{"name", "address", "email"} {
		require.NotNil(t, enrichTestCmd.Flags().Lookup(name), name)
	}
}

func TestPromptConfig(t *testing.T) {
	cur := config.Default()
	cur.Mail.Password = "old"

	input := strings.Join([]string{
		"",                  // imap host: keep
		"leads@example.com", // username
		"app-pw",            // imap password
		"",                  // query: keep
		"sqlite",            // driver
		"leads.db",          // path
		"",                  // sheet: keep
		"y",                 // telegram
		"-100123",           // chat id
		"bot-token",         // token
		"n",                 // enrichment
	}, "\n") + "\n"

	var out strings.Builder
	next, found := promptConfig(cur, strings.NewReader(input), &out)

	assert.Equal(t, "imap.gmail.com", next.Mail.IMAPHost)
	assert.Equal(t, "leads@example.com", next.Mail.Username)
	assert.Equal(t, "", next.Mail.Password)
	assert.Equal(t, "from:team@bark.com", next.Mail.Query)
	assert.Equal(t, "sqlite", next.Ledger.Driver)
	assert.Equal(t, "leads.db", next.Ledger.Path)
	assert.Equal(t, "Contacts", next.Ledger.Sheet)
	assert.True(t, next.Telegram.Enabled)
	assert.Equal(t, "-100123", next.Telegram.ChatID)
	assert.False(t, next.Enrichment.Enabled)

	assert.Equal(t, map[string]string{
		secrets.Account(next, secrets.IMAP):     "app-pw",
		secrets.Account(next, secrets.Telegram): "bot-token",
	}, found)
	assert.Contains(t, out.String(), "IMAP username")

	_, res := config.NormalizeAndValidate(next)
	assert.True(t, res.OK(), res.Errors)
}
