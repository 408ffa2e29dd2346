package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.App.DataDir)
	assert.Equal(t, "imap.gmail.com", cfg.Mail.IMAPHost)
	assert.Equal(t, 993, cfg.Mail.IMAPPort)
	assert.Equal(t, "from:team@bark.com", cfg.Mail.Query)
	assert.Equal(t, 20, cfg.Mail.MaxResults)
	assert.Equal(t, "xlsx", cfg.Ledger.Driver)
	assert.Equal(t, "Contacts", cfg.Ledger.Sheet)
	assert.Equal(t, 180, cfg.Schedule.IntervalSecs)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Telegram.Enabled)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := chdirTemp(t)

	yml := `
mail:
  username: leads@example.com
  max_results: 5
ledger:
  driver: sqlite
  path: leads.db
telegram:
  enabled: true
  chat_id: "-100123"
schedule:
  interval_secs: 60
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "leads@example.com", cfg.Mail.Username)
	assert.Equal(t, 5, cfg.Mail.MaxResults)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
	assert.Equal(t, "leads.db", cfg.Ledger.Path)
	assert.True(t, cfg.Telegram.Enabled)
	assert.Equal(t, "-100123", cfg.Telegram.ChatID)
	assert.Equal(t, 60, cfg.Schedule.IntervalSecs)
	// untouched keys keep their defaults
	assert.Equal(t, "imap.gmail.com", cfg.Mail.IMAPHost)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BARK_MAIL_USERNAME", "env@example.com")
	t.Setenv("BARK_MAIL_MAX_RESULTS", "7")
	t.Setenv("BARK_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env@example.com", cfg.Mail.Username)
	assert.Equal(t, 7, cfg.Mail.MaxResults)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	dir := chdirTemp(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestPath(t *testing.T) {
	cfg := Default()
	cfg.App.DataDir = "/var/bark"

	assert.Equal(t, filepath.Join("/var/bark", "leads.xlsx"), cfg.Path("leads.xlsx"))
	assert.Equal(t, "/tmp/x.db", cfg.Path("/tmp/x.db"))
	assert.Equal(t, "", cfg.Path(""))
	assert.Equal(t, filepath.Join("/var/bark", ProcessedFile), cfg.ProcessedPath())
	assert.Equal(t, filepath.Join("/var/bark", LockFile), cfg.LockPath())
}

func TestNormalizeAndValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		_, res := NormalizeAndValidate(Default())
		assert.True(t, res.OK(), res.Errors)
	})

	t.Run("normalizes", func(t *testing.T) {
		cfg := Default()
		cfg.Ledger.Driver = " SQLite "
		cfg.Mail.Username = "  me@example.com "
		cfg.SMTP.To = []string{" a@x.com", "A@x.com", "", "b@x.com"}
		out, _ := NormalizeAndValidate(cfg)
		assert.Equal(t, "sqlite", out.Ledger.Driver)
		assert.Equal(t, "me@example.com", out.Mail.Username)
		assert.Equal(t, []string{"a@x.com", "b@x.com"}, out.SMTP.To)
	})

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad driver", func(c *Config) { c.Ledger.Driver = "postgres" }},
		{"missing ledger path", func(c *Config) { c.Ledger.Path = "" }},
		{"zero max results", func(c *Config) { c.Mail.MaxResults = 0 }},
		{"bad port", func(c *Config) { c.Mail.IMAPPort = 70000 }},
		{"telegram without chat", func(c *Config) { c.Telegram.Enabled = true }},
		{"enrichment without ap name", func(c *Config) { c.Enrichment.Enabled = true }},
		{"smtp without recipients", func(c *Config) { c.SMTP.Enabled = true; c.SMTP.Host = "smtp.example.com" }},
		{"zero interval", func(c *Config) { c.Schedule.IntervalSecs = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			_, res := NormalizeAndValidate(cfg)
			assert.False(t, res.OK())
			assert.Error(t, Validate(cfg))
		})
	}

	t.Run("no ledger warns", func(t *testing.T) {
		cfg := Default()
		cfg.Ledger.Driver = "none"
		_, res := NormalizeAndValidate(cfg)
		assert.True(t, res.OK())
		assert.NotEmpty(t, res.Warnings)
	})
}

func TestSaveAtomicAndEnsureUserConfig(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)
	assert.FileExists(t, path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.App.DataDir)

	cfg.Mail.Username = "saved@example.com"
	require.NoError(t, SaveAtomic(path, *cfg))
	assert.FileExists(t, path+".bak")

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved@example.com", again.Mail.Username)

	// existing file is left alone
	_, err = EnsureUserConfig(dir)
	require.NoError(t, err)
	again, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved@example.com", again.Mail.Username)
}

func TestSaveAtomic_RejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.Ledger.Driver = "bogus"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.Error(t, SaveAtomic(path, cfg))
	assert.NoFileExists(t, path)
}

func TestInitLogger(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "email_processor.log")
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json", File: file}))
	assert.DirExists(t, filepath.Dir(file))
	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
