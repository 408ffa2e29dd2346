package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg and the problems
// found in it. Secrets are not required here; they may live in the keychain.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trim := func(s *string) { *s = strings.TrimSpace(*s) }
	trim(&out.Mail.IMAPHost)
	trim(&out.Mail.Username)
	trim(&out.Mail.Query)
	trim(&out.Ledger.Path)
	trim(&out.Ledger.Sheet)
	trim(&out.Enrichment.APName)
	trim(&out.Telegram.ChatID)
	out.Ledger.Driver = strings.ToLower(strings.TrimSpace(out.Ledger.Driver))

	var to []string
	seen := map[string]bool{}
	for _, x := range out.SMTP.To {
		x = strings.TrimSpace(x)
		if x == "" || seen[strings.ToLower(x)] {
			continue
		}
		seen[strings.ToLower(x)] = true
		to = append(to, x)
	}
	out.SMTP.To = to

	// ---- Validation rules ----

	if out.App.DataDir == "" {
		res.addErr("app.data_dir is required")
	}

	// mailbox
	if out.Mail.IMAPHost == "" {
		res.addErr("mail.imap_host is required")
	}
	if out.Mail.IMAPPort <= 0 || out.Mail.IMAPPort > 65535 {
		res.addErr("mail.imap_port must be 1..65535")
	}
	if out.Mail.Username == "" {
		res.addWarn("mail.username is empty; runs will fail until it is set")
	}
	if out.Mail.Query == "" {
		res.addWarn("mail.query is empty; every message in %s will be scanned", out.Mail.Mailbox)
	}
	if out.Mail.MaxResults <= 0 {
		res.addErr("mail.max_results must be > 0")
	} else if out.Mail.MaxResults > 500 {
		res.addWarn("mail.max_results is very high (%d)", out.Mail.MaxResults)
	}

	// ledger
	switch out.Ledger.Driver {
	case "xlsx", "sqlite":
		if out.Ledger.Path == "" {
			res.addErr("ledger.path is required for driver %q", out.Ledger.Driver)
		}
		if out.Ledger.Sheet == "" {
			res.addErr("ledger.sheet is required for driver %q", out.Ledger.Driver)
		}
	case "", "none":
		res.addWarn("no ledger configured; leads will be extracted but not recorded")
	default:
		res.addErr("ledger.driver must be xlsx, sqlite or none (got %q)", out.Ledger.Driver)
	}

	// enrichment
	if out.Enrichment.Enabled {
		if out.Enrichment.APName == "" {
			res.addErr("enrichment.ap_name is required when enrichment.enabled=true")
		}
		if out.Enrichment.SurnamesFile == "" {
			res.addErr("enrichment.surnames_file is required when enrichment.enabled=true")
		}
		if out.Enrichment.MaxSurnames <= 0 {
			res.addWarn("enrichment.max_surnames is unbounded; every surname costs one request per lead")
		} else if out.Enrichment.MaxSurnames > 200 {
			res.addWarn("enrichment.max_surnames is %d; each eligible lead will issue that many requests", out.Enrichment.MaxSurnames)
		}
		if out.Enrichment.TimeoutSecs <= 0 {
			res.addErr("enrichment.timeout_secs must be > 0")
		}
	}

	// notifiers
	if out.Telegram.Enabled && out.Telegram.ChatID == "" {
		res.addErr("telegram.chat_id is required when telegram.enabled=true")
	}
	if out.SMTP.Enabled {
		if out.SMTP.Host == "" {
			res.addErr("smtp.host is required when smtp.enabled=true")
		}
		if len(out.SMTP.To) == 0 {
			res.addErr("smtp.to needs at least one recipient when smtp.enabled=true")
		}
	}
	if out.AMQP.Enabled && out.AMQP.URL == "" {
		res.addErr("amqp.url is required when amqp.enabled=true")
	}
	if out.Notify.Summary && !out.Telegram.Enabled && !out.SMTP.Enabled && !out.AMQP.Enabled {
		res.addWarn("notify.summary is on but no notifier is enabled")
	}

	// schedule
	if out.Schedule.IntervalSecs <= 0 {
		res.addErr("schedule.interval_secs must be > 0")
	} else if out.Schedule.IntervalSecs < 30 {
		res.addWarn("schedule.interval_secs is very low (%d) and may hit mailbox rate limits.", out.Schedule.IntervalSecs)
	}

	if _, err := zapcore.ParseLevel(out.Log.Level); err != nil {
		res.addErr("log.level %q is not a valid level", out.Log.Level)
	}
	if out.Log.Format != "json" && out.Log.Format != "console" {
		res.addErr("log.format must be json or console")
	}

	return out, res
}
