package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/zalando/go-keyring"
	"go.uber.org/zap"

	"github.com/Pharaon3/bark-automation/internal/config"
)

const (
	// KeyringService groups the app's secrets in the OS keychain.
	KeyringService = "bark-automation"
)

// Kind names one secret the app can keep in the keychain.
type Kind string

const (
	IMAP       Kind = "imap"
	Telegram   Kind = "telegram"
	Enrichment Kind = "enrichment"
	SMTP       Kind = "smtp"
)

// Account returns the keychain account a secret of kind k is stored under.
func Account(cfg config.Config, k Kind) string {
	switch k {
	case IMAP:
		return fmt.Sprintf("bark:imap:%s@%s", cfg.Mail.Username, cfg.Mail.IMAPHost)
	case Telegram:
		return fmt.Sprintf("bark:telegram:%s", cfg.Telegram.ChatID)
	case Enrichment:
		return fmt.Sprintf("bark:enrichment:%s", cfg.Enrichment.APName)
	case SMTP:
		return fmt.Sprintf("bark:smtp:%s@%s", cfg.SMTP.Username, cfg.SMTP.Host)
	}
	return ""
}

func Get(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", eris.New("secrets: keyring account name is empty")
	}
	pw, err := keyring.Get(KeyringService, account)
	if err != nil {
		return "", eris.Wrapf(err, "secrets: get %s", account)
	}
	if strings.TrimSpace(pw) == "" {
		return "", eris.Errorf("secrets: %s is empty", account)
	}
	return pw, nil
}

func Set(account, secret string) error {
	if strings.TrimSpace(account) == "" {
		return eris.New("secrets: keyring account name is empty")
	}
	if strings.TrimSpace(secret) == "" {
		return eris.New("secrets: secret is empty")
	}
	return eris.Wrapf(keyring.Set(KeyringService, account, secret), "secrets: set %s", account)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return eris.New("secrets: keyring account name is empty")
	}
	return eris.Wrapf(keyring.Delete(KeyringService, account), "secrets: delete %s", account)
}

// Resolve fills every empty secret in cfg from the keychain. Values already
// set through the config file or environment win. A missing entry is not an
// error; the component that needs it reports that later.
func Resolve(cfg *config.Config) {
	log := zap.L().With(zap.String("component", "secrets"))

	fill := func(dst *string, k Kind) {
		if *dst != "" {
			return
		}
		pw, err := keyring.Get(KeyringService, Account(*cfg, k))
		switch {
		case err == nil:
			*dst = pw
		case errors.Is(err, keyring.ErrNotFound):
			log.Debug("no keychain entry", zap.String("kind", string(k)))
		default:
			log.Warn("keychain lookup failed", zap.String("kind", string(k)), zap.Error(err))
		}
	}

	fill(&cfg.Mail.Password, IMAP)
	if cfg.Telegram.Enabled {
		fill(&cfg.Telegram.BotToken, Telegram)
	}
	if cfg.Enrichment.Enabled {
		fill(&cfg.Enrichment.APPassword, Enrichment)
	}
	if cfg.SMTP.Enabled {
		fill(&cfg.SMTP.Password, SMTP)
	}
}
