package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultTelegramURL = "https://api.telegram.org"

// TelegramConfig is the immutable bot configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Timeout  time.Duration
}

// TelegramOption configures the Telegram notifier.
type TelegramOption func(*Telegram)

// WithTelegramHTTPClient overrides the default http.Client.
func WithTelegramHTTPClient(hc *http.Client) TelegramOption {
	return func(t *Telegram) {
		t.http = hc
	}
}

// Telegram sends messages through the Bot API in HTML parse mode.
type Telegram struct {
	cfg  TelegramConfig
	http *http.Client
}

// NewTelegram validates cfg and returns a notifier.
func NewTelegram(cfg TelegramConfig, opts ...TelegramOption) (*Telegram, error) {
	if strings.TrimSpace(cfg.BotToken) == "" || strings.TrimSpace(cfg.ChatID) == "" {
		return nil, eris.New("notify: telegram bot token and chat id are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTelegramURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	t := &Telegram{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// BotInfo is the subset of getMe used for the connection test.
type BotInfo struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id":    t.cfg.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return eris.Wrap(err, "notify: marshal telegram message")
	}
	_, err = t.call(ctx, http.MethodPost, "sendMessage", body)
	return err
}

// GetMe checks the token and returns the bot identity.
func (t *Telegram) GetMe(ctx context.Context) (BotInfo, error) {
	raw, err := t.call(ctx, http.MethodGet, "getMe", nil)
	if err != nil {
		return BotInfo{}, err
	}
	var info BotInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return BotInfo{}, eris.Wrap(err, "notify: decode getMe")
	}
	return info, nil
}

func (t *Telegram) call(ctx context.Context, method, name string, body []byte) (json.RawMessage, error) {
	url := t.cfg.BaseURL + "/bot" + t.cfg.BotToken + "/" + name

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, eris.Wrapf(err, "notify: create %s request", name)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.http.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of the error.
		return nil, eris.Errorf("notify: telegram %s failed: %s", name, redact(err.Error(), t.cfg.BotToken))
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrapf(err, "notify: read %s response", name)
	}

	var ar apiResponse
	_ = json.Unmarshal(respBody, &ar)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !ar.OK {
		msg := ar.Description
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, eris.Errorf("notify: telegram %s: status %d: %s", name, resp.StatusCode, msg)
	}
	return ar.Result, nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
