package notify

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/gomail.v2"
)

// SMTPConfig addresses an outgoing mail server and the operator inboxes.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Subject  string
}

// SMTP mails each notification as an HTML message.
type SMTP struct {
	cfg  SMTPConfig
	send func(m *gomail.Message) error
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || len(cfg.To) == 0 {
		return nil, eris.New("notify: smtp host and at least one recipient are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Subject == "" {
		cfg.Subject = "New Bark lead"
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTP{cfg: cfg, send: func(m *gomail.Message) error { return d.DialAndSend(m) }}, nil
}

func (s *SMTP) message(text string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To...)
	m.SetHeader("Subject", s.cfg.Subject)
	m.SetBody("text/html", strings.ReplaceAll(text, "\n", "<br>\n"))
	return m
}

// Notify sends text. gomail has no context support, so a cancelled ctx
// abandons the wait but not the dial already in flight.
func (s *SMTP) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := s.message(text)

	done := make(chan error, 1)
	go func() { done <- s.send(m) }()

	select {
	case err := <-done:
		return eris.Wrap(err, "notify: smtp send")
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "notify: smtp send")
	}
}
