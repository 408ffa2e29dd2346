package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"
)

// AMQPConfig addresses the exchange lead notifications are published to.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQP publishes each notification as a persistent JSON message.
type AMQP struct {
	cfg  AMQPConfig
	conn *amqp.Connection
	ch   publisher
}

// Message is the JSON body published for each notification.
type Message struct {
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// DialAMQP connects and declares a durable topic exchange.
func DialAMQP(cfg AMQPConfig) (*AMQP, error) {
	if cfg.URL == "" {
		return nil, eris.New("notify: amqp url is required")
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "ex.leads"
	}
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = "lead.found"
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, eris.Wrap(err, "notify: amqp dial")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, eris.Wrap(err, "notify: amqp channel")
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, eris.Wrapf(err, "notify: declare exchange %s", cfg.Exchange)
	}
	return &AMQP{cfg: cfg, conn: conn, ch: ch}, nil
}

func (a *AMQP) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(Message{Text: text, SentAt: time.Now().UTC()})
	if err != nil {
		return eris.Wrap(err, "notify: marshal amqp message")
	}
	err = a.ch.PublishWithContext(ctx,
		a.cfg.Exchange,
		a.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	return eris.Wrap(err, "notify: amqp publish")
}

func (a *AMQP) Close() error {
	if a == nil || a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
