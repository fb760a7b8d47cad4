package mailer

import (
	"casehub-auth-svc/src/internal/config"
	"casehub-auth-svc/src/internal/models"
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Mailer publishes composed messages to the email queue. The email
// worker consuming the queue owns delivery and retries.
type Mailer struct {
	channel *amqp.Channel
	cfg     *config.RabbitMQConfig
}

func New(channel *amqp.Channel, cfg *config.Configuration) *Mailer {
	return &Mailer{
		channel: channel,
		cfg:     &cfg.Queue.RabbitMQ,
	}
}

func (m *Mailer) Send(ctx context.Context, msg *models.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal mail message")
		return models.ErrMailPublish
	}

	err = m.channel.Publish(
		m.cfg.Exchange,
		m.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		logrus.WithError(err).Error("Failed to publish mail message")
		return models.ErrMailPublish
	}

	logrus.WithFields(logrus.Fields{
		"to":          msg.To,
		"subject":     msg.Subject,
		"exchange":    m.cfg.Exchange,
		"routing_key": m.cfg.RoutingKey,
	}).Debug("Mail message published")

	return nil
}
