package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/config"
	"github.com/roomiesofficial522-svg/Tkitmaster/pkg/logger"

	"github.com/IBM/sarama"
)

// Consumer drains the notification topic and hands messages to the mailer.
type Consumer struct {
	group  sarama.ConsumerGroup
	topic  string
	sender EmailSender
	logger *logger.Logger
}

// NewConsumer creates a consumer group member for the notification topic.
func NewConsumer(cfg config.KafkaConfig, sender EmailSender) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = 30 * time.Second
	saramaConfig.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &Consumer{
		group:  group,
		topic:  cfg.Topic,
		sender: sender,
		logger: logger.GetDefault(),
	}, nil
}

// Run consumes until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	handler := &consumerHandler{sender: c.sender, logger: c.logger}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("consume failed: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerHandler struct {
	sender EmailSender
	logger *logger.Logger
}

func (h *consumerHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var n Notification
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			h.logger.Warn("dropping malformed notification", "error", err.Error())
			session.MarkMessage(msg, "")
			continue
		}

		if err := h.sender.Send(session.Context(), &n); err != nil {
			// Best-effort delivery; mark and move on
			h.logger.Warn("notification delivery failed",
				"notification_id", n.ID,
				"type", string(n.Type),
				"error", err.Error())
		}
		session.MarkMessage(msg, "")
	}
	return nil
}
