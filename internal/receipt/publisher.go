package receipt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/patrykkdev/nocna-apteka/internal/domain"
)

const settlementTopic = "pos-settlements"

// Publisher emits one settlement event per receipt so back-office systems
// (sales reports, stock replenishment) can consume the day's orders.
// Fire and forget: a failed publish is logged by the caller, never retried.
type Publisher struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

func NewPublisher(log zerolog.Logger, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  settlementTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{
		writer: w,
		log:    log.With().Str("component", "settlement-publisher").Logger(),
	}
}

func (p *Publisher) Publish(ctx context.Context, receipt domain.Receipt) error {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(receipt.ID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish settlement: %w", err)
	}

	p.log.Info().Str("receipt_id", receipt.ID).Float64("total", receipt.TotalPrice).Msg("settlement published")
	return nil
}

func (p *Publisher) Close() {
	if err := p.writer.Close(); err != nil {
		p.log.Error().Err(err).Msg("error closing kafka writer")
	}
}
