package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	MediaExchange       = "media.exchange"
	ThumbnailRoutingKey = "media.thumbnail"
)

// RetryPolicy is attached to every job at enqueue time, so retry behavior can
// change without touching worker code.
type RetryPolicy struct {
	MaxAttempts int           `json:"max_attempts"`
	BackoffKind string        `json:"backoff_kind"` // "fixed" or "exponential"
	BaseDelay   time.Duration `json:"base_delay"`
}

// Delay returns the wait before re-dispatching after the given 1-based failed
// attempt. Exponential backoff doubles per attempt, so the delay strictly
// increases with the attempt number.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	switch p.BackoffKind {
	case "exponential":
		return p.BaseDelay << (attempt - 1)
	default:
		return p.BaseDelay
	}
}

// ThumbnailJobMessage is the queue payload for one derived-asset job.
type ThumbnailJobMessage struct {
	JobID         string      `json:"job_id"`
	AssetID       string      `json:"asset_id"`
	StorageKey    string      `json:"storage_key"`
	TimestampHint *float64    `json:"timestamp_hint,omitempty"`
	Attempt       int         `json:"attempt"`
	Policy        RetryPolicy `json:"policy"`
	Timestamp     int64       `json:"timestamp"`
}

// ThumbnailResult is what a completed job reports back onto the asset record
// and into the logs.
type ThumbnailResult struct {
	URL      string  `json:"url"`
	Key      string  `json:"key"`
	Duration float64 `json:"duration,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
}

// ThumbnailProduceService publishes derived-asset jobs onto the durable queue.
type ThumbnailProduceService struct {
	channel *amqp.Channel
	queue   string
}

func InitThumbnailProduceService(channel *amqp.Channel, queueName string) *ThumbnailProduceService {
	service := &ThumbnailProduceService{
		channel: channel,
		queue:   queueName,
	}

	err := channel.ExchangeDeclare(
		MediaExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		panic("Failed to declare media exchange: " + err.Error())
	}

	_, err = channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		panic("Failed to declare thumbnail queue: " + err.Error())
	}

	err = channel.QueueBind(
		queueName,
		ThumbnailRoutingKey,
		MediaExchange,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to bind thumbnail queue: " + err.Error())
	}

	return service
}

func (s *ThumbnailProduceService) Queue() string { return s.queue }

// PublishThumbnailJob publishes one job message. Redelivery republishing goes
// through the same path so the wire format stays in one place.
func (s *ThumbnailProduceService) PublishThumbnailJob(ctx context.Context, msg ThumbnailJobMessage) error {
	msg.Timestamp = time.Now().Unix()
	if msg.Attempt < 1 {
		msg.Attempt = 1
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		MediaExchange,
		ThumbnailRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
